package data

import "strings"

// Recipient is an opted-in preference row joined with the owning user's address.
type Recipient struct {
	UserEmailPreference
	Email string `db:"email"`
}

// Name is the local part of the recipient address, used as a greeting.
func (r Recipient) Name() string {
	name, _, _ := strings.Cut(r.Email, "@")
	return name
}

type EmailTypeCount struct {
	EmailType string `db:"email_type"`
	Count     int    `db:"count"`
}
