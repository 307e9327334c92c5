package models

type Email struct {
	From    string
	ReplyTo string
	To      string
	Subject string
	Body    string // HTML
}

type SendResult struct {
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"providerMessageId"`
}

type EmailStats struct {
	Days         int `json:"days"`
	Total        int `json:"total"`
	PerfectMatch int `json:"perfectMatch"`
	DailyDigest  int `json:"dailyDigest"`
	WeeklyTrends int `json:"weeklyTrends"`
}

type CheckResponse struct {
	Check string `json:"check"`
	Sent  int    `json:"sent"`
}
