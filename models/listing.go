package models

import (
	"time"

	"github.com/google/uuid"
)

type Listing struct {
	ID             uuid.UUID `json:"id"`
	ExternalURL    string    `json:"externalUrl"`
	SourceName     string    `json:"sourceName"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	RemoteAllowed  bool      `json:"remoteAllowed"`
	RateType       string    `json:"rateType"`
	RateMin        float64   `json:"rateMin"`
	RateMax        float64   `json:"rateMax"`
	Skills         []string  `json:"skills"`
	RelevanceScore int       `json:"relevanceScore"`
	DatePosted     time.Time `json:"datePosted"`
	Status         string    `json:"status"`
}

type GetListingsResponse struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
}

type EmailPreferences struct {
	PerfectMatchAlerts bool     `json:"perfectMatchAlerts"`
	DailyDigest        bool     `json:"dailyDigest"`
	WeeklyTrends       bool     `json:"weeklyTrends"`
	MinRate            *float64 `json:"minRate"`
	MaxRate            *float64 `json:"maxRate"`
	Skills             []string `json:"skills"`
	NotificationTime   string   `json:"notificationTime"`
}
