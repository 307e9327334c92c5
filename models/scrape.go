package models

import "time"

// ScrapeRunSummary describes one orchestrator pass across all sources.
type ScrapeRunSummary struct {
	Timestamp    time.Time      `json:"timestamp"`
	TotalScanned int            `json:"totalScanned"`
	TotalSaved   int            `json:"totalSaved"`
	Sources      map[string]int `json:"sources"`
}

type ScraperStatus struct {
	IsRunning bool                  `json:"isRunning"`
	NextRun   *time.Time            `json:"nextRun,omitempty"`
	LastRun   *ScrapeRunSummary     `json:"lastRun"`
	Proxies   map[string]ProxyStats `json:"proxies,omitempty"`
}

type ProxyStats struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

type EmailSchedulerStatus struct {
	IsRunning bool                        `json:"isRunning"`
	Checks    map[string]EmailCheckStatus `json:"checks"`
}

type EmailCheckStatus struct {
	Interval string     `json:"interval"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
	LastSent int        `json:"lastSent"`
}
