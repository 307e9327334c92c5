package models

type SkillTrend struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Growth int    `json:"growth"`
}

type CompanyCount struct {
	Name     string `json:"name"`
	JobCount int    `json:"jobCount"`
}

type TrendInsights struct {
	PlatformFocus  string `json:"platformFocus"`
	IndustryDemand string `json:"industryDemand"`
	RateTrends     string `json:"rateTrends"`
	Geography      string `json:"geography"`
}

// Trends is the market summary rendered into the weekly email. It is computed
// once per check and shared by every recipient.
type Trends struct {
	TotalJobs       int            `json:"totalJobs"`
	JobGrowth       int            `json:"jobGrowth"`
	AvgRate         int            `json:"avgRate"`
	RateChange      int            `json:"rateChange"`
	RemotePercent   int            `json:"remotePercent"`
	RemoteGrowth    int            `json:"remoteGrowth"`
	TopSkills       []SkillTrend   `json:"topSkills"`
	TopCompanies    []CompanyCount `json:"topCompanies"`
	Insights        TrendInsights  `json:"insights"`
	Recommendations []string       `json:"recommendations"`
}
