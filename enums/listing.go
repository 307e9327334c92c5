package enums

type RateType string

const (
	RateTypeHourly  RateType = "hourly"
	RateTypeMonthly RateType = "monthly"
	RateTypeProject RateType = "project"
)

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusArchived ListingStatus = "archived"
)

// Source names a listing origin. It is stored verbatim in listings.source_name.
type Source string

const (
	SourceIndeed    Source = "Indeed"
	SourceRemoteOK  Source = "RemoteOK"
	SourceAngelList Source = "AngelList"
)
