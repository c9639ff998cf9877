package analytics

// OverviewDTO summarizes the platform's headline counts.
type OverviewDTO struct {
	TotalUsers      int64 `json:"total_users"`
	ActiveUsers     int64 `json:"active_users"`
	TotalEvents     int64 `json:"total_events"`
	PublishedEvents int64 `json:"published_events"`
	TotalPOIs       int64 `json:"total_pois"`
	TotalCategories int64 `json:"total_categories"`
}

// CategoryCountDTO is one row of the events-per-category report.
type CategoryCountDTO struct {
	CategoryName string `json:"category_name"`
	EventCount   int64  `json:"event_count"`
}

// MonthlyCountDTO is one row of the registrations-per-month report. Month is
// formatted YYYY-MM.
type MonthlyCountDTO struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}
