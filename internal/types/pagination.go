package types

// PageInfo contains pagination metadata for list responses. It mirrors the
// offset-based paging contract of the REST API: Total is the full record
// count, and HasMore is true when records exist beyond Skip+len(page).
type PageInfo struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	HasMore bool `json:"hasMore"`
}
