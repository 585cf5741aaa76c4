package shared

// Filter carries the common query options accepted by list operations.
// Zero Page/PageSize means unpaginated.
type Filter struct {
	Page     int
	PageSize int
	Search   string
}
