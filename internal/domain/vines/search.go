package vines

const (
	DefaultPage         = 1
	DefaultItemsPerPage = 10
)

// SearchFilters selects vines. Vineyard, field and row match against any of
// the vine's locations; the remaining filters match the vine itself.
type SearchFilters struct {
	AlphaNumericID string
	Variety        string
	VineyardName   string
	FieldName      string
	RowNumber      *int
	IsDead         *bool
	YearMin        *int
	YearMax        *int
}

// Page is a 1-based page request.
type Page struct {
	Page         int
	ItemsPerPage int
}

// Normalize applies the defaults to non-positive values.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.ItemsPerPage < 1 {
		p.ItemsPerPage = DefaultItemsPerPage
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.ItemsPerPage
}

// Pages is ceil(total / itemsPerPage).
func (p Page) Pages(total int64) int64 {
	p = p.Normalize()
	per := int64(p.ItemsPerPage)
	return (total + per - 1) / per
}

type SearchResult struct {
	Items []Vine
	Total int64
	Page  Page
}
