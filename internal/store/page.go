package store

const (
	DefaultPage    = 1
	DefaultPerPage = 5
	MaxPerPage     = 100
)

// PageMeta describes one page of an ordered result set.
// PrevPage and NextPage are nil when there is no such page.
type PageMeta struct {
	Page     int
	PerPage  int
	Pages    int
	Total    int
	PrevPage *int
	NextPage *int
	HasPrev  bool
	HasNext  bool
}

// normalizePage applies defaults to non-positive values and caps perPage.
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// NewPageMeta computes pagination metadata. A page past the end is valid
// and simply has no items; Pages is 0 for an empty result set.
func NewPageMeta(page, perPage, total int) PageMeta {
	page, perPage = normalizePage(page, perPage)
	m := PageMeta{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   (total + perPage - 1) / perPage,
	}
	m.HasPrev = page > 1
	m.HasNext = page < m.Pages
	if m.HasPrev {
		p := page - 1
		m.PrevPage = &p
	}
	if m.HasNext {
		n := page + 1
		m.NextPage = &n
	}
	return m
}

func (m PageMeta) offset() int {
	return (m.Page - 1) * m.PerPage
}
