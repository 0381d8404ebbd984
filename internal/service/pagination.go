package service

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// Pagination selects one page of a list. Zero values mean the defaults.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize applies the defaults and caps Limit at MaxPageSize.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Pagination) offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

func (p Pagination) limit() int {
	return p.Normalize().Limit
}
