package repository

import "gorm.io/gorm"

// Page describes one slice of a paginated listing.
type Page struct {
	Number int   `json:"page"`
	Size   int   `json:"page_size"`
	Total  int64 `json:"total"`
	Pages  int   `json:"pages"`
}

// NewPage clamps the requested page into range. Pages before the first map
// to the first and pages past the end map to the last; an empty listing has
// a single empty page.
func NewPage(requested, size int, total int64) Page {
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	n := requested
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	return Page{Number: n, Size: size, Total: total, Pages: pages}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func paginate(p Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Size)
	}
}
