package entity

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// SearchRequest is the client-facing search.
type SearchRequest struct {
	Search     string   `json:"search,omitempty"`
	PageNumber *int     `json:"pageNumber,omitempty"`
	PageSize   *int     `json:"pageSize,omitempty"`
	DoCount    *bool    `json:"doCount,omitempty"`
	OrderBy    []string `json:"orderBy,omitempty"`

	CreatedStartDate  *time.Time `json:"createdStartDate,omitempty"`
	CreatedEndDate    *time.Time `json:"createdEndDate,omitempty"`
	ModifiedStartDate *time.Time `json:"modifiedStartDate,omitempty"`
	ModifiedEndDate   *time.Time `json:"modifiedEndDate,omitempty"`
}

// OrderBy sorts by one field.
type OrderBy struct {
	Field     string
	Ascending bool
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseOrderBy reads "field", "field:asc", "field:desc" and "-field".
// Entries that are not plain field names are skipped.
func ParseOrderBy(specs []string) []OrderBy {
	var out []OrderBy
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		ob := OrderBy{Field: spec, Ascending: true}
		if strings.HasPrefix(spec, "-") {
			ob = OrderBy{Field: spec[1:], Ascending: false}
		} else if field, dir, ok := strings.Cut(spec, ":"); ok {
			ob.Field = field
			ob.Ascending = !strings.EqualFold(dir, "desc")
		}
		if fieldName.MatchString(ob.Field) {
			out = append(out, ob)
		}
	}
	return out
}

// Query is a SearchRequest resolved against the service defaults, as handed
// to a SearchClient. Zero PageNumber or PageSize means unpaged.
type Query struct {
	Search     string
	PageNumber int
	PageSize   int
	DoCount    bool
	OrderBy    []OrderBy

	CreatedStart  *time.Time
	CreatedEnd    *time.Time
	ModifiedStart *time.Time
	ModifiedEnd   *time.Time
}

// Paged reports whether the query asks for one page.
func (q Query) Paged() bool { return q.PageNumber > 0 && q.PageSize > 0 }

// Offset is the number of records before the requested page. It saturates
// at math.MaxInt for pages too far out to address.
func (q Query) Offset() int {
	if !q.Paged() {
		return 0
	}
	if q.PageNumber-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.PageNumber - 1) * q.PageSize
}

// HasDateFilter reports whether any created or modified bound is set.
func (q Query) HasDateFilter() bool {
	return q.CreatedStart != nil || q.CreatedEnd != nil || q.ModifiedStart != nil || q.ModifiedEnd != nil
}

// InRange reports whether created and modified fall within the query bounds.
func (q Query) InRange(created, modified time.Time) bool {
	if q.CreatedStart != nil && created.Before(*q.CreatedStart) {
		return false
	}
	if q.CreatedEnd != nil && created.After(*q.CreatedEnd) {
		return false
	}
	if q.ModifiedStart != nil && modified.Before(*q.ModifiedStart) {
		return false
	}
	if q.ModifiedEnd != nil && modified.After(*q.ModifiedEnd) {
		return false
	}
	return true
}

// PagedResponse is one page of search results.
type PagedResponse[E any] struct {
	Data            []E    `json:"data"`
	TotalRecords    *int64 `json:"totalRecords,omitempty"`
	CurrentPage     *int   `json:"currentPage,omitempty"`
	CurrentPageSize *int   `json:"currentPageSize,omitempty"`
}

// OrderByProvider supplies the default ordering of an entity's searches.
type OrderByProvider[K comparable, E Entity[K]] interface {
	DefaultOrderBy() []OrderBy
}

// DefaultOrder is an OrderByProvider with a fixed ordering.
type DefaultOrder[K comparable, E Entity[K]] []OrderBy

func (d DefaultOrder[K, E]) DefaultOrderBy() []OrderBy { return d }

// OrderByFields builds a DefaultOrder from "field:dir" specs.
func OrderByFields[K comparable, E Entity[K]](specs ...string) DefaultOrder[K, E] {
	return DefaultOrder[K, E](ParseOrderBy(specs))
}
