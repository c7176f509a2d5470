// internal/models/filter.go
package models

// Op is a filter clause operator.
type Op string

const (
	OpEquals   Op = "eq"
	OpEmpty    Op = "empty"
	OpNotEmpty Op = "not_empty"
	OpGreater  Op = "gt"
	OpLess     Op = "lt"
	OpContains Op = "contains"
)

// Row field names produced by the purchasing handlers.
const (
	ColumnStatus       = "status"
	ColumnTotalValue   = "total_value"
	ColumnForecastDate = "forecast_date"
	ColumnInvoice      = "invoice"
	ColumnDaysLate     = "days_late"
	ColumnOrderDate    = "order_date"
	ColumnDescription  = "description"
)

// Status values a follow-up can filter on.
const (
	StatusDelayed = "DELAYED"
	StatusOnTime  = "ON_TIME"
	StatusPartial = "PARTIAL"
)

// Clause is a single filter predicate. Value is a string for eq/contains and a
// float64 for gt/lt; it is unused for empty/not_empty.
type Clause struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value,omitempty"`
}

// FilterRequest is derived from a follow-up question and applied to a copy of
// cached rows.
type FilterRequest struct {
	Clauses   []Clause `json:"clauses,omitempty"`
	SortField string   `json:"sortField,omitempty"`
	SortDesc  bool     `json:"sortDesc,omitempty"`
	TopN      int      `json:"topN,omitempty"`
}

// IsZero reports whether the request carries no clause, sort or limit.
func (f FilterRequest) IsZero() bool {
	return len(f.Clauses) == 0 && f.SortField == "" && f.TopN == 0
}

// Add appends c unless an identical clause already exists.
func (f *FilterRequest) Add(c Clause) {
	for _, existing := range f.Clauses {
		if existing.Field == c.Field && existing.Op == c.Op && existing.Value == c.Value {
			return
		}
	}
	f.Clauses = append(f.Clauses, c)
}

// Has reports whether a clause with the given field and operator exists.
func (f FilterRequest) Has(field string, op Op) bool {
	_, ok := f.Find(field, op)
	return ok
}

// Find returns the first clause matching field and op.
func (f FilterRequest) Find(field string, op Op) (Clause, bool) {
	for _, c := range f.Clauses {
		if c.Field == field && c.Op == op {
			return c, true
		}
	}
	return Clause{}, false
}

// Equals returns the equality value for field, if any.
func (f FilterRequest) Equals(field string) (string, bool) {
	c, ok := f.Find(field, OpEquals)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(string)
	return s, ok
}

// Merge adds other's clauses that f does not already cover for the same field and
// operator, and fills sort and top-N only when f leaves them unset.
func (f FilterRequest) Merge(other FilterRequest) FilterRequest {
	out := FilterRequest{
		Clauses:   append([]Clause(nil), f.Clauses...),
		SortField: f.SortField,
		SortDesc:  f.SortDesc,
		TopN:      f.TopN,
	}
	for _, c := range other.Clauses {
		if !out.Has(c.Field, c.Op) {
			out.Clauses = append(out.Clauses, c)
		}
	}
	if out.SortField == "" && other.SortField != "" {
		out.SortField = other.SortField
		out.SortDesc = other.SortDesc
	}
	if out.TopN == 0 {
		out.TopN = other.TopN
	}
	return out
}
