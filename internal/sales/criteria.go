package sales

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Criteria narrows the working record set. Empty Products or Sellers mean no
// restriction; zero Start or End leave that side of the range open.
type Criteria struct {
	Products []string  `json:"products,omitempty"`
	Sellers  []string  `json:"sellers,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Inverted reports whether both bounds are set and Start is after End.
func (c Criteria) Inverted() bool {
	return !c.Start.IsZero() && !c.End.IsZero() && c.Start.After(c.End)
}

// Canonical renders the criteria as a stable string for cache keys. Value
// order does not matter, duplicates are dropped.
func (c Criteria) Canonical() string {
	return strings.Join([]string{
		"p=" + joinSorted(c.Products),
		"s=" + joinSorted(c.Sellers),
		"from=" + formatDate(c.Start),
		"to=" + formatDate(c.End),
	}, "|")
}

func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	quoted := make([]string, 0, len(sorted))
	for _, v := range sorted {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return strings.Join(quoted, ",")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// Dimension is a filterable categorical attribute of a record.
type Dimension string

// Filterable dimensions.
const (
	DimensionProduct Dimension = "product"
	DimensionSeller  Dimension = "seller"
)

// Schema lists which dimensions a dashboard exposes and how they select.
// The date range is always filterable.
type Schema struct {
	Dimensions  []Dimension
	MultiSelect bool
}

// DefaultSchema enables product and seller as multi-select filters.
func DefaultSchema() Schema {
	return Schema{Dimensions: []Dimension{DimensionProduct, DimensionSeller}, MultiSelect: true}
}

// ParseSchema builds a schema from a comma separated dimension list.
func ParseSchema(list string, multi bool) (Schema, error) {
	schema := Schema{MultiSelect: multi}
	for _, part := range strings.Split(list, ",") {
		name := Dimension(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		switch name {
		case DimensionProduct, DimensionSeller:
		default:
			return Schema{}, fmt.Errorf("sales: unknown filter dimension %q", name)
		}
		if !slices.Contains(schema.Dimensions, name) {
			schema.Dimensions = append(schema.Dimensions, name)
		}
	}
	return schema, nil
}

// Enabled reports whether the dimension is filterable.
func (s Schema) Enabled(d Dimension) bool {
	return slices.Contains(s.Dimensions, d)
}

// Constrain drops values for disabled dimensions and trims single-select
// dimensions to their first value.
func (s Schema) Constrain(c Criteria) Criteria {
	out := Criteria{Start: c.Start, End: c.End}
	if s.Enabled(DimensionProduct) {
		out.Products = s.limit(c.Products)
	}
	if s.Enabled(DimensionSeller) {
		out.Sellers = s.limit(c.Sellers)
	}
	return out
}

func (s Schema) limit(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	if !s.MultiSelect {
		return []string{values[0]}
	}
	return slices.Clone(values)
}
