package sales

// ApplyFilters returns the records matching every predicate of the criteria,
// preserving their relative order. An inverted date range yields an empty
// result. The input slice is never modified.
func ApplyFilters(records []Record, criteria Criteria) []Record {
	if criteria.Inverted() {
		return []Record{}
	}
	m := newMatcher(criteria)
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if m.match(record) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// Match reports whether a single record satisfies the criteria.
func (c Criteria) Match(record Record) bool {
	if c.Inverted() {
		return false
	}
	return newMatcher(c).match(record)
}

type matcher struct {
	criteria Criteria
	products map[string]struct{}
	sellers  map[string]struct{}
}

func newMatcher(c Criteria) matcher {
	return matcher{criteria: c, products: toSet(c.Products), sellers: toSet(c.Sellers)}
}

func (m matcher) match(record Record) bool {
	if m.products != nil {
		if _, ok := m.products[record.Product]; !ok {
			return false
		}
	}
	if m.sellers != nil {
		if _, ok := m.sellers[record.Seller]; !ok {
			return false
		}
	}
	if !m.criteria.Start.IsZero() && record.Date.Before(m.criteria.Start) {
		return false
	}
	if !m.criteria.End.IsZero() && record.Date.After(m.criteria.End) {
		return false
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
