package sales

import "github.com/shopspring/decimal"

// Indicators holds the headline figures of a filtered record set. Mean is
// invalid (the no-data sentinel) when Count is zero.
type Indicators struct {
	Total decimal.Decimal     `json:"total"`
	Count int                 `json:"count"`
	Mean  decimal.NullDecimal `json:"mean"`
}

// HasData reports whether the mean is defined.
func (i Indicators) HasData() bool {
	return i.Mean.Valid
}

// ComputeIndicators sums, counts and averages the record amounts.
func ComputeIndicators(records []Record) Indicators {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	summary := Indicators{Total: total, Count: len(records)}
	if summary.Count > 0 {
		summary.Mean = decimal.NewNullDecimal(total.Div(decimal.NewFromInt(int64(summary.Count))))
	}
	return summary
}
