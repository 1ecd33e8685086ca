package sales

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Group is one aggregated bucket: the summed amount of every record sharing Key.
type Group[K comparable] struct {
	Key K               `json:"key"`
	Sum decimal.Decimal `json:"sum"`
}

// AggregateByKey sums amounts per key. Groups come back in the order their key
// is first seen; each sum accumulates sequentially in scan order.
func AggregateByKey[K comparable](records []Record, key func(Record) K) []Group[K] {
	index := make(map[K]int)
	groups := make([]Group[K], 0)
	for _, record := range records {
		k := key(record)
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, Group[K]{Key: k})
		}
		groups[pos].Sum = groups[pos].Sum.Add(record.Amount)
	}
	return groups
}

// AggregateByDate sums amounts per day, ascending by date.
func AggregateByDate(records []Record) []Group[time.Time] {
	groups := AggregateByKey(records, func(r Record) time.Time { return Civil(r.Date) })
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.Before(groups[j].Key)
	})
	return groups
}

// AggregateByRegion sums amounts per region in discovery order.
func AggregateByRegion(records []Record) []Group[string] {
	return AggregateByKey(records, func(r Record) string { return r.Region })
}

// SumGroups totals the sums of all groups.
func SumGroups[K comparable](groups []Group[K]) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Sum)
	}
	return total
}
