package sales

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scenarioRecords() []Record {
	return []Record{
		{Date: day(2024, 1, 1), Product: "Widget", Seller: "Alice", Region: "North", Amount: decimal.NewFromFloat(100.0)},
		{Date: day(2024, 1, 1), Product: "Gadget", Seller: "Bob", Region: "South", Amount: decimal.NewFromFloat(50.0)},
		{Date: day(2024, 1, 2), Product: "Widget", Seller: "Alice", Region: "North", Amount: decimal.NewFromFloat(25.0)},
	}
}

func TestPipelineWidgetScenario(t *testing.T) {
	records := scenarioRecords()

	filtered := ApplyFilters(records, Criteria{Products: []string{"Widget"}, Start: day(2024, 1, 1), End: day(2024, 1, 2)})
	require.Len(t, filtered, 2)
	assert.Equal(t, records[0], filtered[0])
	assert.Equal(t, records[2], filtered[1])

	ind := ComputeIndicators(filtered)
	assert.True(t, ind.Total.Equal(decimal.NewFromInt(125)), "total %s", ind.Total)
	assert.Equal(t, 2, ind.Count)
	require.True(t, ind.HasData())
	assert.True(t, ind.Mean.Decimal.Equal(decimal.RequireFromString("62.5")), "mean %s", ind.Mean.Decimal)

	byDate := AggregateByDate(filtered)
	require.Len(t, byDate, 2)
	assert.Equal(t, day(2024, 1, 1), byDate[0].Key)
	assert.True(t, byDate[0].Sum.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, day(2024, 1, 2), byDate[1].Key)
	assert.True(t, byDate[1].Sum.Equal(decimal.NewFromInt(25)))

	byRegion := AggregateByRegion(filtered)
	require.Len(t, byRegion, 1)
	assert.Equal(t, "North", byRegion[0].Key)
	assert.True(t, byRegion[0].Sum.Equal(decimal.NewFromInt(125)))
}

func TestApplyFiltersInvertedRangeIsEmpty(t *testing.T) {
	filtered := ApplyFilters(scenarioRecords(), Criteria{Start: day(2024, 1, 2), End: day(2024, 1, 1)})
	require.NotNil(t, filtered)
	assert.Empty(t, filtered)

	ind := ComputeIndicators(filtered)
	assert.True(t, ind.Total.IsZero())
	assert.Zero(t, ind.Count)
	assert.False(t, ind.HasData())
	assert.Empty(t, AggregateByDate(filtered))
	assert.Empty(t, AggregateByRegion(filtered))
}

func TestApplyFiltersSellerAndOpenBounds(t *testing.T) {
	records := scenarioRecords()

	filtered := ApplyFilters(records, Criteria{Sellers: []string{"Bob"}})
	require.Len(t, filtered, 1)
	assert.Equal(t, "Gadget", filtered[0].Product)

	filtered = ApplyFilters(records, Criteria{Start: day(2024, 1, 2)})
	require.Len(t, filtered, 1)
	assert.Equal(t, day(2024, 1, 2), filtered[0].Date)

	assert.Empty(t, ApplyFilters(records, Criteria{Products: []string{"widget"}}), "matching is case-sensitive")
}

func TestApplyFiltersDoesNotMutateInput(t *testing.T) {
	records := scenarioRecords()
	before := scenarioRecords()

	_ = ApplyFilters(records, Criteria{Products: []string{"Gadget"}})
	assert.Equal(t, before, records)
}

func TestComputeIndicatorsEmpty(t *testing.T) {
	ind := ComputeIndicators(nil)
	assert.True(t, ind.Total.IsZero())
	assert.Equal(t, 0, ind.Count)
	assert.False(t, ind.Mean.Valid)
	assert.Equal(t, NoDataPlaceholder, FormatMean(ind.Mean))
}

func randomRecords(r *rand.Rand, n int) []Record {
	products := []string{"Widget", "Gadget", "Gizmo", "Caneta"}
	sellers := []string{"Alice", "Bob", "Carla", "Dênis"}
	regions := []string{"North", "South", "East", "Sudeste"}
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			Date:    day(2024, 1, 1).AddDate(0, 0, r.IntN(60)),
			Product: products[r.IntN(len(products))],
			Seller:  sellers[r.IntN(len(sellers))],
			Region:  regions[r.IntN(len(regions))],
			Amount:  decimal.New(r.Int64N(1_000_000), -2),
		})
	}
	return records
}

func pick(r *rand.Rand, values []string) []string {
	var out []string
	for _, v := range values {
		if r.IntN(3) == 0 {
			out = append(out, v)
		}
	}
	return out
}

// keeps restates the filter rule independently of the matcher: an empty
// selection leaves a dimension unconstrained and both date bounds are inclusive.
func keeps(c Criteria, record Record) bool {
	if len(c.Products) > 0 && !slices.Contains(c.Products, record.Product) {
		return false
	}
	if len(c.Sellers) > 0 && !slices.Contains(c.Sellers, record.Seller) {
		return false
	}
	return !record.Date.Before(c.Start) && !record.Date.After(c.End)
}

func TestApplyFiltersProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 50; round++ {
		records := randomRecords(r, 200)
		ds := NewDataset(nil, nil, records, "prop")

		all := ApplyFilters(records, ds.DefaultCriteria())
		require.Equal(t, records, all, "full criteria keeps everything in order")

		criteria := Criteria{
			Products: pick(r, ds.Products()),
			Sellers:  pick(r, ds.Sellers()),
			Start:    day(2024, 1, 1).AddDate(0, 0, r.IntN(30)),
			End:      day(2024, 1, 1).AddDate(0, 0, 30+r.IntN(30)),
		}
		filtered := ApplyFilters(records, criteria)

		kept := 0
		total := decimal.Zero
		for _, record := range records {
			if keeps(criteria, record) {
				require.Less(t, kept, len(filtered))
				require.Equal(t, record, filtered[kept], "order preserved")
				total = total.Add(record.Amount)
				kept++
			}
		}
		require.Equal(t, kept, len(filtered))

		ind := ComputeIndicators(filtered)
		require.True(t, total.Equal(ind.Total))
		require.Equal(t, len(filtered), ind.Count)

		first := AggregateByDate(filtered)
		second := AggregateByDate(filtered)
		require.Equal(t, first, second)
		require.True(t, SumGroups(first).Equal(ind.Total))
		require.True(t, SumGroups(AggregateByRegion(filtered)).Equal(ind.Total))
		for i := 1; i < len(first); i++ {
			require.True(t, first[i-1].Key.Before(first[i].Key))
		}
	}
}

func TestAggregateByRegionDiscoveryOrder(t *testing.T) {
	records := []Record{
		{Region: "South", Amount: decimal.NewFromInt(1)},
		{Region: "North", Amount: decimal.NewFromInt(2)},
		{Region: "South", Amount: decimal.NewFromInt(3)},
		{Region: "East", Amount: decimal.NewFromInt(4)},
	}
	groups := AggregateByRegion(records)
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"South", "North", "East"}, keys)
	assert.True(t, groups[0].Sum.Equal(decimal.NewFromInt(4)))
}

func TestSchemaConstrain(t *testing.T) {
	criteria := Criteria{Products: []string{"Widget", "Gadget"}, Sellers: []string{"Alice", "Bob"}}

	single, err := ParseSchema("seller", false)
	require.NoError(t, err)
	got := single.Constrain(criteria)
	assert.Nil(t, got.Products)
	assert.Equal(t, []string{"Alice"}, got.Sellers)

	got = DefaultSchema().Constrain(criteria)
	assert.Equal(t, criteria.Products, got.Products)
	assert.Equal(t, criteria.Sellers, got.Sellers)

	_, err = ParseSchema("product,region", true)
	assert.Error(t, err)
}

func TestCriteriaCanonicalIgnoresOrder(t *testing.T) {
	a := Criteria{Products: []string{"B", "A", "A"}, Start: day(2024, 1, 1)}
	b := Criteria{Products: []string{"A", "B"}, Start: day(2024, 1, 1)}
	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.Equal(t, `p="A","B"|s=|from=2024-01-01|to=-`, b.Canonical())
}
