package ui

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bitshop/salesdash/internal/sales"
)

func TestToCardsEmpty(t *testing.T) {
	cards := ToCards(sales.ComputeIndicators(nil))
	assert.Equal(t, []Card{
		{Label: "Total de Vendas", Value: "R$ 0,00"},
		{Label: "Qtd. de Registros", Value: "0"},
		{Label: "Média por Venda", Value: sales.NoDataPlaceholder},
	}, cards)
}

func TestToRowsUsesColumnRoles(t *testing.T) {
	roles := []sales.Role{sales.RoleDate, sales.RoleProduct, sales.RoleSeller, sales.RoleRegion, sales.RoleAmount, sales.RoleNone}
	record := sales.Record{
		Date:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Product: "Widget", Seller: "Alice", Region: "North",
		Amount: decimal.RequireFromString("1234.5"),
		Fields: []string{"2/1/2024", "Widget", "Alice", "North", "1234.5", "Loja A"},
	}
	rows := ToRows(roles, []sales.Record{record})
	assert.Equal(t, [][]string{{"02/01/2024", "Widget", "Alice", "North", "R$ 1.234,50", "Loja A"}}, rows)
}

func TestToOptionsMarksSelection(t *testing.T) {
	options := ToOptions([]string{"Gadget", "Widget"}, []string{"Widget"})
	assert.Equal(t, []Option{{Value: "Gadget"}, {Value: "Widget", Selected: true}}, options)
}

func TestSeries(t *testing.T) {
	series, labels := DateSeries([]sales.Group[time.Time]{{Key: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Sum: decimal.NewFromInt(25)}})
	assert.Equal(t, []float64{25}, series)
	assert.Equal(t, []string{"02/01"}, labels)

	series, labels = RegionSeries([]sales.Group[string]{{Key: "North", Sum: decimal.NewFromInt(125)}})
	assert.Equal(t, []float64{125}, series)
	assert.Equal(t, []string{"North"}, labels)
}
