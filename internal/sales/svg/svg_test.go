package svg

import (
	"strings"
	"testing"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{100, 25}, []string{"01/01", "02/01"}, LineOpts{
		Title:    "Vendas por data",
		ShowDots: true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") || !strings.Contains(output, "<circle") {
		t.Fatalf("expected path and dots in svg")
	}
	if !strings.Contains(output, "aria-labelledby=\"vendas-por-data-line-title") {
		t.Fatalf("expected accessibility attributes, got %s", output)
	}
}

func TestLineSkipsLabels(t *testing.T) {
	series := make([]float64, 30)
	labels := make([]string, 30)
	for i := range series {
		series[i] = float64(i)
		labels[i] = "d" + string(rune('A'+i%26))
	}
	html, err := Line(0, 0, series, labels, LineOpts{MaxLabels: 10})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	if got := strings.Count(string(html), "text-anchor=\"middle\""); got != 10 {
		t.Fatalf("expected 10 x labels, got %d", got)
	}
}

func TestLineRejectsMismatch(t *testing.T) {
	if _, err := Line(0, 0, []float64{1}, nil, LineOpts{}); err == nil {
		t.Fatal("expected mismatch error")
	}
	if _, err := Line(0, 0, nil, nil, LineOpts{}); err == nil {
		t.Fatal("expected empty series error")
	}
}

func TestBarsDrawsValueLabels(t *testing.T) {
	html, err := Bars(420, 220, []float64{125, 50}, []string{"North", "South"}, BarOpts{
		Title:      "Vendas por região",
		ValueLabel: func(v float64) string { return "R$ " + formatTick(v) },
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "<rect") != 2 {
		t.Fatalf("expected one bar per region, got %s", output)
	}
	if !strings.Contains(output, "R$ 125") || !strings.Contains(output, "R$ 50") {
		t.Fatalf("expected in-bar labels, got %s", output)
	}
	if !strings.Contains(output, ">North<") {
		t.Fatalf("expected category label")
	}
}

func TestEmptyPlaceholder(t *testing.T) {
	output := string(Empty(0, 0, "Vendas por região"))
	if !strings.Contains(output, EmptyMessage) {
		t.Fatalf("expected placeholder text, got %s", output)
	}
}

func TestFormatTick(t *testing.T) {
	cases := map[float64]string{0: "0", 12.5: "12,50", 1500: "1,5mil", 2_500_000: "2,5mi"}
	for in, want := range cases {
		if got := formatTick(in); got != want {
			t.Fatalf("formatTick(%v) = %q, want %q", in, got, want)
		}
	}
}
