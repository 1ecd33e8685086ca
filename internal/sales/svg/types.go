package svg

// LineOpts customises the daily sales line chart.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
	// MaxLabels caps how many x-axis labels are drawn; the rest are skipped evenly.
	MaxLabels int
}

// BarOpts customises the regional bar chart.
type BarOpts struct {
	Title       string
	Description string
	Color       string
	AxisColor   string
	GridColor   string
	LabelColor  string
	Padding     float64
	TickCount   int
	// ValueLabel renders the text drawn inside each bar. Nil disables the labels.
	ValueLabel func(float64) string
}

// Chart defaults.
const (
	DefaultWidth   = 720
	DefaultHeight  = 280
	DefaultPadding = 36.0
	DefaultTicks   = 5
	DefaultLabels  = 12

	EmptyMessage = "Sem dados"
)
