package saleshttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/bitshop/salesdash/internal/platform/httpx"
	"github.com/bitshop/salesdash/internal/sales"
	"github.com/bitshop/salesdash/internal/sales/export"
	"github.com/bitshop/salesdash/internal/sales/svg"
	"github.com/bitshop/salesdash/internal/sales/ui"
	"github.com/bitshop/salesdash/internal/shared"
	"github.com/bitshop/salesdash/internal/view"
)

const (
	defaultRequestTimeout = 5 * time.Second
	pdfMaxRows            = 200
	queryDateISO          = "2006-01-02"
	queryDateBR           = "02/01/2006"
	xlsxMIME              = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SalesService defines the pipeline contract used by the handler.
type SalesService interface {
	Dataset() *sales.Dataset
	Schema() sales.Schema
	DefaultCriteria() sales.Criteria
	Filter(criteria sales.Criteria) []sales.Record
	BuildView(ctx context.Context, criteria sales.Criteria) (sales.View, error)
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Options carries presentation settings.
type Options struct {
	Title          string
	PageSize       int
	ExportFilename string
	RequestTimeout time.Duration
}

// Handler coordinates HTTP requests for the sales dashboard.
type Handler struct {
	logger    *slog.Logger
	service   SalesService
	templates *view.Engine
	line      ui.LineRenderer
	bar       ui.BarRenderer
	pdf       PDFService
	opts      Options
	validate  *validator.Validate
	bufPool   sync.Pool
}

// NewHandler constructs the sales HTTP handler. A nil pdf disables the PDF export.
func NewHandler(logger *slog.Logger, service SalesService, templates *view.Engine, line ui.LineRenderer, bar ui.BarRenderer, pdf PDFService, opts Options) *Handler {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.ExportFilename == "" {
		opts.ExportFilename = "vendas_filtradas.xlsx"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Title == "" {
		opts.Title = "Vendas Bit Shop"
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		line:      line,
		bar:       bar,
		pdf:       pdf,
		opts:      opts,
		validate:  newValidator(),
	}
	h.bufPool.New = func() any { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	criteria, page, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	v, err := h.service.BuildView(ctx, criteria)
	if err != nil {
		h.handleServerError(w, "build view", err)
		return
	}

	vm, err := h.buildViewModel(ctx, v, page)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	data := view.TemplateData{
		Title:       h.opts.Title,
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

type apiCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type apiView struct {
	Criteria   sales.Criteria           `json:"criteria"`
	Indicators sales.Indicators         `json:"indicators"`
	Cards      []apiCard                `json:"cards"`
	ByDate     []sales.Group[time.Time] `json:"by_date"`
	ByRegion   []sales.Group[string]    `json:"by_region"`
	Records    []sales.Record           `json:"records"`
	Page       int                      `json:"page"`
	TotalPages int                      `json:"total_pages"`
	Total      int                      `json:"total"`
}

func (h *Handler) handleAPIView(w http.ResponseWriter, r *http.Request) {
	criteria, page, err := h.parseFilters(r)
	if err != nil {
		h.respondAPIError(w, "parse filters", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	v, err := h.service.BuildView(ctx, criteria)
	if err != nil {
		if errors.Is(err, sales.ErrNoDataset) {
			err = fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
		}
		h.respondAPIError(w, "build view", err)
		return
	}

	pagination := shared.NewPagination(page, h.opts.PageSize, len(v.Records))
	start, end := pagination.Bounds()
	cards := make([]apiCard, 0, 3)
	for _, card := range ui.ToCards(v.Indicators) {
		cards = append(cards, apiCard{Label: card.Label, Value: card.Value})
	}
	httpx.JSON(w, http.StatusOK, apiView{
		Criteria:   v.Criteria,
		Indicators: v.Indicators,
		Cards:      cards,
		ByDate:     v.ByDate,
		ByRegion:   v.ByRegion,
		Records:    v.Records[start:end],
		Page:       pagination.Page,
		TotalPages: pagination.TotalPages,
		Total:      pagination.Total,
	})
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	records := h.service.Filter(criteria)
	columns, roles := h.layout()

	buf := h.getBuffer()
	defer h.putBuffer(buf)

	if err := export.WriteXLSX(buf, columns, roles, records); err != nil {
		h.handleServerError(w, "write xlsx", err)
		return
	}
	h.attach(w, xlsxMIME, h.opts.ExportFilename, buf.Bytes())
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	records := h.service.Filter(criteria)
	columns, roles := h.layout()

	buf := h.getBuffer()
	defer h.putBuffer(buf)

	if err := export.WriteRecordsCSV(buf, columns, roles, records); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	h.attach(w, "text/csv; charset=utf-8", swapExt(h.opts.ExportFilename, ".csv"), buf.Bytes())
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		http.Error(w, "Exportação PDF indisponível", http.StatusServiceUnavailable)
		return
	}
	criteria, _, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 6*h.opts.RequestTimeout)
	defer cancel()

	v, err := h.service.BuildView(ctx, criteria)
	if err != nil {
		h.handleServerError(w, "build view", err)
		return
	}
	columns, roles := h.layout()
	rows := v.Records
	if len(rows) > pdfMaxRows {
		rows = rows[:pdfMaxRows]
	}
	payload := export.DashboardPayload{
		Title:   h.opts.Title,
		Scope:   describeCriteria(v.Criteria),
		Summary: v.Summary,
		Columns: columns,
		Rows:    ui.ToRows(roles, rows),
		MaxRows: pdfMaxRows,
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}
	h.attach(w, "application/pdf", swapExt(h.opts.ExportFilename, ".pdf"), pdfBytes)
}

func (h *Handler) attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if _, err := w.Write(body); err != nil {
		h.logError("stream "+filename, err)
	}
}

func (h *Handler) getBuffer() *bytes.Buffer {
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (h *Handler) putBuffer(buf *bytes.Buffer) {
	buf.Reset()
	h.bufPool.Put(buf)
}

func (h *Handler) layout() ([]string, []sales.Role) {
	ds := h.service.Dataset()
	if ds == nil {
		return sales.NewDataset(nil, nil, nil, "").Layout()
	}
	return ds.Layout()
}

type filterForm struct {
	Products []string `validate:"max=500,dive,max=200"`
	Sellers  []string `validate:"max=500,dive,max=200"`
	Start    string   `validate:"omitempty,civildate"`
	End      string   `validate:"omitempty,civildate"`
	Page     int      `validate:"gte=1"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("civildate", func(fl validator.FieldLevel) bool {
		_, err := parseQueryDate(fl.Field().String())
		return err == nil
	})
	return v
}

// parseFilters reads the filter state from the query string. Missing dates
// default to the dataset span so the unfiltered view shares its cache entry
// with the warmup job.
func (h *Handler) parseFilters(r *http.Request) (sales.Criteria, int, error) {
	q := r.URL.Query()
	form := filterForm{
		Products: nonEmpty(q["produto"]),
		Sellers:  nonEmpty(q["vendedor"]),
		Start:    strings.TrimSpace(q.Get("inicio")),
		End:      strings.TrimSpace(q.Get("fim")),
		Page:     1,
	}
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return sales.Criteria{}, 0, validationError{field: "page"}
		}
		form.Page = page
	}
	if err := h.validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return sales.Criteria{}, 0, validationError{field: fieldErrs[0].Field()}
		}
		return sales.Criteria{}, 0, err
	}

	criteria := h.service.DefaultCriteria()
	criteria.Products = form.Products
	criteria.Sellers = form.Sellers
	if form.Start != "" {
		criteria.Start, _ = parseQueryDate(form.Start)
	}
	if form.End != "" {
		criteria.End, _ = parseQueryDate(form.End)
	}
	return h.service.Schema().Constrain(criteria), form.Page, nil
}

func (h *Handler) buildViewModel(ctx context.Context, v sales.View, page int) (ui.DashboardViewModel, error) {
	if h.line == nil || h.bar == nil {
		return ui.DashboardViewModel{}, fmt.Errorf("svg renderer missing")
	}
	vm := ui.DashboardViewModel{
		Title: h.opts.Title,
		Cards: ui.ToCards(v.Indicators),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(v.ByDate) == 0 {
			vm.DateChartSVG = svg.Empty(svg.DefaultWidth, svg.DefaultHeight, "Vendas por data")
			return nil
		}
		series, labels := ui.DateSeries(v.ByDate)
		html, err := h.line.Line(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.LineOpts{
			Title:       "Vendas por data",
			Description: "Total vendido por dia",
			ShowDots:    true,
		})
		vm.DateChartSVG = html
		return err
	})
	g.Go(func() error {
		if len(v.ByRegion) == 0 {
			vm.RegionChartSVG = svg.Empty(svg.DefaultWidth, svg.DefaultHeight, "Vendas por região")
			return nil
		}
		series, labels := ui.RegionSeries(v.ByRegion)
		html, err := h.bar.Bars(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.BarOpts{
			Title:       "Vendas por região",
			Description: "Total vendido por região",
			ValueLabel:  sales.FormatCurrencyFloat,
		})
		vm.RegionChartSVG = html
		return err
	})
	if err := g.Wait(); err != nil {
		return ui.DashboardViewModel{}, err
	}

	ds := h.service.Dataset()
	schema := h.service.Schema()
	vm.Filters = ui.FilterForm{
		ShowProducts: schema.Enabled(sales.DimensionProduct),
		ShowSellers:  schema.Enabled(sales.DimensionSeller),
		MultiSelect:  schema.MultiSelect,
		Start:        formatQueryDate(v.Criteria.Start),
		End:          formatQueryDate(v.Criteria.End),
	}
	if ds != nil {
		vm.Filters.Products = ui.ToOptions(ds.Products(), v.Criteria.Products)
		vm.Filters.Sellers = ui.ToOptions(ds.Sellers(), v.Criteria.Sellers)
		vm.Filters.MinDate = formatQueryDate(ds.MinDate())
		vm.Filters.MaxDate = formatQueryDate(ds.MaxDate())
	}

	columns, roles := h.layout()
	pagination := shared.NewPagination(page, h.opts.PageSize, len(v.Records))
	start, end := pagination.Bounds()
	vm.Table = ui.Table{
		Columns:    columns,
		Rows:       ui.ToRows(roles, v.Records[start:end]),
		Pagination: pagination,
	}
	if pagination.HasPrev() {
		vm.Table.PrevURL = "/?" + encodeFilters(v.Criteria, pagination.PrevPage())
	}
	if pagination.HasNext() {
		vm.Table.NextURL = "/?" + encodeFilters(v.Criteria, pagination.NextPage())
	}

	query := encodeFilters(v.Criteria, 0)
	vm.Exports = ui.ExportLinks{
		XLSX: withQuery("/export.xlsx", query),
		CSV:  withQuery("/export.csv", query),
	}
	if h.pdf != nil {
		vm.Exports.PDF = withQuery("/export.pdf", query)
	}
	return vm, nil
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		http.Error(w, "Parâmetro inválido", http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) respondAPIError(w http.ResponseWriter, context string, err error) {
	if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrUnavailable) {
		h.logError(context, err)
	}
	httpx.RespondError(w, err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

func (v validationError) Unwrap() error {
	return httpx.ErrValidation
}

func parseQueryDate(value string) (time.Time, error) {
	for _, layout := range []string{queryDateISO, queryDateBR} {
		if t, err := time.Parse(layout, value); err == nil {
			return sales.Civil(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func formatQueryDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(queryDateISO)
}

func encodeFilters(c sales.Criteria, page int) string {
	values := url.Values{}
	for _, p := range c.Products {
		values.Add("produto", p)
	}
	for _, s := range c.Sellers {
		values.Add("vendedor", s)
	}
	if !c.Start.IsZero() {
		values.Set("inicio", formatQueryDate(c.Start))
	}
	if !c.End.IsZero() {
		values.Set("fim", formatQueryDate(c.End))
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	return values.Encode()
}

func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

func describeCriteria(c sales.Criteria) string {
	parts := make([]string, 0, 3)
	if len(c.Products) > 0 {
		parts = append(parts, "Produtos: "+strings.Join(c.Products, ", "))
	}
	if len(c.Sellers) > 0 {
		parts = append(parts, "Vendedores: "+strings.Join(c.Sellers, ", "))
	}
	if !c.Start.IsZero() || !c.End.IsZero() {
		parts = append(parts, fmt.Sprintf("Período: %s a %s", ui.FormatDate(c.Start), ui.FormatDate(c.End)))
	}
	if len(parts) == 0 {
		return "Todos os registros"
	}
	return strings.Join(parts, " · ")
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func swapExt(filename, ext string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i] + ext
	}
	return filename + ext
}
