package saleshttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bitshop/salesdash/internal/sales"
	"github.com/bitshop/salesdash/internal/sales/export"
	"github.com/bitshop/salesdash/internal/sales/svg"
	"github.com/bitshop/salesdash/internal/view"
)

const fixtureCSV = "data,produto,vendedor,região,total\n" +
	"01/01/2024,Widget,Alice,North,100.00\n" +
	"01/01/2024,Gadget,Bob,South,50.00\n" +
	"02/01/2024,Widget,Alice,North,25.75\n"

type stubPDF struct {
	data []byte
	err  error
	last export.DashboardPayload
}

func (s *stubPDF) RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error) {
	s.last = payload
	if s.data == nil {
		s.data = []byte("%PDF-1.4\n")
	}
	return s.data, s.err
}

type lineAdapter func(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)

type barAdapter func(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error)

func (a lineAdapter) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return a(width, height, series, labels, opts)
}

func (a barAdapter) Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return a(width, height, series, labels, opts)
}

func newTestHandler(t *testing.T, pdf PDFService, opts Options) *Handler {
	t.Helper()
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	ds, err := sales.ParseDataset(strings.NewReader(fixtureCSV), sales.LoadOptions{Encoding: "utf-8"})
	if err != nil {
		t.Fatalf("parse dataset: %v", err)
	}
	service := sales.NewService(ds, sales.DefaultSchema(), nil)
	return NewHandler(nil, service, templates, lineAdapter(svg.Line), barAdapter(svg.Bars), pdf, opts)
}

func TestDashboardSuccess(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Vendas Bit Shop") {
		t.Fatalf("expected dashboard title in response")
	}
	if !strings.Contains(body, "R$ 175,75") {
		t.Fatalf("expected formatted total in response: %s", body)
	}
	if !strings.Contains(body, "<svg") {
		t.Fatalf("expected inline charts")
	}
	if strings.Contains(body, "export.pdf") {
		t.Fatalf("pdf link should be hidden when pdf rendering is disabled")
	}
}

func TestDashboardFiltersByProduct(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/?produto=Widget", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "R$ 125,75") {
		t.Fatalf("expected filtered total: %s", body)
	}
	if strings.Contains(body, "<td>Gadget</td>") {
		t.Fatalf("filtered out product leaked into the table")
	}
}

func TestDashboardInvertedRangeShowsPlaceholders(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/?inicio=05/01/2024&fim=2024-01-01", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, sales.NoDataPlaceholder) {
		t.Fatalf("expected mean placeholder")
	}
	if !strings.Contains(body, svg.EmptyMessage) {
		t.Fatalf("expected empty chart placeholder")
	}
	if !strings.Contains(body, "R$ 0,00") {
		t.Fatalf("expected zero total")
	}
}

func TestDashboardPagination(t *testing.T) {
	handler := newTestHandler(t, nil, Options{PageSize: 1})
	req := httptest.NewRequest(http.MethodGet, "/?page=2", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Página 2 de 3") {
		t.Fatalf("expected page indicator: %s", body)
	}
	if !strings.Contains(body, "page=3") {
		t.Fatalf("expected next page link")
	}
	if !strings.Contains(body, "<td>Gadget</td>") {
		t.Fatalf("expected second record on page 2")
	}
}

func TestInvalidFilterReturnsBadRequest(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	for _, query := range []string{"inicio=2024-13-01", "fim=ontem", "page=0", "page=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		rr := httptest.NewRecorder()
		handler.handleDashboard(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rr.Code)
		}
	}
}

func TestAPIView(t *testing.T) {
	handler := newTestHandler(t, nil, Options{PageSize: 2})
	req := httptest.NewRequest(http.MethodGet, "/api/view?vendedor=Alice", nil)
	rr := httptest.NewRecorder()
	handler.handleAPIView(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Total      int `json:"total"`
		Indicators struct {
			Total string `json:"total"`
			Count int    `json:"count"`
		} `json:"indicators"`
		ByRegion []struct {
			Key string `json:"key"`
		} `json:"by_region"`
		Records []json.RawMessage `json:"records"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 2 || payload.Indicators.Count != 2 {
		t.Fatalf("unexpected counts: %+v", payload)
	}
	if payload.Indicators.Total != "125.75" {
		t.Fatalf("unexpected total %s", payload.Indicators.Total)
	}
	if len(payload.ByRegion) != 1 || payload.ByRegion[0].Key != "North" {
		t.Fatalf("unexpected regions %+v", payload.ByRegion)
	}
}

func TestAPIViewInvalidFilter(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/api/view?inicio=x", nil)
	rr := httptest.NewRecorder()
	handler.handleAPIView(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %s", ct)
	}
}

func TestXLSXExport(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/export.xlsx?produto=Widget", nil)
	rr := httptest.NewRecorder()
	handler.handleXLSX(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != xlsxMIME {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "vendas_filtradas.xlsx") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	header, records, err := export.ReadXLSX(bytes.NewReader(rr.Body.Bytes()), sales.DefaultColumns())
	if err != nil {
		t.Fatalf("read xlsx: %v", err)
	}
	if len(header) != 5 || len(records) != 2 {
		t.Fatalf("expected header and 2 rows, got %v and %d rows", header, len(records))
	}
	for _, record := range records {
		if record.Product != "Widget" {
			t.Fatalf("unexpected product %s", record.Product)
		}
	}
}

func TestCSVExport(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/export.csv?vendedor=Bob", nil)
	rr := httptest.NewRecorder()
	handler.handleCSV(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "vendas_filtradas.csv") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "01/01/2024,Gadget,Bob,South,50") {
		t.Fatalf("expected Bob's row in CSV: %s", body)
	}
	if strings.Contains(body, "Alice") {
		t.Fatalf("unexpected seller in CSV")
	}
}

func TestPDFExportDisabled(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/export.pdf", nil)
	rr := httptest.NewRecorder()
	handler.handlePDF(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestPDFExport(t *testing.T) {
	pdf := &stubPDF{}
	handler := newTestHandler(t, pdf, Options{})
	req := httptest.NewRequest(http.MethodGet, "/export.pdf?produto=Widget", nil)
	rr := httptest.NewRecorder()
	handler.handlePDF(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !strings.Contains(pdf.last.Scope, "Widget") {
		t.Fatalf("expected scope to name the product, got %q", pdf.last.Scope)
	}
	if len(pdf.last.Rows) != 2 {
		t.Fatalf("expected 2 rows in payload, got %d", len(pdf.last.Rows))
	}
}

func TestPDFExportRendererFailure(t *testing.T) {
	handler := newTestHandler(t, &stubPDF{err: errors.New("gotenberg down")}, Options{})
	req := httptest.NewRequest(http.MethodGet, "/export.pdf", nil)
	rr := httptest.NewRecorder()
	handler.handlePDF(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestExportRateLimited(t *testing.T) {
	handler := newTestHandler(t, nil, Options{})
	router := chi.NewRouter()
	handler.MountRoutes(router)

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodGet, "/export.csv", nil)
		req.RemoteAddr = "192.0.2.10:4242"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after ten exports, got %d", last)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4242"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard should not share the export limit, got %d", rr.Code)
	}
}

func TestAPIViewWithoutDataset(t *testing.T) {
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	service := sales.NewService(nil, sales.DefaultSchema(), nil)
	handler := NewHandler(nil, service, templates, lineAdapter(svg.Line), barAdapter(svg.Bars), nil, Options{})
	rr := httptest.NewRecorder()
	handler.handleAPIView(rr, httptest.NewRequest(http.MethodGet, "/api/view", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
