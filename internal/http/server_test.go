package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salesdash/internal/loader"
	"salesdash/internal/log"
	"salesdash/internal/report"
	"salesdash/internal/services"
	"salesdash/internal/session"
	"salesdash/internal/sheets"
	"salesdash/internal/sheets/memory"
)

const defaultCSV = `Date,Region,Category,Sales,Orders,Profit
01/01/2024,North,A,100,1,10
02/01/2024,South,B,"1,200",2,40
03/01/2024,North,B,300,3,-20
`

const uploadCSV = `Date,Region,Category,Sales,Orders,Profit
05/03/2024,East,C,50,5,5
`

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newTestServer(t *testing.T, reader sheets.DatasetReader) *Server {
	t.Helper()
	logger := quietLogger()
	sessions := session.NewStore(100, time.Hour, logger)
	svc := services.NewDashboardService(services.Options{
		Loader:   loader.New(nil, logger),
		Sessions: sessions,
		Default:  reader,
		Logger:   logger,
	})
	srv, err := NewServer(":0", Options{
		Service:        svc,
		Sessions:       sessions,
		MaxUploadBytes: 1 << 16,
		Logger:         logger,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("response set no %s cookie", session.CookieName)
	return nil
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{report.Title, "Using default sample data", "Total Sales", "₹1,600", "Download filtered CSV"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	c := sessionCookie(t, rr)
	if !c.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
}

func TestSecurityHeadersAndTracing(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "cdn.jsdelivr.net") {
		t.Errorf("CSP does not allow the chart CDN: %q", csp)
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q", rr.Header().Get("X-Frame-Options"))
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("X-Request-ID = %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestDashboardPartialFilters(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/ui/dashboard?region=North", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("partial should not contain the page shell")
	}
	if !strings.Contains(body, "2 of 3 rows") {
		t.Errorf("partial missing filtered count: %s", body)
	}
	if !strings.Contains(body, `<option value="North" selected>`) {
		t.Error("selected region not marked")
	}
	if !strings.Contains(body, `href="/export?region=North"`) {
		t.Error("export link does not carry the filter")
	}
	// headline KPIs describe the full dataset
	if !strings.Contains(body, "₹1,600") {
		t.Error("KPI should use the full dataset")
	}
}

func TestUploadReplacesDefault(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))

	first := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, first)

	req := newUploadRequest(t, UploadField, "march.csv", uploadCSV)
	req.Header.Set("HX-Request", "true")
	req.AddCookie(cookie)
	rr := serve(srv, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "dataset:loaded") {
		t.Errorf("HX-Trigger = %q", rr.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(rr.Body.String(), "march.csv") {
		t.Error("partial should name the uploaded file")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.AddCookie(cookie)
	rr = serve(srv, req)
	var summary summaryResponse
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.UsingDefault || summary.FullRows != 1 || summary.Full.TotalSales != 50 {
		t.Fatalf("summary = %+v", summary)
	}

	// another browser still sees the default
	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	summary = summaryResponse{}
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !summary.UsingDefault || summary.FullRows != 3 {
		t.Fatalf("other session summary = %+v", summary)
	}

	req = httptest.NewRequest(http.MethodPost, "/reset", nil)
	req.AddCookie(cookie)
	rr = serve(srv, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("reset status=%d", rr.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.AddCookie(cookie)
	rr = serve(srv, req)
	summary = summaryResponse{}
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !summary.UsingDefault {
		t.Fatal("reset should restore the default dataset")
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		content    string
		htmx       bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing column",
			filename:   "bad.csv",
			content:    "Date,Region,Category,Orders,Profit\n01/01/2024,N,A,1,1\n",
			htmx:       true,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Sales",
		},
		{
			name:       "bad date",
			filename:   "bad.csv",
			content:    "Date,Region,Category,Sales,Orders,Profit\n31/02/2024,N,A,1,1,1\n",
			htmx:       true,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "line 2",
		},
		{
			name:       "wrong extension",
			filename:   "bad.txt",
			content:    uploadCSV,
			htmx:       true,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Only .csv files are accepted",
		},
		{
			name:       "plain form post renders the page",
			filename:   "bad.csv",
			content:    "Date,Region\n",
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   report.Title,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))
			req := newUploadRequest(t, UploadField, tt.filename, tt.content)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rr := serve(srv, req)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d, want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q: %s", tt.wantBody, rr.Body.String())
			}
			if tt.htmx && rr.Header().Get("HX-Retarget") != targetUploadStatus {
				t.Errorf("HX-Retarget = %q", rr.Header().Get("HX-Retarget"))
			}
		})
	}
}

func TestUploadRequiresPOST(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/upload", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/export?category=B", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != report.ExportContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="filtered_data.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	want := "Date,Region,Category,Sales,Orders,Profit\n" +
		"02/01/2024,South,B,\"1,200\",2,40\n" +
		"03/01/2024,North,B,300,3,-20\n"
	if rr.Body.String() != want {
		t.Errorf("export body:\n%s\nwant:\n%s", rr.Body.String(), want)
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/export?category=Z", nil))
	if rr.Body.String() != "Date,Region,Category,Sales,Orders,Profit\n" {
		t.Errorf("empty export should keep the header, got %q", rr.Body.String())
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/export?format=pdf", nil))
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Errorf("pdf export status=%d prefix=%q", rr.Code, rr.Body.String()[:min(8, rr.Body.Len())])
	}
}

func TestAPICharts(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/charts?region=North", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var charts report.Charts
	if err := json.NewDecoder(rr.Body).Decode(&charts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if charts.Trend.ChartType != report.ChartLine || charts.ByCategory.ChartType != report.ChartBar {
		t.Fatalf("chart types = %q, %q", charts.Trend.ChartType, charts.ByCategory.ChartType)
	}
	if got := len(charts.Trend.Series[0].Data); got != 2 {
		t.Errorf("trend points = %d, want 2", got)
	}
	if got := len(charts.ByCategory.Series[0].Data); got != 2 {
		t.Errorf("category bars = %d, want 2", got)
	}
}

func TestAPISummary(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/summary?region=North&bogus=x", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got summaryResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.UsingDefault || got.Source != "data.csv" {
		t.Errorf("source = %q, using default = %v", got.Source, got.UsingDefault)
	}
	if got.FullRows != 3 || got.FilteredRows != 2 {
		t.Errorf("rows = %d/%d, want 2/3", got.FilteredRows, got.FullRows)
	}
	if got.Full.TotalSales != 1600 || got.Full.TotalOrders != 6 {
		t.Errorf("full = %+v", got.Full)
	}
	if got.Filtered.TotalSales != 400 || got.Filtered.TotalOrders != 4 || got.Filtered.TotalProfit != -10 {
		t.Errorf("filtered = %+v", got.Filtered)
	}
	if len(got.ByCategory) != 2 || got.ByCategory[0].Category != "A" {
		t.Errorf("by category = %+v", got.ByCategory)
	}
}

func TestLoadsWithoutHistory(t *testing.T) {
	srv := newTestServer(t, memory.New("data.csv", []byte(defaultCSV)))
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/loads", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestUnavailableDefault(t *testing.T) {
	srv := newTestServer(t, memory.New("missing.csv", nil))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "No data loaded") || !strings.Contains(body, "upload-form") {
		t.Errorf("page should explain and keep the upload form: %s", body)
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("summary status=%d", rr.Code)
	}
}
