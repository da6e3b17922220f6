package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func fakeSheets(t *testing.T, status int, values [][]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/values/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("valueRenderOption"); got != "FORMATTED_VALUE" {
			t.Errorf("valueRenderOption = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          "Sales!A1:F3",
			"majorDimension": "ROWS",
			"values":         values,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(context.Background(), "sheet-id", "", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadDataset(t *testing.T) {
	srv := fakeSheets(t, http.StatusOK, [][]interface{}{
		{"Date", "Region", "Category", "Sales", "Orders", "Profit"},
		{"03/01/2024", "North", "Electronics", "1,200", "3", "240"},
	})
	c := newTestClient(t, srv)

	data, source, err := c.ReadDataset(context.Background())
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}
	if source != "sheets:sheet-id/"+DefaultRange {
		t.Errorf("source = %q", source)
	}
	want := "Date,Region,Category,Sales,Orders,Profit\n03/01/2024,North,Electronics,\"1,200\",3,240\n"
	if string(data) != want {
		t.Errorf("data = %q, want %q", data, want)
	}
}

func TestReadDataset_APIError(t *testing.T) {
	srv := fakeSheets(t, http.StatusNotFound, nil)
	c := newTestClient(t, srv)

	if _, _, err := c.ReadDataset(context.Background()); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestReadDataset_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "x", readRange: DefaultRange}
	if _, _, err := c.ReadDataset(context.Background()); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}
