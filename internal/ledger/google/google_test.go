package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"agencycrm/internal/core"
	"agencycrm/internal/ledger"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Ledger")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	for _, k := range []string{"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE"} {
		t.Setenv(k, "")
	}
	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/sa.json")
	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Ledger", 2025, "2025 Ledger"},
		{"", 2023, ""},
		{"Payment Ledger", 2022, "2022 Payment Ledger"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.baseName, tt.year); got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestClient_AppendNotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Ledger", now: time.Now}
	if _, err := c.Append(context.Background(), ledger.Row{RecordID: "q1"}); err == nil {
		t.Fatal("expected error when service is nil")
	}
}

func TestClient_Append(t *testing.T) {
	var gotPath string
	var gotBody gsheet.ValueRange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			t.Errorf("valueInputOption = %q", r.URL.Query().Get("valueInputOption"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"updates":{"updatedRange":"'2025 Ledger'!A7:L7"}}`)
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	c := NewWithService(svc, "sheet-id", "")

	rec := core.Record{ID: "q1", Kind: core.KindQuotation, Student: "Asha", Course: []core.Course{{CourseFee: "2000"}}}
	row := ledger.NewRow(time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC), "payment.status_changed", rec, "admin@x")

	ref, err := c.Append(context.Background(), row)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "'2025 Ledger'!A7:L7" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != len(ledger.Header) {
		t.Fatalf("unexpected body %+v", gotBody.Values)
	}
	if gotBody.Values[0][3] != "q1" || gotBody.Values[0][8] != "2,000.00" {
		t.Errorf("unexpected cells %v", gotBody.Values[0])
	}
}
