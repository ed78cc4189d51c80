package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sheetHeader = "Timestamp,Transport priemonė,Įvykis,Galiojimo terminas,Dokumentas,Dokumentas 2\n"

func serveCSV(t *testing.T, body string) *SheetSource {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewSheetSource(server.URL, time.Second, 1)
}

func TestFetchParsesRows(t *testing.T) {
	t.Parallel()
	source := serveCSV(t, sheetHeader+
		"5/1/2025 10:30:00,abc 123,TA galiojimas,6/10/2025,https://example.com/doc1,https://example.com/doc2\n"+
		"5/2/2025 11:00:00,XYZ789,CA draudimas iki,7/1/25,,\n")

	records, skipped, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped: got %d, want 0", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}

	first := records[0]
	if first.Plate != "ABC123" {
		t.Errorf("plate not normalized: %q", first.Plate)
	}
	if first.EventType != EventInspection {
		t.Errorf("event: got %q, want %q", first.EventType, EventInspection)
	}
	if !first.ExpiryDate.Equal(civilDate(2025, time.June, 10)) {
		t.Errorf("expiry: got %v", first.ExpiryDate)
	}
	if len(first.DocumentLinks) != 2 {
		t.Errorf("links: got %v", first.DocumentLinks)
	}
	if first.RecordedAt.IsZero() {
		t.Error("timestamp not parsed")
	}

	second := records[1]
	if !second.ExpiryDate.Equal(civilDate(2025, time.July, 1)) {
		t.Errorf("two-digit-year expiry: got %v", second.ExpiryDate)
	}
	if len(second.DocumentLinks) != 0 {
		t.Errorf("links: got %v, want none", second.DocumentLinks)
	}
}

func TestFetchSkipsMalformedRows(t *testing.T) {
	t.Parallel()
	source := serveCSV(t, sheetHeader+
		",,TA galiojimas,6/10/2025,,\n"+ // missing plate
		"5/1/2025 10:30:00,ABC123,Nežinomas įvykis,6/10/2025,,\n"+ // unknown event
		"5/1/2025 10:30:00,ABC123,TA galiojimas,not-a-date,,\n"+ // bad expiry
		"5/1/2025 10:30:00,DEF456,TA galiojimas,6/10/2025,,\n") // good

	records, skipped, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if skipped != 3 {
		t.Errorf("skipped: got %d, want 3", skipped)
	}
	if len(records) != 1 || records[0].Plate != "DEF456" {
		t.Errorf("records: got %+v, want the single good row", records)
	}
}

func TestFetchKeepsEmptyExpiry(t *testing.T) {
	t.Parallel()
	source := serveCSV(t, sheetHeader+
		"5/1/2025 10:30:00,ABC123,TA galiojimas,,,\n")

	records, skipped, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped: got %d, want 0", skipped)
	}
	if len(records) != 1 || !records[0].ExpiryDate.IsZero() {
		t.Errorf("records: got %+v, want one record with zero expiry", records)
	}
}

func TestFetchRetriesThenFails(t *testing.T) {
	t.Parallel()
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	source := NewSheetSource(server.URL, time.Second, 3)
	_, _, err := source.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Fetch: got %v, want ErrSourceUnavailable", err)
	}
	if hits != 3 {
		t.Errorf("attempts: got %d, want 3", hits)
	}
}

func TestFetchRecoversOnRetry(t *testing.T) {
	t.Parallel()
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(sheetHeader + "5/1/2025 10:30:00,ABC123,TA galiojimas,6/10/2025,,\n"))
	}))
	t.Cleanup(server.Close)

	source := NewSheetSource(server.URL, time.Second, 3)
	records, _, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records: got %d, want 1", len(records))
	}
}

func TestFetchHonorsTimeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	source := NewSheetSource(server.URL, 50*time.Millisecond, 1)
	start := time.Now()
	_, _, err := source.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Fetch: got %v, want ErrSourceUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("fetch blocked for %v despite timeout", elapsed)
	}
}

func TestParseSheetDateFormats(t *testing.T) {
	t.Parallel()
	got, err := parseSheetDate("06/10/2025")
	if err != nil || !got.Equal(civilDate(2025, time.June, 10)) {
		t.Errorf("MM/DD/YYYY: got %v, %v", got, err)
	}
	got, err = parseSheetDate("6/1/25")
	if err != nil || !got.Equal(civilDate(2025, time.June, 1)) {
		t.Errorf("M/D/YY: got %v, %v", got, err)
	}
	if _, err := parseSheetDate("2025-06-10"); err == nil {
		t.Error("ISO date accepted, want error")
	}
	if !strings.Contains(sheetHeader, colPlate) {
		t.Fatal("test fixture out of sync with sheet headers")
	}
}
