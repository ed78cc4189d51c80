package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Sheet column headings, as produced by the fleet's response form.
const (
	colPlate      = "Transport priemonė"
	colEvent      = "Įvykis"
	colExpiry     = "Galiojimo terminas"
	colDoc1       = "Dokumentas"
	colDoc2       = "Dokumentas 2"
	colTimestamp  = "Timestamp"
	colTimestamp2 = "Laiko žyma"
)

// SheetSource reads document records from the spreadsheet's CSV export
// URL. Each fetch is bounded by the client timeout and retried a small
// fixed number of times before the run is declared failed.
type SheetSource struct {
	url      string
	client   *http.Client
	attempts int
}

func NewSheetSource(url string, timeout time.Duration, attempts int) *SheetSource {
	if attempts < 1 {
		attempts = 1
	}
	return &SheetSource{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
	}
}

// Fetch returns the full current record set plus the count of malformed
// rows that were skipped. A total failure returns ErrSourceUnavailable;
// nothing is partially applied.
func (s *SheetSource) Fetch(ctx context.Context) ([]DocumentRecord, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		body, err := s.fetchBody(ctx)
		if err != nil {
			lastErr = err
			log.Printf("sheet fetch attempt %d/%d failed: %v", attempt, s.attempts, err)
			continue
		}
		records, skipped, err := parseSheetCSV(body)
		body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return records, skipped, nil
	}
	return nil, 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, lastErr)
}

func (s *SheetSource) fetchBody(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// parseSheetCSV maps CSV rows to DocumentRecords by header name. Rows
// missing a plate or event, with an unknown event heading, or carrying an
// unparseable expiry date are skipped and counted. An empty expiry cell is
// kept (zero date) so the plate still shows up in lookups.
func parseSheetCSV(r io.Reader) ([]DocumentRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading sheet header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []DocumentRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		plate := normalizePlate(field(row, colPlate))
		event, knownEvent := normalizeEvent(field(row, colEvent))
		if plate == "" || !knownEvent {
			skipped++
			continue
		}

		var expiry time.Time
		if raw := field(row, colExpiry); raw != "" {
			expiry, err = parseSheetDate(raw)
			if err != nil {
				skipped++
				continue
			}
		}

		recordedAt, _ := parseSheetTimestamp(firstNonEmpty(
			field(row, colTimestamp), field(row, colTimestamp2)))

		var links []string
		for _, col := range []string{colDoc1, colDoc2} {
			if link := field(row, col); link != "" {
				links = append(links, link)
			}
		}

		records = append(records, DocumentRecord{
			Plate:         plate,
			EventType:     event,
			ExpiryDate:    expiry,
			DocumentLinks: links,
			RecordedAt:    recordedAt,
		})
	}
	return records, skipped, nil
}

// parseSheetDate accepts the form's MM/DD/YYYY and MM/DD/YY date formats.
func parseSheetDate(raw string) (time.Time, error) {
	for _, layout := range []string{"1/2/2006", "1/2/06"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return asCivilDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func parseSheetTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("1/2/2006 15:04:05", raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
