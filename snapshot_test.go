package main

import (
	"errors"
	"testing"
	"time"
)

func testRecords() []DocumentRecord {
	return []DocumentRecord{
		{
			Plate:         "ABC123",
			EventType:     EventInspection,
			ExpiryDate:    civilDate(2025, time.June, 10),
			DocumentLinks: []string{"https://example.com/doc1"},
			RecordedAt:    civilDate(2025, time.May, 1),
		},
		{
			Plate:      "XYZ789",
			EventType:  EventInsurance,
			ExpiryDate: civilDate(2025, time.July, 1),
			RecordedAt: civilDate(2025, time.May, 2),
		},
	}
}

func TestSnapshotReplaceRoundTrip(t *testing.T) {
	t.Parallel()
	store := NewSnapshotStore(newTestDB(t))

	if err := store.Replace(testRecords()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	if records[0].Plate != "ABC123" || len(records[0].DocumentLinks) != 1 {
		t.Errorf("first record mangled: %+v", records[0])
	}

	syncedAt, err := store.LastSyncedAt()
	if err != nil {
		t.Fatalf("LastSyncedAt: %v", err)
	}
	if syncedAt.IsZero() {
		t.Error("sync time not stamped")
	}
}

func TestSnapshotReplaceIsWholesale(t *testing.T) {
	t.Parallel()
	store := NewSnapshotStore(newTestDB(t))

	if err := store.Replace(testRecords()); err != nil {
		t.Fatalf("first Replace: %v", err)
	}
	// Second sync no longer contains XYZ789.
	if err := store.Replace(testRecords()[:1]); err != nil {
		t.Fatalf("second Replace: %v", err)
	}
	plates, err := store.Plates()
	if err != nil {
		t.Fatalf("Plates: %v", err)
	}
	if len(plates) != 1 || plates[0] != "ABC123" {
		t.Errorf("plates after wholesale replace: %v", plates)
	}
}

func TestSnapshotExclusion(t *testing.T) {
	t.Parallel()
	store := NewSnapshotStore(newTestDB(t))

	if err := store.Replace(testRecords()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := store.Exclude("ABC123", "boss"); err != nil {
		t.Fatalf("Exclude: %v", err)
	}
	// Idempotent.
	if err := store.Exclude("ABC123", "boss"); err != nil {
		t.Fatalf("second Exclude: %v", err)
	}

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	for _, r := range records {
		if r.Plate == "ABC123" {
			t.Error("excluded plate still in engine feed")
		}
	}
	if _, err := store.PlateEvents("ABC123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("lookup of excluded plate: got %v, want ErrNotFound", err)
	}

	// Exclusion survives a re-sync.
	if err := store.Replace(testRecords()); err != nil {
		t.Fatalf("re-sync: %v", err)
	}
	plates, err := store.Plates()
	if err != nil {
		t.Fatalf("Plates: %v", err)
	}
	if len(plates) != 1 || plates[0] != "XYZ789" {
		t.Errorf("plates after re-sync: %v", plates)
	}

	if err := store.Restore("ABC123"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := store.PlateEvents("ABC123"); err != nil {
		t.Errorf("lookup after restore: %v", err)
	}
}

func TestSnapshotExcludeUnknownPlate(t *testing.T) {
	t.Parallel()
	store := NewSnapshotStore(newTestDB(t))
	if err := store.Replace(testRecords()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := store.Exclude("NOPE42", "boss"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Exclude unknown: got %v, want ErrNotFound", err)
	}
	if err := store.Restore("NOPE42"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Restore unknown: got %v, want ErrNotFound", err)
	}
}

func TestSnapshotPlateEvents(t *testing.T) {
	t.Parallel()
	store := NewSnapshotStore(newTestDB(t))
	if err := store.Replace(testRecords()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	events, err := store.PlateEvents("ABC123")
	if err != nil {
		t.Fatalf("PlateEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventType != EventInspection {
		t.Errorf("events: %+v", events)
	}
	if _, err := store.PlateEvents("GHOST1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown plate: got %v, want ErrNotFound", err)
	}
}
