package main

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SnapshotStore persists the latest synced copy of the sheet so the
// interactive commands work without another fetch, plus the admin-managed
// plate exclusion list.
type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Replace swaps the whole snapshot for the given record set in one
// transaction and stamps the sync time. Exclusions survive the swap.
func (s *SnapshotStore) Replace(records []DocumentRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&VehicleEvent{}).Error; err != nil {
			return err
		}
		for _, r := range records {
			event := VehicleEvent{
				Plate:      r.Plate,
				EventType:  string(r.EventType),
				RecordedAt: r.RecordedAt,
			}
			if !r.ExpiryDate.IsZero() {
				expiry := r.ExpiryDate
				event.ExpiryDate = &expiry
			}
			if len(r.DocumentLinks) > 0 {
				event.DocLink1 = r.DocumentLinks[0]
			}
			if len(r.DocumentLinks) > 1 {
				event.DocLink2 = r.DocumentLinks[1]
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
		state := SyncState{ID: 1}
		if err := tx.Where(SyncState{ID: 1}).FirstOrCreate(&state).Error; err != nil {
			return err
		}
		return tx.Model(&SyncState{}).Where("id = 1").
			Update("last_synced_at", time.Now()).Error
	})
}

// Records returns the snapshot minus excluded plates, ready for the
// decision engine.
func (s *SnapshotStore) Records() ([]DocumentRecord, error) {
	var events []VehicleEvent
	err := s.db.
		Where("plate NOT IN (?)", s.db.Model(&ExcludedPlate{}).Select("plate")).
		Order("plate asc, event_type asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	records := make([]DocumentRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, ev.toRecord())
	}
	return records, nil
}

// Plates lists the distinct non-excluded plates in the snapshot.
func (s *SnapshotStore) Plates() ([]string, error) {
	var plates []string
	err := s.db.Model(&VehicleEvent{}).
		Where("plate NOT IN (?)", s.db.Model(&ExcludedPlate{}).Select("plate")).
		Distinct("plate").
		Order("plate asc").
		Pluck("plate", &plates).Error
	return plates, err
}

// PlateEvents returns all snapshot rows for one plate, or ErrNotFound if
// the plate is unknown or excluded.
func (s *SnapshotStore) PlateEvents(plate string) ([]DocumentRecord, error) {
	var excluded int64
	if err := s.db.Model(&ExcludedPlate{}).Where("plate = ?", plate).Count(&excluded).Error; err != nil {
		return nil, err
	}
	if excluded > 0 {
		return nil, ErrNotFound
	}
	var events []VehicleEvent
	err := s.db.Where("plate = ?", plate).Order("event_type asc").Find(&events).Error
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	records := make([]DocumentRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, ev.toRecord())
	}
	return records, nil
}

// LastSyncedAt returns the zero time if no sync has succeeded yet.
func (s *SnapshotStore) LastSyncedAt() (time.Time, error) {
	var state SyncState
	err := s.db.First(&state, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return state.LastSyncedAt, nil
}

// Exclude hides a plate from reminders and lookups. Idempotent.
func (s *SnapshotStore) Exclude(plate, by string) error {
	var count int64
	if err := s.db.Model(&VehicleEvent{}).Where("plate = ?", plate).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	entry := ExcludedPlate{Plate: plate, ExcludedAt: time.Now(), ExcludedBy: by}
	err := s.db.Create(&entry).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// Restore undoes an exclusion.
func (s *SnapshotStore) Restore(plate string) error {
	res := s.db.Where("plate = ?", plate).Delete(&ExcludedPlate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SnapshotStore) ExcludedPlates() ([]ExcludedPlate, error) {
	var excluded []ExcludedPlate
	err := s.db.Order("plate asc").Find(&excluded).Error
	return excluded, err
}

func (ev VehicleEvent) toRecord() DocumentRecord {
	record := DocumentRecord{
		Plate:      ev.Plate,
		EventType:  EventType(ev.EventType),
		RecordedAt: ev.RecordedAt,
	}
	if ev.ExpiryDate != nil {
		record.ExpiryDate = *ev.ExpiryDate
	}
	if ev.DocLink1 != "" {
		record.DocumentLinks = append(record.DocumentLinks, ev.DocLink1)
	}
	if ev.DocLink2 != "" {
		record.DocumentLinks = append(record.DocumentLinks, ev.DocLink2)
	}
	return record
}
