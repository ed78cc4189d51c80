package main

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Ledger is the append-only record of notifications already committed.
// Existence of a (plate, event, bucket, date) tuple is the sole
// de-duplication signal; entries are never purged.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Exists reports whether the tuple was already committed for the date.
func (l *Ledger) Exists(plate string, event EventType, bucket Bucket, date time.Time) (bool, error) {
	var count int64
	err := l.db.Model(&LedgerEntry{}).
		Where("plate = ? AND event_type = ? AND bucket = ? AND date = ?",
			plate, string(event), string(bucket), dateKey(date)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Append durably records the tuple. The unique index over the tuple makes
// concurrent appends single-winner: the loser gets ErrDuplicateEntry and
// the ledger is unchanged.
func (l *Ledger) Append(plate string, event EventType, bucket Bucket, date time.Time) error {
	entry := LedgerEntry{
		Plate:     plate,
		EventType: string(event),
		Bucket:    string(bucket),
		Date:      dateKey(date),
	}
	if err := l.db.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEntry
		}
		return err
	}
	return nil
}
