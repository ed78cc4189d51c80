package main

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// EventType identifies a kind of vehicle document tracked in the sheet.
type EventType string

const (
	EventLVRoadToll       EventType = "lv_road_toll"
	EventLTRoadToll       EventType = "lt_road_toll"
	EventInspection       EventType = "inspection"
	EventInsurance        EventType = "insurance"
	EventRegistrationCert EventType = "registration_certificate"
)

// eventNames maps the sheet's Lithuanian event headings to event types.
var eventNames = map[string]EventType{
	"LV Kelių mokestis":        EventLVRoadToll,
	"LT Kelių mokestis":        EventLTRoadToll,
	"TA galiojimas":            EventInspection,
	"CA draudimas iki":         EventInsurance,
	"Registracijos liudijimas": EventRegistrationCert,
}

// eventLabelsLT is the display form used in outgoing messages.
var eventLabelsLT = map[EventType]string{
	EventLVRoadToll:       "LV kelių mokestis",
	EventLTRoadToll:       "LT kelių mokestis",
	EventInspection:       "TA galiojimas",
	EventInsurance:        "CA draudimas",
	EventRegistrationCert: "Registracijos liudijimas",
}

func normalizeEvent(raw string) (EventType, bool) {
	ev, ok := eventNames[strings.TrimSpace(raw)]
	return ev, ok
}

func (e EventType) LabelLT() string {
	if label, ok := eventLabelsLT[e]; ok {
		return label
	}
	return string(e)
}

// Bucket is the urgency category derived from days-until-expiry.
type Bucket string

const (
	BucketUpcoming5d Bucket = "upcoming_5d"
	BucketUpcoming1d Bucket = "upcoming_1d"
	BucketOverdue    Bucket = "overdue"
)

// DocumentRecord is one row from the record source: a document of a given
// kind on a given plate, expiring on a given civil date.
type DocumentRecord struct {
	Plate         string
	EventType     EventType
	ExpiryDate    time.Time // civil date, see dates.go
	DocumentLinks []string  // 0-2 opaque URLs
	RecordedAt    time.Time
}

// ReminderTask is one due notification produced by the decision engine.
type ReminderTask struct {
	Plate         string
	EventType     EventType
	Bucket        Bucket
	ExpiryDate    time.Time
	DocumentLinks []string
	Message       string
}

// UserStatus is the approval lifecycle state of a bot user.
type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusApproved UserStatus = "approved"
	StatusRejected UserStatus = "rejected"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is a Telegram user known to the bot. Created pending on first
// contact, mutated only by admin decisions or a re-request.
type User struct {
	gorm.Model
	TelegramID int64 `gorm:"uniqueIndex"`
	Username   string
	ChatID     int64
	Status     UserStatus
	ApprovedAt *time.Time
	ApprovedBy string
	Role       UserRole
}

// LedgerEntry records that a notification for the tuple was committed on
// the given civil date. Entries are never updated or deleted; the unique
// index makes concurrent appends of the same tuple single-winner.
type LedgerEntry struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	Plate     string `gorm:"uniqueIndex:idx_ledger_tuple,priority:1"`
	EventType string `gorm:"uniqueIndex:idx_ledger_tuple,priority:2"`
	Bucket    string `gorm:"uniqueIndex:idx_ledger_tuple,priority:3"`
	Date      string `gorm:"uniqueIndex:idx_ledger_tuple,priority:4"` // YYYY-MM-DD
}

// VehicleEvent is the locally persisted snapshot of one sheet row, replaced
// wholesale on every successful sync.
type VehicleEvent struct {
	ID         uint   `gorm:"primarykey"`
	Plate      string `gorm:"index"`
	EventType  string
	ExpiryDate *time.Time
	DocLink1   string
	DocLink2   string
	RecordedAt time.Time
}

// ExcludedPlate hides a plate from reminders and lookups until restored.
type ExcludedPlate struct {
	ID         uint   `gorm:"primarykey"`
	Plate      string `gorm:"uniqueIndex"`
	ExcludedAt time.Time
	ExcludedBy string
}

// SyncState is a single row holding the time of the last successful sync.
type SyncState struct {
	ID           uint `gorm:"primarykey"`
	LastSyncedAt time.Time
}

// normalizePlate uppercases and strips all whitespace from a plate number.
func normalizePlate(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}
