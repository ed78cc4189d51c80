package main

import (
	"fmt"
	"sort"
	"time"
)

type plateEventKey struct {
	Plate     string
	EventType EventType
}

// latestByPlateEvent collapses duplicate rows for the same plate and event
// kind, keeping the one recorded last. The sheet is append-only, so a
// renewed document shows up as a newer row for the same key.
func latestByPlateEvent(records []DocumentRecord) []DocumentRecord {
	latest := make(map[plateEventKey]DocumentRecord)
	order := make([]plateEventKey, 0, len(records))
	for _, r := range records {
		key := plateEventKey{Plate: r.Plate, EventType: r.EventType}
		prev, seen := latest[key]
		if !seen {
			order = append(order, key)
			latest[key] = r
			continue
		}
		if r.RecordedAt.After(prev.RecordedAt) {
			latest[key] = r
		}
	}
	result := make([]DocumentRecord, 0, len(latest))
	for _, key := range order {
		result = append(result, latest[key])
	}
	return result
}

// dueToday classifies the latest record per (plate, event) into reminder
// tasks without consulting the ledger: everything that is due on the given
// date, whether or not it was already sent. Registration certificates never
// expire into reminders and are skipped. Tasks come back grouped by plate
// ascending, stable otherwise, so the summary renders deterministically.
func dueToday(records []DocumentRecord, today time.Time) []ReminderTask {
	tasks := []ReminderTask{}
	for _, r := range latestByPlateEvent(records) {
		if r.EventType == EventRegistrationCert || r.ExpiryDate.IsZero() {
			continue
		}
		bucket, due := classifyExpiry(r.ExpiryDate, today)
		if !due {
			continue
		}
		task := ReminderTask{
			Plate:         r.Plate,
			EventType:     r.EventType,
			Bucket:        bucket,
			ExpiryDate:    r.ExpiryDate,
			DocumentLinks: r.DocumentLinks,
		}
		task.Message = reminderLine(task)
		tasks = append(tasks, task)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Plate < tasks[j].Plate
	})
	return tasks
}

// decideToday is dueToday minus everything the ledger already has for the
// date: the day's actual outbound set, at most one bucket per (plate,
// event) per day.
func decideToday(records []DocumentRecord, today time.Time, ledger *Ledger) ([]ReminderTask, error) {
	tasks := []ReminderTask{}
	for _, task := range dueToday(records, today) {
		sent, err := ledger.Exists(task.Plate, task.EventType, task.Bucket, today)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup for %v %v: %w", task.Plate, task.EventType, err)
		}
		if sent {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
