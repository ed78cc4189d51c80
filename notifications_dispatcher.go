package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// sendFunc delivers one message to one chat. Wired to the Telegram API in
// main, to a recorder in tests.
type sendFunc func(chatID int64, text string) error

// RunReport summarizes one daily run for logging and admin reporting.
type RunReport struct {
	Tasks       int // tasks committed to the ledger this run
	Sent        int
	Failed      int
	SkippedRows int // malformed sheet rows dropped during sync
}

// Dispatcher owns the daily reminder run: sync the sheet, decide the due
// set, commit it to the ledger, then deliver the summary to every approved
// user and admin.
type Dispatcher struct {
	source   *SheetSource
	snapshot *SnapshotStore
	ledger   *Ledger
	users    *UserStore
	send     sendFunc
	loc      *time.Location
	at       TimeOfDay
}

func NewDispatcher(source *SheetSource, snapshot *SnapshotStore, ledger *Ledger, users *UserStore, send sendFunc, loc *time.Location, at TimeOfDay) *Dispatcher {
	return &Dispatcher{
		source:   source,
		snapshot: snapshot,
		ledger:   ledger,
		users:    users,
		send:     send,
		loc:      loc,
		at:       at,
	}
}

// RunLoop fires RunOnce at the configured wall-clock time in the
// configured timezone, once per day, until the context is cancelled.
func (d *Dispatcher) RunLoop(ctx context.Context) {
	for {
		next := d.at.NextAfter(time.Now(), d.loc)
		log.Printf("next daily run at %v", next)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		report, err := d.RunOnce(ctx, todayIn(d.loc))
		if err != nil {
			log.Printf("daily run failed: %v", err)
			continue
		}
		log.Printf("daily run done: %d tasks, %d sent, %d failed, %d rows skipped",
			report.Tasks, report.Sent, report.Failed, report.SkippedRows)
	}
}

// Sync fetches the sheet and replaces the local snapshot. Returns the
// count of malformed rows that were skipped.
func (d *Dispatcher) Sync(ctx context.Context) (int, error) {
	records, skipped, err := d.source.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if err := d.snapshot.Replace(records); err != nil {
		return skipped, fmt.Errorf("replacing snapshot: %w", err)
	}
	return skipped, nil
}

// RunOnce performs one complete reminder run for the given civil date.
//
// Commit order is write-ledger-then-send: every task's ledger entry is
// committed before the first message goes out. A crash between commit and
// delivery can silence one day's message but never duplicates one the next
// day. A DuplicateEntry during commit means a concurrent run already owns
// that task; it is dropped from this run's outbound set.
func (d *Dispatcher) RunOnce(ctx context.Context, today time.Time) (RunReport, error) {
	var report RunReport

	skipped, err := d.Sync(ctx)
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			d.notifyAdmins("Nepavyko pasiekti duomenų lentelės, šiandienos priminimai neišsiųsti.")
		}
		return report, err
	}
	report.SkippedRows = skipped

	records, err := d.snapshot.Records()
	if err != nil {
		return report, err
	}
	tasks, err := decideToday(records, today, d.ledger)
	if err != nil {
		return report, err
	}

	committed := make([]ReminderTask, 0, len(tasks))
	for _, task := range tasks {
		err := d.ledger.Append(task.Plate, task.EventType, task.Bucket, today)
		if errors.Is(err, ErrDuplicateEntry) {
			continue
		}
		if err != nil {
			log.Printf("ledger append for %v %v: %v", task.Plate, task.EventType, err)
			continue
		}
		committed = append(committed, task)
	}
	report.Tasks = len(committed)

	if skipped > 0 {
		d.notifyAdmins(fmt.Sprintf("Praleista netinkamų lentelės eilučių: %d", skipped))
	}
	if len(committed) == 0 {
		log.Printf("no reminders due for %s", dateKey(today))
		return report, nil
	}

	text := renderSummary(committed)
	recipients, err := d.users.Recipients()
	if err != nil {
		return report, err
	}
	for _, user := range recipients {
		if err := d.send(user.ChatID, text); err != nil {
			report.Failed++
			log.Printf("sending reminder to chat %v: %v", user.ChatID, err)
			continue
		}
		report.Sent++
	}
	return report, nil
}

// DryRun renders what RunOnce would send today without touching the
// ledger or any recipient.
func (d *Dispatcher) DryRun(today time.Time) (string, error) {
	records, err := d.snapshot.Records()
	if err != nil {
		return "", err
	}
	tasks, err := decideToday(records, today, d.ledger)
	if err != nil {
		return "", err
	}
	return renderSummary(tasks), nil
}

// notifyAdmins sends an admin-only note, independently per admin chat.
func (d *Dispatcher) notifyAdmins(text string) {
	recipients, err := d.users.Recipients()
	if err != nil {
		log.Printf("listing admin recipients: %v", err)
		return
	}
	for _, user := range recipients {
		if !d.users.IsAdmin(user.TelegramID, user.Username) {
			continue
		}
		if err := d.send(user.ChatID, text); err != nil {
			log.Printf("notifying admin chat %v: %v", user.ChatID, err)
		}
	}
}
