package main

import "errors"

var (
	// ErrDuplicateEntry is returned by the ledger when the exact
	// (plate, event, bucket, date) tuple was already recorded.
	ErrDuplicateEntry = errors.New("ledger entry already exists")

	// ErrSourceUnavailable means the spreadsheet could not be reached;
	// the day's run is aborted and nothing is written.
	ErrSourceUnavailable = errors.New("record source unavailable")

	// ErrNotFound is returned for admin actions on unknown users or plates.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a non-admin attempts an admin action.
	ErrForbidden = errors.New("forbidden")
)
