package main

import "time"

// classifyExpiry maps an expiry date and the current civil date to a
// notification bucket. Exactly 5 days out and exactly 1 day out are
// single-day triggers; anything on or past the expiry date is overdue and
// stays overdue every following day. All other distances are not due.
func classifyExpiry(expiry, today time.Time) (Bucket, bool) {
	switch days := daysBetween(today, expiry); {
	case days == 5:
		return BucketUpcoming5d, true
	case days == 1:
		return BucketUpcoming1d, true
	case days <= 0:
		return BucketOverdue, true
	default:
		return "", false
	}
}
