package main

import (
	"testing"
	"time"
)

func TestClassifyExpiryExactWindows(t *testing.T) {
	t.Parallel()
	today := civilDate(2025, time.June, 5)

	// Sweep a wide range of distances: the 5-day and 1-day triggers are
	// single-day, overdue covers every non-positive distance, everything
	// else is not due.
	for days := -400; days <= 400; days++ {
		expiry := today.AddDate(0, 0, days)
		bucket, due := classifyExpiry(expiry, today)

		var wantBucket Bucket
		wantDue := true
		switch {
		case days == 5:
			wantBucket = BucketUpcoming5d
		case days == 1:
			wantBucket = BucketUpcoming1d
		case days <= 0:
			wantBucket = BucketOverdue
		default:
			wantDue = false
		}
		if due != wantDue || bucket != wantBucket {
			t.Fatalf("classifyExpiry(+%d days): got (%q, %v), want (%q, %v)",
				days, bucket, due, wantBucket, wantDue)
		}
	}
}

func TestClassifyExpiryDayIsOverdue(t *testing.T) {
	t.Parallel()
	day := civilDate(2025, time.June, 10)
	bucket, due := classifyExpiry(day, day)
	if !due || bucket != BucketOverdue {
		t.Errorf("expiry day itself: got (%q, %v), want (%q, true)", bucket, due, BucketOverdue)
	}
}

func TestClassifyOverdueNeverReverts(t *testing.T) {
	t.Parallel()
	expiry := civilDate(2025, time.June, 10)
	for offset := 0; offset <= 1000; offset++ {
		today := expiry.AddDate(0, 0, offset)
		bucket, due := classifyExpiry(expiry, today)
		if !due || bucket != BucketOverdue {
			t.Fatalf("day %d after expiry: got (%q, %v), want overdue", offset, bucket, due)
		}
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()
	vilnius, err := time.LoadLocation("Europe/Vilnius")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	from := time.Date(2025, time.June, 5, 23, 59, 0, 0, vilnius)
	to := time.Date(2025, time.June, 10, 0, 1, 0, 0, time.UTC)
	if got := daysBetween(from, to); got != 5 {
		t.Errorf("daysBetween: got %d, want 5", got)
	}
}

func TestDaysBetweenNegative(t *testing.T) {
	t.Parallel()
	from := civilDate(2025, time.June, 10)
	to := civilDate(2025, time.June, 5)
	if got := daysBetween(from, to); got != -5 {
		t.Errorf("daysBetween: got %d, want -5", got)
	}
}
