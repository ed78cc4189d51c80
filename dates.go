package main

import "time"

// Civil dates are represented as time.Time values at midnight UTC so that
// subtracting two of them is an exact whole number of days regardless of
// DST in the reminder timezone.

func civilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// asCivilDate drops the time-of-day and location from t.
func asCivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return civilDate(y, m, d)
}

// todayIn returns the current civil date in the given timezone.
func todayIn(loc *time.Location) time.Time {
	return asCivilDate(time.Now().In(loc))
}

// daysBetween returns to − from in whole civil days.
func daysBetween(from, to time.Time) int {
	return int(asCivilDate(to).Sub(asCivilDate(from)).Hours() / 24)
}

// dateKey formats a civil date the way the ledger stores it.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
