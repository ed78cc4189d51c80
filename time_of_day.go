package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a fixed civil wall-clock time ("HH:MM" in config), used for
// the daily reminder trigger.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// json unmarshalling
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var dat any
	if err := json.Unmarshal(b, &dat); err != nil {
		return err
	}
	raw, ok := dat.(string)
	if !ok {
		return fmt.Errorf("invalid time of day format type: %s", string(b))
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return fmt.Errorf("invalid time of day format: %s", string(b))
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return err
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("invalid hour: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("invalid minute: %d", minute)
	}
	t.Hour = hour
	t.Minute = minute
	return nil
}

// json marshalling
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", t.String())), nil
}

// NextAfter returns the next occurrence of this wall-clock time in loc
// strictly after now. Crossing a DST transition keeps the civil time fixed.
func (t TimeOfDay) NextAfter(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, t.Hour, t.Minute, 0, 0, loc)
	}
	return next
}
