package main

import (
	"fmt"
	"strings"
	"time"
)

// reminderLine renders the single-task line used both in per-task messages
// and in the daily summary.
func reminderLine(task ReminderTask) string {
	date := dateKey(task.ExpiryDate)
	label := task.EventType.LabelLT()
	if task.Bucket == BucketOverdue {
		return fmt.Sprintf("%s — %s — nebegalioja nuo %s", task.Plate, label, date)
	}
	return fmt.Sprintf("%s — %s — %s", task.Plate, label, date)
}

// renderSummary builds the daily Lithuanian summary: an upcoming section
// for the 5-day and 1-day triggers, an expired section for overdue ones.
func renderSummary(tasks []ReminderTask) string {
	var upcoming, overdue []string
	for _, task := range tasks {
		if task.Bucket == BucketOverdue {
			overdue = append(overdue, task.Message)
		} else {
			upcoming = append(upcoming, task.Message)
		}
	}
	if len(upcoming) == 0 && len(overdue) == 0 {
		return "Šiandien priminimų nėra."
	}
	lines := []string{}
	if len(upcoming) > 0 {
		lines = append(lines, "Artėjantys (5 d., 1 d.):")
		lines = append(lines, upcoming...)
		lines = append(lines, "")
	}
	if len(overdue) > 0 {
		lines = append(lines, "Nebegalioja:")
		lines = append(lines, overdue...)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// renderPlateDetails formats the per-document status list for one plate.
func renderPlateDetails(plate string, events []DocumentRecord, today time.Time) string {
	lines := []string{plate + ":"}
	for _, ev := range events {
		label := ev.EventType.LabelLT()
		if ev.ExpiryDate.IsZero() {
			lines = append(lines, fmt.Sprintf("- %s: (duomenų nėra)", label))
			continue
		}
		if daysBetween(today, ev.ExpiryDate) <= 0 {
			lines = append(lines, fmt.Sprintf("- %s: nebegalioja", label))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: galioja iki %s", label, dateKey(ev.ExpiryDate)))
		}
	}
	return strings.Join(lines, "\n")
}

func helpText() string {
	return strings.Join([]string{
		"Galimos komandos:",
		"/start - Registracija",
		"/pagalba - Šis pranešimas",
		"/info - Šiandienos priminimas",
		"/sarasas - Visų numerių sąrašas",
		"/id <numeris> - Konkretaus numerio duomenys",
		"/whoami - Sužinoti savo ID",
		"",
		"Administratoriaus komandos:",
		"/dryrun - Peržiūrėti šiandienos pranešimą",
		"/pending - Patvirtinti laukiančius vartotojus",
		"/users - Vartotojų sąrašas",
		"/update - Atnaujinti duomenis iš lentelės",
		"/remove <numeris> - Pašalinti numerį iš pranešimų",
		"/restore <numeris> - Grąžinti numerį į pranešimus",
		"/sendtoday - Išsiųsti šiandienos pranešimą",
	}, "\n")
}
