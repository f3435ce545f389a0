package main

import (
	"fmt"
	"strings"
	"time"

	"jobwatch/internal/history"
	"jobwatch/internal/stages"
)

var snapshotHeaders = []string{"Stage", "Status", "Progress", "Message"}

func buildSnapshotRows(snap stages.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Steps))
	for _, step := range snap.Steps {
		rows = append(rows, []string{
			stages.Label(step.Stage),
			formatStatusLabel(string(step.Status)),
			formatPercent(step.Progress),
			strings.TrimSpace(step.Message),
		})
	}
	return rows
}

var historyHeaders = []string{"Attempt", "Stage", "Progress", "State", "Recorded"}

func buildHistoryRows(records []history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		state := "processing"
		switch {
		case rec.IsComplete:
			state = "completed"
		case rec.Error != "":
			state = "failed: " + rec.Error
		}
		stage := ""
		if rec.CurrentStage != "" {
			stage = stages.Label(rec.CurrentStage)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.Attempt),
			stage,
			formatPercent(rec.OverallProgress),
			state,
			formatDisplayTime(rec.CreatedAt),
		})
	}
	return rows
}

var jobHeaders = []string{"Job", "Snapshots", "Progress", "State", "Last Seen"}

func buildJobRows(summaries []history.JobSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		state := "processing"
		switch {
		case s.IsComplete:
			state = "completed"
		case s.Error != "":
			state = "failed: " + s.Error
		}
		rows = append(rows, []string{
			s.JobID,
			fmt.Sprintf("%d", s.Snapshots),
			formatPercent(s.OverallProgress),
			state,
			formatDisplayTime(s.LastSeen),
		})
	}
	return rows
}

var stageHeaders = []string{"#", "Stage", "Identifier", "Icon"}

func buildStageRows() [][]string {
	descriptors := stages.All()
	rows := make([][]string, 0, len(descriptors))
	for i, desc := range descriptors {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			desc.Label,
			string(desc.ID),
			desc.Icon,
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatPercent(progress float64) string {
	return fmt.Sprintf("%.0f%%", progress*100)
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
