package status

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobwatch/internal/stages"
)

// Backward-compatibility alias tables for an evolving backend. Each list is
// tried in order and the first present key wins; a new spelling is a one-line
// entry.
var (
	breakdownAliases    = []string{"stage_states", "stageStates"}
	jobStatusAliases    = []string{"status", "job_status"}
	progressAliases     = []string{"overall_progress", "overallProgress", "progress"}
	errorAliases        = []string{"error", "error_message", "errorMessage"}
	stepStatusAliases   = []string{"status", "state"}
	stepProgressAliases = []string{"progress", "percent"}
	stepMessageAliases  = []string{"message", "detail"}
)

var jobStates = map[string]stages.JobState{
	"pending":     stages.JobPending,
	"queued":      stages.JobPending,
	"processing":  stages.JobProcessing,
	"in_progress": stages.JobProcessing,
	"running":     stages.JobProcessing,
	"completed":   stages.JobCompleted,
	"complete":    stages.JobCompleted,
	"failed":      stages.JobFailed,
	"error":       stages.JobFailed,
}

// Normalize reconciles a raw status payload into a canonical record. Required
// fields missing under every known alias fail with ErrMalformed; optional
// per-stage message and progress fields default to "" and 0. Unknown stage
// keys are kept in the breakdown and left for derivation to ignore.
func Normalize(raw []byte) (stages.Canonical, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return stages.Canonical{}, fmt.Errorf("%w: decode body: %w", ErrMalformed, err)
	}

	stateRaw, ok := firstString(payload, jobStatusAliases)
	if !ok {
		return stages.Canonical{}, fmt.Errorf("%w: no job status under any of %v", ErrMalformed, jobStatusAliases)
	}
	state, ok := jobStates[strings.ToLower(strings.TrimSpace(stateRaw))]
	if !ok {
		return stages.Canonical{}, fmt.Errorf("%w: unrecognized job status %q", ErrMalformed, stateRaw)
	}

	breakdownRaw, ok := firstRaw(payload, breakdownAliases)
	if !ok {
		return stages.Canonical{}, fmt.Errorf("%w: no stage breakdown under any of %v", ErrMalformed, breakdownAliases)
	}
	var entries map[string]map[string]json.RawMessage
	if err := json.Unmarshal(breakdownRaw, &entries); err != nil {
		return stages.Canonical{}, fmt.Errorf("%w: decode stage breakdown: %w", ErrMalformed, err)
	}

	breakdown := make(map[stages.ID]stages.StepState, len(entries))
	for key, entry := range entries {
		step, err := normalizeStep(key, entry)
		if err != nil {
			return stages.Canonical{}, err
		}
		breakdown[stages.ID(key)] = step
	}

	canonical := stages.Canonical{State: state, Breakdown: breakdown}

	if value, ok := firstFloat(payload, progressAliases); ok {
		canonical.OverallProgress = &value
	}
	if message, ok := firstString(payload, errorAliases); ok {
		canonical.Error = message
	}
	return canonical, nil
}

func normalizeStep(key string, entry map[string]json.RawMessage) (stages.StepState, error) {
	statusRaw, ok := firstString(entry, stepStatusAliases)
	if !ok {
		return stages.StepState{}, fmt.Errorf("%w: stage %q has no status field", ErrMalformed, key)
	}
	parsed, ok := stages.ParseStatus(statusRaw)
	if !ok {
		return stages.StepState{}, fmt.Errorf("%w: stage %q has unrecognized status %q", ErrMalformed, key, statusRaw)
	}

	step := stages.StepState{Status: parsed}
	if value, ok := firstFloat(entry, stepProgressAliases); ok {
		step.Progress = value
	}
	if message, ok := firstString(entry, stepMessageAliases); ok {
		step.Message = message
	}
	return step, nil
}

func firstRaw(obj map[string]json.RawMessage, aliases []string) (json.RawMessage, bool) {
	for _, alias := range aliases {
		if value, ok := obj[alias]; ok && !isJSONNull(value) {
			return value, true
		}
	}
	return nil, false
}

func firstString(obj map[string]json.RawMessage, aliases []string) (string, bool) {
	raw, ok := firstRaw(obj, aliases)
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

func firstFloat(obj map[string]json.RawMessage, aliases []string) (float64, bool) {
	raw, ok := firstRaw(obj, aliases)
	if !ok {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	return value, true
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
