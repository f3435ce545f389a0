package status_test

import (
	"errors"
	"reflect"
	"testing"

	"jobwatch/internal/stages"
	"jobwatch/internal/status"
)

func TestNormalizeAcceptsAlternateBreakdownNames(t *testing.T) {
	snake := []byte(`{"status":"processing","stage_states":{"analysis":{"status":"in_progress","progress":0.4,"message":"m"}}}`)
	camel := []byte(`{"status":"processing","stageStates":{"analysis":{"status":"in_progress","progress":0.4,"message":"m"}}}`)

	first, err := status.Normalize(snake)
	if err != nil {
		t.Fatalf("snake_case payload rejected: %v", err)
	}
	second, err := status.Normalize(camel)
	if err != nil {
		t.Fatalf("camelCase payload rejected: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("alias forms diverged:\n%+v\n%+v", first, second)
	}

	step, ok := first.Breakdown[stages.StageAnalysis]
	if !ok {
		t.Fatal("analysis stage missing from breakdown")
	}
	if step.Status != stages.StatusInProgress || step.Progress != 0.4 || step.Message != "m" {
		t.Fatalf("unexpected analysis step: %+v", step)
	}
}

func TestNormalizeAcceptsAlternateStatusField(t *testing.T) {
	canonical, err := status.Normalize([]byte(`{"job_status":"completed","stage_states":{}}`))
	if err != nil {
		t.Fatalf("job_status alias rejected: %v", err)
	}
	if canonical.State != stages.JobCompleted {
		t.Fatalf("expected completed state, got %q", canonical.State)
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `[1,2`},
		{"missing status", `{"stage_states":{}}`},
		{"missing breakdown", `{"status":"processing"}`},
		{"null breakdown", `{"status":"processing","stage_states":null}`},
		{"unknown job status", `{"status":"paused","stage_states":{}}`},
		{"stage without status", `{"status":"processing","stage_states":{"analysis":{"progress":0.2}}}`},
		{"stage with bad status", `{"status":"processing","stage_states":{"analysis":{"status":"sideways"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := status.Normalize([]byte(tc.body)); !errors.Is(err, status.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestNormalizeOptionalFieldDefaults(t *testing.T) {
	canonical, err := status.Normalize([]byte(`{"status":"processing","stage_states":{"upload":{"status":"completed"}}}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if canonical.OverallProgress != nil {
		t.Fatalf("expected absent overall progress, got %v", *canonical.OverallProgress)
	}
	step := canonical.Breakdown[stages.StageUpload]
	if step.Progress != 0 || step.Message != "" {
		t.Fatalf("expected defaulted step fields, got %+v", step)
	}
}

func TestNormalizeTopLevelProgressAndError(t *testing.T) {
	canonical, err := status.Normalize([]byte(`{"status":"failed","overall_progress":0.55,"error":"boom","stage_states":{}}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if canonical.OverallProgress == nil || *canonical.OverallProgress != 0.55 {
		t.Fatalf("unexpected overall progress: %+v", canonical.OverallProgress)
	}
	if canonical.Error != "boom" {
		t.Fatalf("unexpected error: %q", canonical.Error)
	}

	// camelCase spellings resolve through the same tables.
	canonical, err = status.Normalize([]byte(`{"status":"failed","overallProgress":0.3,"errorMessage":"crash","stageStates":{}}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if canonical.OverallProgress == nil || *canonical.OverallProgress != 0.3 || canonical.Error != "crash" {
		t.Fatalf("camelCase aliases not honored: %+v", canonical)
	}
}

func TestNormalizeKeepsUnknownStageKeys(t *testing.T) {
	canonical, err := status.Normalize([]byte(`{"status":"processing","stage_states":{"warp_drive":{"status":"completed","progress":1}}}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if _, ok := canonical.Breakdown[stages.ID("warp_drive")]; !ok {
		t.Fatal("unknown stage keys must survive normalization")
	}
	// Derivation drops them so the snapshot step count stays fixed.
	if got := len(stages.Derive(canonical).Steps); got != stages.Count() {
		t.Fatalf("expected %d steps, got %d", stages.Count(), got)
	}
}

func TestNormalizeThenDeriveScenario(t *testing.T) {
	canonical, err := status.Normalize([]byte(`{"status":"processing","stage_states":{"analysis":{"status":"in_progress","progress":0.4,"message":"m"}}}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	snapshot := stages.Derive(canonical)
	if snapshot.CurrentStage != stages.StageAnalysis {
		t.Fatalf("expected current stage analysis, got %q", snapshot.CurrentStage)
	}
	if snapshot.IsComplete {
		t.Fatal("expected incomplete job")
	}
	for _, step := range snapshot.Steps {
		if step.Stage == stages.StageAnalysis {
			if step.Status != stages.StatusInProgress || step.Progress != 0.4 {
				t.Fatalf("unexpected analysis step: %+v", step)
			}
		}
	}
}
