package stages

// JobState is the backend's top-level job status after normalization.
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// StepState is the normalized per-stage entry inside a canonical record.
type StepState struct {
	Status   Status
	Progress float64
	Message  string
}

// Canonical is the reconciled job status record produced by the normalizer.
// Breakdown may contain keys outside the stage table; derivation ignores them.
type Canonical struct {
	State           JobState
	OverallProgress *float64
	Error           string
	Breakdown       map[ID]StepState
}

// Step is one stage's live state inside a snapshot. Steps are replaced
// wholesale on every derivation, never mutated in place.
type Step struct {
	Stage    ID      `json:"stage"`
	Status   Status  `json:"status"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
}

// Snapshot is the complete, self-consistent progress state derived from one
// canonical record. CurrentStage is empty when nothing has started, and Error
// is empty unless the job reached a terminal failure.
type Snapshot struct {
	Steps           []Step  `json:"steps"`
	OverallProgress float64 `json:"overall_progress"`
	CurrentStage    ID      `json:"current_stage,omitempty"`
	IsComplete      bool    `json:"is_complete"`
	Error           string  `json:"error,omitempty"`
}

// Derive maps a canonical status record onto the fixed stage table. It is a
// pure function: identical input yields identical snapshots.
func Derive(c Canonical) Snapshot {
	steps := make([]Step, 0, len(table))
	var sum float64
	for _, desc := range table {
		step := Step{Stage: desc.ID, Status: StatusPending}
		if entry, ok := c.Breakdown[desc.ID]; ok {
			step.Status = entry.Status
			step.Progress = clampUnit(entry.Progress)
			step.Message = entry.Message
		}
		sum += step.Progress
		steps = append(steps, step)
	}

	overall := sum / float64(len(table))
	if c.OverallProgress != nil {
		overall = clampUnit(*c.OverallProgress)
	}

	snapshot := Snapshot{
		Steps:           steps,
		OverallProgress: overall,
		CurrentStage:    currentStage(steps),
		IsComplete:      c.State == JobCompleted,
	}
	if c.State == JobFailed {
		snapshot.Error = c.Error
		if snapshot.Error == "" {
			snapshot.Error = "job failed"
		}
	}
	return snapshot
}

// currentStage picks the first in-progress stage, else the last completed one.
func currentStage(steps []Step) ID {
	for _, step := range steps {
		if step.Status == StatusInProgress {
			return step.Stage
		}
	}
	var last ID
	for _, step := range steps {
		if step.Status == StatusCompleted {
			last = step.Stage
		}
	}
	return last
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
