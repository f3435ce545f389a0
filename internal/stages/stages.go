package stages

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ID identifies one named phase of a job's analysis pipeline.
type ID string

const (
	StageUpload           ID = "upload"
	StageValidation       ID = "validation"
	StagePreprocessing    ID = "preprocessing"
	StageAnalysis         ID = "analysis"
	StageExtraction       ID = "extraction"
	StageDetection        ID = "detection"
	StageSentiment        ID = "sentiment"
	StagePersonaFormation ID = "persona_formation"
	StageInsightGen       ID = "insight_generation"
	StageCompletion       ID = "completion"
)

// Status represents the lifecycle of a single stage.
type Status string

const (
	StatusPending    Status = "pending"
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Rank orders statuses by furthest progress. Failed sits outside the
// progression and ranks below everything.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusWaiting:
		return 2
	case StatusInProgress:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 0
	}
}

// Terminal reports whether the stage can make no further progress.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// statusAliases maps every accepted spelling of a stage status onto the
// canonical value. The backend has shipped both snake_case and camelCase
// conventions; adding another alias is a one-line entry here.
var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"queued":      StatusWaiting,
	"waiting":     StatusWaiting,
	"in_progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"in-progress": StatusInProgress,
	"processing":  StatusInProgress,
	"running":     StatusInProgress,
	"completed":   StatusCompleted,
	"complete":    StatusCompleted,
	"done":        StatusCompleted,
	"failed":      StatusFailed,
	"error":       StatusFailed,
}

// ParseStatus converts a raw stage status string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	status, ok := statusAliases[normalized]
	return status, ok
}

// Descriptor carries the static presentation metadata for one stage.
type Descriptor struct {
	ID    ID
	Label string
	Icon  string
}

// table is the fixed, ordered stage list. Order matters: snapshot steps,
// current-stage selection, and mean progress all follow it.
var table = []Descriptor{
	{ID: StageUpload, Label: "Upload", Icon: "upload"},
	{ID: StageValidation, Label: "Validation", Icon: "shield-check"},
	{ID: StagePreprocessing, Label: "Preprocessing", Icon: "filter"},
	{ID: StageAnalysis, Label: "Analysis", Icon: "activity"},
	{ID: StageExtraction, Label: "Extraction", Icon: "scissors"},
	{ID: StageDetection, Label: "Detection", Icon: "search"},
	{ID: StageSentiment, Label: "Sentiment", Icon: "heart"},
	{ID: StagePersonaFormation, Label: "Persona Formation", Icon: "users"},
	{ID: StageInsightGen, Label: "Insight Generation", Icon: "lightbulb"},
	{ID: StageCompletion, Label: "Completion", Icon: "check-circle"},
}

var tableIndex = func() map[ID]int {
	idx := make(map[ID]int, len(table))
	for i, desc := range table {
		idx[desc.ID] = i
	}
	return idx
}()

// All returns the ordered stage descriptor table.
func All() []Descriptor {
	cp := make([]Descriptor, len(table))
	copy(cp, table)
	return cp
}

// Count returns the number of known stages.
func Count() int {
	return len(table)
}

// Known reports whether id appears in the stage table.
func Known(id ID) bool {
	_, ok := tableIndex[id]
	return ok
}

// Lookup returns the descriptor for id.
func Lookup(id ID) (Descriptor, bool) {
	i, ok := tableIndex[id]
	if !ok {
		return Descriptor{}, false
	}
	return table[i], true
}

var labelCaser = cases.Title(language.English)

// Label returns the display label for id, falling back to a title-cased
// rendering of the identifier for stages outside the table.
func Label(id ID) string {
	if desc, ok := Lookup(id); ok {
		return desc.Label
	}
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(string(id))
	return labelCaser.String(strings.TrimSpace(cleaned))
}
