package domain

import "strconv"

// StageCategory tags a stage for icon and color selection
type StageCategory string

const (
	CategoryIntake     StageCategory = "intake"
	CategoryDyeing     StageCategory = "dyeing"
	CategoryStitching  StageCategory = "stitching"
	CategoryInspection StageCategory = "inspection"
	CategoryDispatch   StageCategory = "dispatch"
)

// Stage is one fixed step of the production pipeline
type Stage struct {
	Sequence int           // 1-based position in the pipeline
	ID       string        // Sequence as text, "1".."7"
	LabelKey string        // Localized label lookup key
	Category StageCategory // Icon/color tag only
}

// Stage sequence numbers
const (
	StageReceived       = 1
	StageDyeing         = 2
	StageBackFromDyeing = 3
	StageStitching      = 4
	StageQualityCheck   = 5
	StageReady          = 6
	StageDelivered      = 7

	StageCount = 7
	FinalStage = StageDelivered
	FloorStage = StageReceived
)

const stageLabelKeyPrefix = "stage."

var stageCatalog = []Stage{
	newStage(StageReceived, "received", CategoryIntake),
	newStage(StageDyeing, "dyeing", CategoryDyeing),
	newStage(StageBackFromDyeing, "back_from_dyeing", CategoryDyeing),
	newStage(StageStitching, "stitching", CategoryStitching),
	newStage(StageQualityCheck, "quality_check", CategoryInspection),
	newStage(StageReady, "ready", CategoryDispatch),
	newStage(StageDelivered, "delivered", CategoryDispatch),
}

func newStage(seq int, key string, category StageCategory) Stage {
	return Stage{
		Sequence: seq,
		ID:       strconv.Itoa(seq),
		LabelKey: stageLabelKeyPrefix + key,
		Category: category,
	}
}

// Stages returns all production stages in order
func Stages() []Stage {
	stages := make([]Stage, len(stageCatalog))
	copy(stages, stageCatalog)
	return stages
}

// StageByID looks up a stage by its string identifier
func StageByID(id string) (Stage, bool) {
	for _, s := range stageCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// StageBySequence looks up a stage by its sequence number
func StageBySequence(seq int) (Stage, bool) {
	if seq < 1 || seq > len(stageCatalog) {
		return Stage{}, false
	}
	return stageCatalog[seq-1], true
}

// IsFinal returns true for the last stage of the pipeline
func (s Stage) IsFinal() bool {
	return s.Sequence == FinalStage
}
