package catalog

import "fmt"

// Step identifies a stage of the catalog load pipeline.
type Step int

// Load pipeline steps, in execution order. StepError is the sentinel carried
// by terminal error events.
const (
	StepError Step = -1

	StepInitStore      Step = 0
	StepDownload       Step = 1
	StepDecompress     Step = 2
	StepParse          Step = 3
	StepSaveCategories Step = 4
	StepSaveColors     Step = 5
	StepSaveParts      Step = 6
	StepSavePartColors Step = 7
	StepFinalize       Step = 8
)

// String implements fmt.Stringer.
func (s Step) String() string {
	switch s {
	case StepError:
		return "error"
	case StepInitStore:
		return "init-store"
	case StepDownload:
		return "download"
	case StepDecompress:
		return "decompress"
	case StepParse:
		return "parse"
	case StepSaveCategories:
		return "save-categories"
	case StepSaveColors:
		return "save-colors"
	case StepSaveParts:
		return "save-parts"
	case StepSavePartColors:
		return "save-partColors"
	case StepFinalize:
		return "finalize"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// EventKind tags a load event.
type EventKind int

// Event kinds.
const (
	// EventProgress reports forward progress within a step.
	EventProgress EventKind = iota
	// EventError is terminal: the load failed. Step is StepError and Err
	// carries the failure.
	EventError
	// EventDone is terminal: the load succeeded and Stats is populated.
	EventDone
)

// Event is a tagged progress notification emitted during a load. Percent is
// in [0, 100] and meaningful only for EventProgress.
type Event struct {
	Kind    EventKind
	Step    Step
	Percent int
	Message string
	Stats   *Stats // set on EventDone
	Err     error  // set on EventError
}

// EventFunc receives load events. Callbacks fire synchronously at pipeline
// suspension points and must not block.
type EventFunc func(Event)

// Emit invokes the callback if it is non-nil.
func (f EventFunc) Emit(e Event) {
	if f != nil {
		f(e)
	}
}
