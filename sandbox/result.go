package sandbox

import (
	"fmt"

	"github.com/isdmx/hooklab/transform"
)

// Stage identifies the pipeline step a Failure came from
type Stage string

// Pipeline stages, in execution order
const (
	StageTransform   Stage = "transform"
	StageSynthesize  Stage = "synthesize"
	StageInstantiate Stage = "instantiate"
	StageInvoke      Stage = "invoke"
)

// MsgNotAFunction is reported when the entry point is missing or not callable
const MsgNotAFunction = "Component must be a function"

// RunRequest is one explicit attempt to run a snapshot of the editor text
type RunRequest struct {
	ID     uint64
	Source string
}

// Result is the outcome of a RunRequest: Success or *Failure
type Result interface {
	isResult()
}

// Success carries the entry point produced by a run. Mount it to render.
type Success struct {
	Entry *EntryPoint
}

func (Success) isResult() {}

// Failure describes why a run or a mount did not produce output
type Failure struct {
	Message string `json:"message"`
	Stage   Stage  `json:"stage"`
	// Request is the ID of the RunRequest the failure belongs to
	Request uint64 `json:"request"`
	// Diagnostics is set for transform failures
	Diagnostics []transform.Diagnostic `json:"diagnostics,omitempty"`
}

func (*Failure) isResult() {}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %s", f.Stage, f.Message)
}
