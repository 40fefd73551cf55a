package flow

import "context"

// Outcome is the edge a step leaves through once it stops prompting.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeNext     Outcome = "next"
	OutcomeAccepted Outcome = "true"
	OutcomeRejected Outcome = "false"
)

// Action is a step's result: either a prompt to show (Callbacks non-empty, the step suspends)
// or an outcome. Durable is a patch to merge into durable state; Transient, when non-nil,
// replaces the transient state.
type Action struct {
	Callbacks []Callback
	Outcome   Outcome
	Durable   Durable
	Transient *Transient
}

// Suspended reports whether the action asks the host to show a prompt and wait.
func (a *Action) Suspended() bool { return a != nil && len(a.Callbacks) > 0 }

// Invocation is what the host hands a step: carried state, the values submitted for the previous
// prompt, and the user's preferred locale (Accept-Language syntax).
type Invocation struct {
	State     State
	Callbacks []Callback
	Locale    string
}

// Step is one node of the verification tree.
type Step interface {
	Process(ctx context.Context, inv Invocation) (*Action, error)
}
