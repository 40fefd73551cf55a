// Package flow implements the two-step out-of-band phone verification state machine:
// InitiationStep resolves a phone number and starts a challenge with the verification backend,
// CollectionStep prompts for the one-time code and turns the backend verdict into an
// accept or reject outcome.
//
// Steps hold no state between invocations. Everything needed to resume after a suspension is
// returned in the Action and applied to the carried State by the host.
package flow
