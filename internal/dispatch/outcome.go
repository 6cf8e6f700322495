package dispatch

import "fmt"

// Outcome is where a pipeline pass ended.
type Outcome int

const (
	// OutcomeIgnored: authored by the bot itself, or by a bot when IgnoreBots is set.
	OutcomeIgnored Outcome = iota
	// OutcomeUnchanged: an edit that did not change the message body.
	OutcomeUnchanged
	OutcomeAloneMention
	OutcomeNoPrefix
	OutcomeNotFound
	OutcomeRatelimited
	OutcomeBlocked
	OutcomeMissingPermissions
	OutcomeFinished
	OutcomeFailed
)

var outcomeNames = [...]string{
	OutcomeIgnored:            "ignored",
	OutcomeUnchanged:          "unchanged",
	OutcomeAloneMention:       "alone-mention",
	OutcomeNoPrefix:           "no-prefix",
	OutcomeNotFound:           "not-found",
	OutcomeRatelimited:        "ratelimited",
	OutcomeBlocked:            "blocked",
	OutcomeMissingPermissions: "missing-permissions",
	OutcomeFinished:           "finished",
	OutcomeFailed:             "failed",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// PanicError is a command panic recovered at the pipeline boundary.
type PanicError struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %s panicked: %v", e.Command, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
