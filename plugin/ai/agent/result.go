package agent

import (
	"github.com/hrygo/slotdesk/plugin/ai/aitime"
	"github.com/hrygo/slotdesk/plugin/ai/schedule"
)

// ResultKind tags the outcome of resolving a candidate slot.
type ResultKind int

const (
	// ResultOK means the slot is inside business hours and free.
	ResultOK ResultKind = iota
	// ResultParseFailure means no slot could be resolved from the text.
	ResultParseFailure
	// ResultPolicyBlocked means the slot falls outside business hours.
	ResultPolicyBlocked
	// ResultUnavailable means the calendar reported a conflict.
	ResultUnavailable
	// ResultCollaboratorError means the availability check itself failed.
	ResultCollaboratorError
)

// String returns the string representation of ResultKind.
func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultParseFailure:
		return "parse_failure"
	case ResultPolicyBlocked:
		return "policy_blocked"
	case ResultUnavailable:
		return "unavailable"
	case ResultCollaboratorError:
		return "collaborator_error"
	default:
		return "unknown"
	}
}

// SlotResult is the outcome of resolving and vetting one slot.
type SlotResult struct {
	Kind       ResultKind
	Slot       aitime.Slot
	Suggestion schedule.Suggestion
	Err        error
}
