package points

// EventStatus is the processing state of an external completion event.
// `received` is the single entry state; every other status is terminal and
// one-way for a given (event id, tag) pair.
type EventStatus string

const (
	StatusReceived        EventStatus = "received"
	StatusIgnored         EventStatus = "ignored"
	StatusQueuedUnmatched EventStatus = "queued_unmatched"
	StatusStudent         EventStatus = "student"
	StatusDuplicate       EventStatus = "duplicate"
	StatusProcessed       EventStatus = "processed"
)

// Outcome is the tagged result of ingesting one completion event. Duplicate,
// ignored and unmatched outcomes are successful acknowledgments, not errors,
// so the sender never retries them.
type Outcome string

const (
	OutcomeProcessed  Outcome = "processed"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeUnmatched  Outcome = "queued_unmatched"
	OutcomeIneligible Outcome = "ineligible"
)

// TerminalStatus maps an ingest outcome to the event status it leaves behind.
func TerminalStatus(outcome Outcome) EventStatus {
	switch outcome {
	case OutcomeProcessed:
		return StatusProcessed
	case OutcomeDuplicate:
		return StatusDuplicate
	case OutcomeIgnored:
		return StatusIgnored
	case OutcomeUnmatched:
		return StatusQueuedUnmatched
	case OutcomeIneligible:
		return StatusStudent
	default:
		return StatusReceived
	}
}

// Submission review states.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Ledger entry sources.
const (
	SourceWebhook = "webhook"
	SourceForm    = "form"
	SourceManual  = "manual"
)
