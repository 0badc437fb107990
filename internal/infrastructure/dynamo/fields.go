package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldVerified      = "verified"
	fieldStatus        = "status"
	fieldAttempts      = "attempts"
	fieldNextAttemptAt = "next_attempt_at"
	fieldLastError     = "last_error"
	fieldUpdatedAt     = "updated_at"
)

// statusIndex is the mail_outbox GSI keyed on status + next_attempt_at,
// queried by the dispatcher for due pending messages.
const statusIndex = "status-next_attempt_at-index"
