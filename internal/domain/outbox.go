package domain

import "time"

// Outbox message delivery states.
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusDead    = "dead"
)

// OutboxMessage is a persisted email awaiting delivery by the dispatcher.
// Registration enqueues one and returns; delivery, retries and dead-lettering
// happen in the background.
type OutboxMessage struct {
	MessageID     string    `json:"id" dynamodbav:"message_id"`
	Recipient     string    `json:"recipient" dynamodbav:"recipient"`
	Subject       string    `json:"subject" dynamodbav:"subject"`
	Body          string    `json:"body" dynamodbav:"body"` // HTML
	Status        string    `json:"status" dynamodbav:"status"`
	Attempts      int       `json:"attempts" dynamodbav:"attempts"`
	NextAttemptAt int64     `json:"next_attempt_at" dynamodbav:"next_attempt_at"` // Unix seconds
	LastError     string    `json:"last_error,omitempty" dynamodbav:"last_error"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}
