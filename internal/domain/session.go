package domain

import "time"

// SessionStep identifies the pending half of a multi-step command.
type SessionStep string

const (
	// StepAwaitingAddPayload waits for a "url - site" line after a bare add.
	StepAwaitingAddPayload SessionStep = "awaiting_add_payload"
	// StepAwaitingRemoveID waits for an item id after a bare remove.
	StepAwaitingRemoveID SessionStep = "awaiting_remove_id"
)

// ConversationSession tracks an in-progress guided command for one owner.
// At most one session exists per owner; the next inbound message from
// that owner consumes it unconditionally.
type ConversationSession struct {
	Owner     string
	Step      SessionStep
	CreatedAt time.Time
}
