package state

import "github.com/google/uuid"

// NewSenderID returns a fresh random sender id.
func NewSenderID() SenderID {
	return SenderID(uuid.NewString())
}
