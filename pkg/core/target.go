package core

import "context"

// Target is the model under audit. Implementations send the accumulated
// conversation history plus the new user message and return the assistant
// reply text.
type Target interface {
	Name() string
	Respond(ctx context.Context, history []ConversationTurn, message string) (string, error)
}
