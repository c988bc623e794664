package model

import (
	"context"

	"healthaudit/pkg/core"
)

// MockTarget returns a fixed reply or echoes the incoming message.
type MockTarget struct {
	NameValue string
	ReplyText string
}

func (m MockTarget) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

func (m MockTarget) Respond(_ context.Context, _ []core.ConversationTurn, message string) (string, error) {
	if m.ReplyText != "" {
		return m.ReplyText, nil
	}
	return message, nil
}
