package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConsoleSenderLogsMessages(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewConsoleSender("[ProCESO] ", zap.New(core))

	result := sender.SendBatch(context.Background(), []Message{
		{To: []string{"a@example.edu"}, Subject: "Hello", Text: "body"},
		{Subject: "no one"},
	})

	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0].Err, ErrNoRecipients)
	entries := logs.FilterMessage("email").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "[ProCESO] Hello", entries[0].ContextMap()["subject"])
}
