package email

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNoRecipients is returned when a message has no addressee.
var ErrNoRecipients = errors.New("email: message has no recipients")

// Attachment is a file sent alongside a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single outgoing email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Recipients returns the trimmed, non-empty addresses of the message.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, addr := range m.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// BatchError describes one failed message of a batch.
type BatchError struct {
	Index int
	To    []string
	Err   error
}

// BatchResult collects the failures of a batch send. An empty Errors slice
// means every message was accepted by the provider.
type BatchResult struct {
	Errors []BatchError
}

// Failed reports whether any message failed.
func (r BatchResult) Failed() bool {
	return len(r.Errors) > 0
}

// Sender delivers messages through an email provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	SendBatch(ctx context.Context, msgs []Message) BatchResult
}

// sendAll fans out one goroutine per message and waits for all of them.
// Failures are returned in message order.
func sendAll(ctx context.Context, msgs []Message, send func(context.Context, Message) error) BatchResult {
	errs := make([]error, len(msgs))
	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func(i int, msg Message) {
			defer wg.Done()
			errs[i] = send(ctx, msg)
		}(i, msg)
	}
	wg.Wait()

	var result BatchResult
	for i, err := range errs {
		if err != nil {
			result.Errors = append(result.Errors, BatchError{Index: i, To: msgs[i].Recipients(), Err: err})
		}
	}
	return result
}
