package notify

import (
	"context"
	"log"
)

// Notifier delivers a message to a recipient. Implementations return a
// plain error for any transport, authentication, or protocol failure;
// they never panic across this boundary. A nil return means the message
// was handed off to the outbound channel.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Manager fans a notification out to a primary channel plus any number
// of mirror channels. The primary result decides success; mirrors are
// best-effort and only logged on failure.
type Manager struct {
	primary Notifier
	mirrors []Notifier
}

// NewManager creates a Manager around the given primary notifier.
func NewManager(primary Notifier, mirrors ...Notifier) *Manager {
	return &Manager{primary: primary, mirrors: mirrors}
}

// Send delivers via the primary channel and mirrors the message to the
// secondary channels with their own configured destinations.
func (m *Manager) Send(ctx context.Context, recipient, subject, body string) error {
	err := m.primary.Send(ctx, recipient, subject, body)

	for _, n := range m.mirrors {
		if merr := n.Send(ctx, "", subject, body); merr != nil {
			log.Printf("[notify] mirror send failed: %v", merr)
		}
	}

	return err
}
