package notify

import (
	"context"
	"errors"
	"testing"
)

type recordingNotifier struct {
	recipients []string
	err        error
}

func (n *recordingNotifier) Send(_ context.Context, recipient, subject, body string) error {
	n.recipients = append(n.recipients, recipient)
	return n.err
}

func TestManager_PrimaryResultDecides(t *testing.T) {
	primary := &recordingNotifier{}
	mirror := &recordingNotifier{err: errors.New("mirror down")}
	m := NewManager(primary, mirror)

	if err := m.Send(context.Background(), "to@example.com", "s", "b"); err != nil {
		t.Errorf("mirror failure must not fail the send: %v", err)
	}
	if len(primary.recipients) != 1 || primary.recipients[0] != "to@example.com" {
		t.Errorf("primary recipients = %v", primary.recipients)
	}
	if len(mirror.recipients) != 1 {
		t.Errorf("mirror was not invoked")
	}
	if mirror.recipients[0] != "" {
		t.Errorf("mirror recipient = %q, want its own configured destination", mirror.recipients[0])
	}
}

func TestManager_PrimaryFailurePropagates(t *testing.T) {
	primary := &recordingNotifier{err: errors.New("smtp down")}
	mirror := &recordingNotifier{}
	m := NewManager(primary, mirror)

	if err := m.Send(context.Background(), "to@example.com", "s", "b"); err == nil {
		t.Error("expected primary failure to propagate")
	}
	if len(mirror.recipients) != 1 {
		t.Error("mirror should still fire on primary failure")
	}
}
