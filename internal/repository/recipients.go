package repository

import (
	"context"

	"NotiGate/internal/domain/repository"
)

// StaticRecipientDirectory serves a recipient list seeded from configuration.
// It satisfies RecipientDirectory so a directory service can replace it
// without touching the notifier.
type StaticRecipientDirectory struct {
	recipients []string
}

func NewStaticRecipientDirectory(recipients []string) repository.RecipientDirectory {
	return &StaticRecipientDirectory{recipients: recipients}
}

func (d *StaticRecipientDirectory) ListNotificationRecipients(_ context.Context) ([]string, error) {
	out := make([]string, len(d.recipients))
	copy(out, d.recipients)
	return out, nil
}
