package email

import "context"

// Provider is the deferred notification channel. Callers only observe
// success or failure; delivery receipts are out of scope.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, body string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, body string) error {
	return nil
}
