package port

import "context"

type Notifier interface {
	Send(ctx context.Context, address, subject, body string) error
}
