package ports

import "context"

// Mailer delivers outbound account email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, resetLink string) error
}
