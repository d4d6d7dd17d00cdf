package ports

import "context"

// EmailSender is the outbound email collaborator, assumed to be an HTTP API
// behind the scenes. Implementations must honour ctx cancellation so a
// stuck transport fails fast instead of hanging the request.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error
}
