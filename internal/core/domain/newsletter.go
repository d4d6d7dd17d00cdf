package domain

// Issue is the content of one newsletter issue to deliver to all confirmed
// subscribers.
type Issue struct {
	Title       string
	ContentText string
	ContentHTML string
}

const maxIdempotencyKeyLength = 50

// ParseIdempotencyKey validates a client-supplied idempotency key:
// non-empty, at most 50 characters, restricted to [A-Za-z0-9_-]. Invalid
// keys are rejected outright, never truncated.
func ParseIdempotencyKey(raw string) (string, error) {
	if raw == "" {
		return "", NewValidationError("idempotency key must not be empty")
	}
	if len(raw) > maxIdempotencyKeyLength {
		return "", NewValidationError("idempotency key is too long")
	}
	for _, c := range []byte(raw) {
		if !isAlphanumeric(c) && c != '_' && c != '-' {
			return "", NewValidationError("idempotency key contains invalid characters")
		}
	}
	return raw, nil
}
