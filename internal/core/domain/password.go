package domain

// Password length policy for new passwords. Principals themselves are
// created by seed tooling; within the service only the password hash is
// ever mutated, so no user aggregate exists here.
const (
	minPasswordLength = 8
	maxPasswordLength = 129
)

// ParsePassword enforces the password policy on new passwords. Stored
// credentials are never re-validated against this policy.
func ParsePassword(raw string) (string, error) {
	if len(raw) < minPasswordLength {
		return "", NewValidationError("password must be at least 8 characters long")
	}
	if len(raw) > maxPasswordLength {
		return "", NewValidationError("password must be at most 129 characters long")
	}
	return raw, nil
}
