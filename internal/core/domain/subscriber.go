package domain

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Subscriber lifecycle states.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)

const maxNameLength = 256

// Characters rejected in subscriber names to keep stored values safe to
// embed in emails and links.
var forbiddenNameCharacters = []rune{'/', '(', ')', '"', '<', '>', '\\', '{', '}'}

// NewSubscriber holds validated signup input. Construct it through
// ParseNewSubscriber; the zero value is not meaningful.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// SubscriberName is a validated display name.
type SubscriberName string

// SubscriberEmail is a validated email address.
type SubscriberEmail string

// ParseNewSubscriber validates both signup fields and returns the first
// validation failure, if any.
func ParseNewSubscriber(name, email string) (NewSubscriber, error) {
	n, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	e, err := ParseSubscriberEmail(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Name: n, Email: e}, nil
}

// ParseSubscriberName rejects empty/whitespace-only names, names longer than
// 256 characters and names containing characters from the forbidden set.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return "", NewValidationError("name must not be empty")
	}
	if utf8.RuneCountInString(raw) > maxNameLength {
		return "", NewValidationError("name is too long")
	}
	if strings.ContainsAny(raw, string(forbiddenNameCharacters)) {
		return "", NewValidationError("name contains forbidden characters")
	}
	return SubscriberName(raw), nil
}

// ParseSubscriberEmail validates the address with net/mail and requires a
// plain address (no display-name part).
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", NewValidationError("email must not be empty")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", NewValidationError("email is not a valid address")
	}
	return SubscriberEmail(trimmed), nil
}

func (n SubscriberName) String() string  { return string(n) }
func (e SubscriberEmail) String() string { return string(e) }
