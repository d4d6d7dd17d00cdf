package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

type fakeClaim struct {
	completed *ports.SavedResponse
	released  bool
}

func (c *fakeClaim) Complete(_ context.Context, resp ports.SavedResponse) error {
	c.completed = &resp
	return nil
}

func (c *fakeClaim) Release(_ context.Context) error {
	c.released = true
	return nil
}

type fakeIdempotencyStore struct {
	claim *fakeClaim
	saved *ports.SavedResponse
	err   error
}

func (s *fakeIdempotencyStore) TryClaim(_ context.Context, _ uuid.UUID, _ string) (ports.IdempotencyClaim, *ports.SavedResponse, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if s.saved != nil {
		return nil, s.saved, nil
	}
	return s.claim, nil, nil
}

type fakeConfirmedEmails struct {
	fakeSubscriberStore
	emails []string
	err    error
}

func (f *fakeConfirmedEmails) ConfirmedEmails(_ context.Context) ([]string, error) {
	return f.emails, f.err
}

func testIssue() domain.Issue {
	return domain.Issue{
		Title:       "Weekly digest",
		ContentText: "plain text body",
		ContentHTML: "<p>html body</p>",
	}
}

func TestPublish_DeliversAndRecords(t *testing.T) {
	claim := &fakeClaim{}
	store := &fakeIdempotencyStore{claim: claim}
	subscribers := &fakeConfirmedEmails{emails: []string{"a@example.com", "b@example.com"}}
	sender := &fakeEmailSender{}
	svc := NewNewsletterService(store, subscribers, sender, zerolog.Nop())

	resp, err := svc.Publish(context.Background(), uuid.New(), "key-1", testIssue())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if len(sender.recipients) != 2 {
		t.Fatalf("unexpected recipients: %v", sender.recipients)
	}
	if sender.subjects[0] != "Weekly digest" {
		t.Fatalf("unexpected subject: %q", sender.subjects[0])
	}

	if claim.completed == nil {
		t.Fatal("claim was not completed")
	}
	if claim.released {
		t.Fatal("claim was released after success")
	}

	var body publishResult
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	if body.Recipients != 2 {
		t.Fatalf("unexpected recipient count: %d", body.Recipients)
	}
}

func TestPublish_ReplaySkipsDelivery(t *testing.T) {
	recorded := ports.SavedResponse{
		StatusCode: http.StatusOK,
		Headers:    []ports.HeaderPair{{Name: "Content-Type", Value: []byte("application/json; charset=UTF-8")}},
		Body:       []byte(`{"message":"newsletter issue delivered","recipients":7}`),
	}
	store := &fakeIdempotencyStore{saved: &recorded}
	subscribers := &fakeConfirmedEmails{emails: []string{"a@example.com"}}
	sender := &fakeEmailSender{}
	svc := NewNewsletterService(store, subscribers, sender, zerolog.Nop())

	resp, err := svc.Publish(context.Background(), uuid.New(), "key-1", testIssue())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.recipients) != 0 {
		t.Fatal("replay must not send any email")
	}
	if resp.StatusCode != recorded.StatusCode || string(resp.Body) != string(recorded.Body) {
		t.Fatalf("replayed response differs from the recorded one: %+v", resp)
	}
}

// A stored email that fails validation is skipped, not fatal.
func TestPublish_SkipsInvalidStoredEmail(t *testing.T) {
	claim := &fakeClaim{}
	store := &fakeIdempotencyStore{claim: claim}
	subscribers := &fakeConfirmedEmails{emails: []string{"broken-email", "ok@example.com"}}
	sender := &fakeEmailSender{}
	svc := NewNewsletterService(store, subscribers, sender, zerolog.Nop())

	resp, err := svc.Publish(context.Background(), uuid.New(), "key-1", testIssue())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.recipients) != 1 || sender.recipients[0] != "ok@example.com" {
		t.Fatalf("unexpected recipients: %v", sender.recipients)
	}

	var body publishResult
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	if body.Recipients != 1 {
		t.Fatalf("unexpected recipient count: %d", body.Recipients)
	}
}

func TestPublish_SendFailureReleasesClaim(t *testing.T) {
	claim := &fakeClaim{}
	store := &fakeIdempotencyStore{claim: claim}
	subscribers := &fakeConfirmedEmails{emails: []string{"a@example.com"}}
	sender := &fakeEmailSender{err: errors.New("relay refused")}
	svc := NewNewsletterService(store, subscribers, sender, zerolog.Nop())

	_, err := svc.Publish(context.Background(), uuid.New(), "key-1", testIssue())
	if err == nil {
		t.Fatal("expected error")
	}
	if !claim.released {
		t.Fatal("claim was not released on failure")
	}
	if claim.completed != nil {
		t.Fatal("claim must not be completed on failure")
	}
}

func TestPublish_ClaimFailure(t *testing.T) {
	store := &fakeIdempotencyStore{err: errors.New("connection refused")}
	subscribers := &fakeConfirmedEmails{}
	sender := &fakeEmailSender{}
	svc := NewNewsletterService(store, subscribers, sender, zerolog.Nop())

	if _, err := svc.Publish(context.Background(), uuid.New(), "key-1", testIssue()); err == nil {
		t.Fatal("expected error")
	}
	if len(sender.recipients) != 0 {
		t.Fatal("no email may be sent without a claim")
	}
}
