package events

import (
	"context"
	"errors"
	"testing"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, string, any) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublishBestEffortSwallowsErrors(t *testing.T) {
	p := &failingPublisher{}
	PublishBestEffort(context.Background(), p, AccountPublished, PublicationEvent{UID: "uid-1", Listed: true})
	if p.calls != 1 {
		t.Fatalf("expected one publish attempt, got %d", p.calls)
	}

	PublishBestEffort(context.Background(), nil, AccountPublished, nil)
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	_ = r.Publish(context.Background(), OnboardingCompleted, nil)
	_ = r.Publish(context.Background(), MessageSent, nil)

	got := r.Subjects()
	if len(got) != 2 || got[0] != OnboardingCompleted || got[1] != MessageSent {
		t.Fatalf("unexpected subjects %v", got)
	}
}
