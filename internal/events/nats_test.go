package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
)

func runNATS(t *testing.T) *server.Server {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s
}

func TestNATSPublisherSendsJSON(t *testing.T) {
	s := runNATS(t)

	sub, err := nats.Connect(s.ClientURL())
	if err != nil {
		t.Fatalf("connect subscriber: %v", err)
	}
	defer sub.Close()
	msgs, err := sub.SubscribeSync(AccountPublished)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	pub, err := NewNATSPublisher(s.ClientURL())
	if err != nil {
		t.Fatalf("NewNATSPublisher: %v", err)
	}
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := pub.Publish(context.Background(), AccountPublished, PublicationEvent{UID: "uid-1", Listed: true, At: at}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	msg, err := msgs.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	var got PublicationEvent
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.UID != "uid-1" || !got.Listed || !got.At.Equal(at) {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestNATSPublisherRejectsUnencodablePayload(t *testing.T) {
	s := runNATS(t)
	pub, err := NewNATSPublisher(s.ClientURL())
	if err != nil {
		t.Fatalf("NewNATSPublisher: %v", err)
	}
	defer pub.Close()

	if err := pub.Publish(context.Background(), MessageSent, make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestNewNATSPublisherFailsWithoutServer(t *testing.T) {
	s := runNATS(t)
	url := s.ClientURL()
	s.Shutdown()

	if _, err := NewNATSPublisher(url); err == nil {
		t.Fatal("expected connect error")
	}
}
