package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func startTestServer(t *testing.T) *NatsServer {
	t.Helper()

	s, err := NewNatsServer(WithPort(-1), WithStartTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("server stopped with error: %v", err)
		}
	})

	readyCtx, readyCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer readyCancel()
	if err := s.WaitReady(readyCtx); err != nil {
		t.Fatalf("server not ready: %v", err)
	}

	return s
}

func TestNatsServer_NotStarted(t *testing.T) {
	s, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = s.Publish("subject", []byte("data"))
	testutil.AssertErrorContains(t, err, "not started")

	_, err = s.Subscribe("subject", func([]byte) {})
	testutil.AssertErrorContains(t, err, "not started")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.WaitReady(ctx); err == nil {
		t.Error("expected WaitReady to fail on a cancelled context")
	}
}

func TestNatsServer_PublishSubscribe(t *testing.T) {
	s := startTestServer(t)

	got := make(chan []byte, 1)
	unsubscribe, err := s.Subscribe("test.subject", func(data []byte) {
		got <- data
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	if err := s.Publish("test.subject", []byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case data := <-got:
		testutil.AssertEqual(t, "data", string(data), "hello")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestRegionRequest_RoundTrip(t *testing.T) {
	s := startTestServer(t)

	got := make(chan RegionRequest, 1)
	unsubscribe, err := SubscribeRegionRequests(s, func(req RegionRequest) {
		got <- req
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	// Dropped before reaching the handler.
	if err := s.Publish(SubjectRegionRequired, []byte(`not json`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Publish(SubjectRegionRequired, []byte(`{"request_id":"x"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent, err := PublishRegionRequest(s, "r7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent.RequestID == "" {
		t.Error("expected a request id")
	}

	select {
	case req := <-got:
		testutil.AssertEqual(t, "region", req.Region, "r7")
		testutil.AssertEqual(t, "request id", req.RequestID, sent.RequestID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for region request")
	}
}
