package web

import (
	"context"
	"testing"
	"time"

	"github.com/zortness/mag-loop-controller/internal/logic/steps"
)

func TestServerRun_StopsOnCancel(t *testing.T) {
	h := NewHandlers(steps.NewTranslator(0, 0), &recordingMover{}, NewStatusFeed(0))
	srv := NewServer("127.0.0.1:0", h)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil after shutdown", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServerRun_ListenError(t *testing.T) {
	h := NewHandlers(steps.NewTranslator(0, 0), &recordingMover{}, NewStatusFeed(0))
	if err := NewServer("127.0.0.1:-1", h).Run(context.Background()); err == nil {
		t.Error("expected listen error for an invalid port")
	}
}
