package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/kinobot/internal/types"
)

func TestGatewayDispatch(t *testing.T) {
	gw := New()
	gw.Start(context.Background())
	defer gw.Stop()

	done := make(chan types.UserID, 1)
	err := gw.Dispatch(1, "text", func(ctx context.Context) error {
		if ctx == nil {
			t.Error("expected a context")
		}
		done <- 1
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}

func TestGatewayDifferentUsersConcurrent(t *testing.T) {
	gw := New(2)
	gw.Start(context.Background())
	defer gw.Stop()

	// Both handlers must be running at once for either to finish.
	var wg sync.WaitGroup
	wg.Add(2)
	release := make(chan struct{})
	finished := make(chan struct{}, 2)
	for _, user := range []types.UserID{1, 2} {
		err := gw.Dispatch(user, "action", func(context.Context) error {
			wg.Done()
			<-release
			finished <- struct{}{}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	started := make(chan struct{})
	go func() {
		wg.Wait()
		close(started)
	}()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("users were not handled concurrently")
	}
	close(release)
	for i := 0; i < 2; i++ {
		<-finished
	}
}

func TestProcessRunStatus(t *testing.T) {
	run := NewRun(5, "start", func(context.Context) error { return nil })
	if err := ProcessRun(run); err != nil {
		t.Fatal(err)
	}
	if run.Status != RunStatusComplete || run.StartedAt == nil || run.EndedAt == nil {
		t.Errorf("unexpected run state %+v", run)
	}

	boom := errors.New("boom")
	run = NewRun(5, "text", func(context.Context) error { return boom })
	if err := ProcessRun(run); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if run.Status != RunStatusFailed || run.Error != boom {
		t.Errorf("unexpected failed run state %+v", run)
	}
}
