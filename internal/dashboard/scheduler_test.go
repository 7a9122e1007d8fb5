package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSchedulerRunsBothLoops(t *testing.T) {
	client := newFakeLibraryClient()
	pub := &fakePublisher{}
	svc, _ := newTestService(t, client, pub)

	sched := NewScheduler(svc, 10*time.Millisecond, 10*time.Millisecond, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sched.Run(ctx)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.sendCalls+pub.editCalls == 0 {
		t.Error("dashboard loop never published")
	}
	if len(pub.presence) == 0 {
		t.Error("presence loop never ran")
	}
}

func TestSchedulerSurvivesFailingCycles(t *testing.T) {
	client := newFakeLibraryClient()
	client.authErr = errors.New("backend down")
	pub := &fakePublisher{sendErrs: []error{errors.New("publish down"), errors.New("publish down"), errors.New("publish down")}}
	svc, _ := newTestService(t, client, pub)

	sched := NewScheduler(svc, 10*time.Millisecond, 10*time.Millisecond, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	// Must return when the context ends, not crash on task errors.
	sched.Run(ctx)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.sendCalls < 2 {
		t.Errorf("loop must continue after failures, got %d attempts", pub.sendCalls)
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t, newFakeLibraryClient(), &fakePublisher{})
	sched := NewScheduler(svc, time.Hour, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
}

func TestSchedulerDefaultIntervals(t *testing.T) {
	svc, _ := newTestService(t, newFakeLibraryClient(), &fakePublisher{})
	sched := NewScheduler(svc, 0, 0, nil)
	if sched.presenceEvery != 5*time.Minute {
		t.Errorf("unexpected presence default: %s", sched.presenceEvery)
	}
	if sched.dashboardEvery != time.Minute {
		t.Errorf("unexpected dashboard default: %s", sched.dashboardEvery)
	}
}
