package systems

import (
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

func TestJobSystemReportsOnUpdate(t *testing.T) {
	js, err := NewJobSystem(2, 8)
	if err != nil {
		t.Fatal(err)
	}
	completed, failed := 0, 0
	boom := errors.New("boom")
	for i := 0; i < 4; i++ {
		run := func() error { return nil }
		if i == 3 {
			run = func() error { return boom }
		}
		err := js.Submit(JobTask{
			Name:       "job",
			Run:        run,
			OnComplete: func() { completed++ },
			OnFailure: func(err error) {
				if errors.Is(err, boom) {
					failed++
				}
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for completed+failed < 4 && time.Now().Before(deadline) {
		js.Update()
		time.Sleep(time.Millisecond)
	}
	if completed != 3 || failed != 1 {
		t.Fatalf("completed %d failed %d, want 3 and 1", completed, failed)
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := js.Submit(JobTask{Name: "late", Run: func() error { return nil }}); !errors.Is(err, ErrJobSystemClosed) {
		t.Errorf("submit after shutdown: err = %v", err)
	}
}

func TestJobSystemCapacity(t *testing.T) {
	js, err := NewJobSystem(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	blocked := func() error { <-release; return nil }

	done := 0
	for i := 0; i < 2; i++ {
		if err := js.Submit(JobTask{Name: "blocked", Run: blocked, OnComplete: func() { done++ }}); err != nil {
			t.Fatal(err)
		}
	}
	if err := js.Submit(JobTask{Name: "extra", Run: blocked}); !errors.Is(err, ErrJobQueueFull) {
		t.Errorf("third submit: err = %v, want ErrJobQueueFull", err)
	}
	close(release)

	// Shutdown waits for the queued jobs and reports them.
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if done != 2 {
		t.Errorf("reported %d jobs, want 2", done)
	}
}

func TestJobSystemRejectsBadInput(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("zero workers: err = %v", err)
	}
	if _, err := NewJobSystem(1, 0); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("zero capacity: err = %v", err)
	}
	js, _ := NewJobSystem(1, 1)
	defer js.Shutdown()
	if err := js.Submit(JobTask{Name: "empty"}); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("nil Run: err = %v", err)
	}
}
