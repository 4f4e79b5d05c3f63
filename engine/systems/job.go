package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-tessellation/engine/containers"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

// JobTask is work run off the main goroutine. OnComplete and OnFailure run
// back on the goroutine calling Update.
type JobTask struct {
	Name       string
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
}

type jobResult struct {
	job JobTask
	err error
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu sync.Mutex
	// queued, running and finished-but-not-reported jobs
	outstanding int
	capacity    int
	results     *containers.RingQueue[jobResult]
	closed      bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrInvalidCapacity = fmt.Errorf("attempting to create worker pool with a capacity below 1")
var ErrJobQueueFull = errors.New("job queue is full")
var ErrJobSystemClosed = errors.New("job system is shut down")

func NewJobSystem(numWorkers int, capacity int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, capacity),
		capacity:   capacity,
		results:    containers.NewRingQueue[jobResult](capacity),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				err := job.Run()
				js.mu.Lock()
				// outstanding never exceeds capacity, so there is always room
				_ = js.results.Enqueue(jobResult{job: job, err: err})
				js.mu.Unlock()
			}
		}()
	}
}

/**
 * @brief Submits the provided job to be queued for execution. It never
 * blocks: when capacity jobs are outstanding ErrJobQueueFull is returned.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	if jt.Run == nil {
		return fmt.Errorf("job %q has nothing to run: %w", jt.Name, core.ErrInvalidParameter)
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closed {
		return ErrJobSystemClosed
	}
	if js.outstanding == js.capacity {
		return fmt.Errorf("job %q: %w", jt.Name, ErrJobQueueFull)
	}
	js.outstanding++
	js.jobQueue <- jt
	return nil
}

/**
 * @brief Reports finished jobs through their callbacks. Should happen once an
 * update cycle. Returns the number of jobs reported.
 */
func (js *JobSystem) Update() int {
	js.mu.Lock()
	finished := make([]jobResult, 0, js.results.Len())
	for !js.results.IsEmpty() {
		r, _ := js.results.Dequeue()
		finished = append(finished, r)
	}
	js.outstanding -= len(finished)
	js.mu.Unlock()

	for _, r := range finished {
		if r.err != nil {
			core.LogError("job %s failed: %s", r.job.Name, r.err)
			if r.job.OnFailure != nil {
				r.job.OnFailure(r.err)
			}
			continue
		}
		if r.job.OnComplete != nil {
			r.job.OnComplete()
		}
	}
	return len(finished)
}

/**
 * @brief Shuts the job system down. Queued jobs still run and are reported.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	js.Update()
	return nil
}
