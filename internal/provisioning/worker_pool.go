// Package provisioning runs folder-provisioning jobs on a worker pool so
// web requests can return a task id immediately and report progress over
// the websocket hub.
package provisioning

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/shootplanner/internal/drive"
)

// Common errors
var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Task statuses
const (
	StatusQueued   = "queued"
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusError    = "error"
)

// Task represents a provisioning job
type Task struct {
	ID          string
	Run         func() (drive.ResolvedFolder, error)
	SubmittedAt time.Time

	status string
	folder drive.ResolvedFolder
	err    error
}

// Snapshot is a point-in-time view of a task
type Snapshot struct {
	ID          string
	Status      string
	SubmittedAt time.Time
	Folder      drive.ResolvedFolder
	Err         error
}

// Notifier receives task lifecycle updates; the websocket hub implements it
type Notifier interface {
	SendTaskUpdate(taskID string, updateType string, content interface{})
}

// Pool manages a pool of worker goroutines running provisioning jobs
type Pool struct {
	tasks    chan *Task
	workers  int
	wg       sync.WaitGroup
	quit     chan struct{}
	stopped  bool
	byID     map[string]*Task
	mu       sync.RWMutex
	notifier Notifier
}

// NewPool creates and starts a worker pool. notifier may be nil.
func NewPool(workers, queueSize int, notifier Notifier) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 10
	}

	pool := &Pool{
		tasks:    make(chan *Task, queueSize),
		workers:  workers,
		quit:     make(chan struct{}),
		byID:     make(map[string]*Task),
		notifier: notifier,
	}
	pool.start()
	return pool
}

func (p *Pool) start() {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(i)
	}
	log.Printf("Started provisioning pool with %d workers", p.workers)
}

// Stop stops the worker pool
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()
	log.Println("Provisioning pool stopped")
}

// Submit queues a provisioning job and returns its task id
func (p *Pool) Submit(run func() (drive.ResolvedFolder, error)) (string, error) {
	task := &Task{
		ID:          uuid.NewString(),
		Run:         run,
		SubmittedAt: time.Now(),
		status:      StatusQueued,
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return "", ErrPoolStopped
	}
	p.byID[task.ID] = task
	p.mu.Unlock()

	select {
	case p.tasks <- task:
		p.notify(task.ID, StatusQueued, nil)
		return task.ID, nil
	default:
		p.mu.Lock()
		delete(p.byID, task.ID)
		p.mu.Unlock()
		return "", ErrQueueFull
	}
}

// Snapshot returns the current state of a task. Completed tasks remain
// queryable until the process exits.
func (p *Pool) Snapshot(id string) (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	task, ok := p.byID[id]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		ID:          task.ID,
		Status:      task.status,
		SubmittedAt: task.SubmittedAt,
		Folder:      task.folder,
		Err:         task.err,
	}, true
}

// ActiveTasks returns the number of queued or running tasks
func (p *Pool) ActiveTasks() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, task := range p.byID {
		if task.status == StatusQueued || task.status == StatusRunning {
			n++
		}
	}
	return n
}

func (p *Pool) setStatus(task *Task, status string, folder drive.ResolvedFolder, err error) {
	p.mu.Lock()
	task.status = status
	task.folder = folder
	task.err = err
	p.mu.Unlock()
}

func (p *Pool) notify(taskID, updateType string, content interface{}) {
	if p.notifier != nil {
		p.notifier.SendTaskUpdate(taskID, updateType, content)
	}
}

// worker processes tasks from the queue
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.tasks:
			p.setStatus(task, StatusRunning, drive.ResolvedFolder{}, nil)
			p.notify(task.ID, StatusRunning, nil)

			folder, err := task.Run()
			if err != nil {
				log.Printf("Worker %d failed task %s: %v", id, task.ID, err)
				p.setStatus(task, StatusError, drive.ResolvedFolder{}, err)
				p.notify(task.ID, StatusError, map[string]string{"error": err.Error()})
				continue
			}

			p.setStatus(task, StatusComplete, folder, nil)
			p.notify(task.ID, StatusComplete, folder)
		case <-p.quit:
			return
		}
	}
}
