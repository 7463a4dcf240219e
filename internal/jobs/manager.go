package jobs

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/archive"
)

// Defaults.
const (
	DefaultMaxActive = 2
	DefaultMaxQueued = 8
	DefaultTTL       = 5 * time.Minute
)

// subscriberBuffer is the number of events a subscriber may lag behind
// before intermediate progress events are dropped.
const subscriberBuffer = 16

// Runner executes one job. It reports progress through progress, which may
// be called from any goroutine.
type Runner func(ctx context.Context, work Work, progress javaprint.ProgressFunc) (*javaprint.Artifact, error)

// Config configures a Manager.
type Config struct {
	MaxActive int           // running jobs plus direct renders
	MaxQueued int           // pending jobs
	TTL       time.Duration // lifetime of finished jobs
	Logger    *log.Logger
}

// Stats is a snapshot of the manager's load.
type Stats struct {
	Running   int `json:"running"`
	Direct    int `json:"direct"`
	Pending   int `json:"pending"`
	Jobs      int `json:"jobs"`
	MaxActive int `json:"maxActive"`
	MaxQueued int `json:"maxQueued"`
}

// Manager owns every queued job from submission until download or expiry.
// Direct renders share its capacity through BeginDirect.
type Manager struct {
	run       Runner
	maxActive int
	maxQueued int
	ttl       time.Duration
	logger    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	jobs    map[string]*job
	pending []*job
	running int
	direct  int
	closed  bool
}

// NewManager creates a manager executing jobs with run. MaxActive and TTL
// below 1 and a negative MaxQueued take the defaults.
func NewManager(run Runner, cfg Config) *Manager {
	if cfg.MaxActive < 1 {
		cfg.MaxActive = DefaultMaxActive
	}
	if cfg.MaxQueued < 0 {
		cfg.MaxQueued = DefaultMaxQueued
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		run:       run,
		maxActive: cfg.MaxActive,
		maxQueued: cfg.MaxQueued,
		ttl:       cfg.TTL,
		logger:    cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]*job),
	}
}

// hasActiveSlot reports whether another job or direct render may start.
// Callers hold m.mu.
func (m *Manager) hasActiveSlot() bool {
	return m.running+m.direct < m.maxActive
}

// BeginDirect reserves capacity for a synchronous render. The returned
// release function frees it and may be called more than once.
func (m *Manager) BeginDirect() (release func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if !m.hasActiveSlot() {
		return nil, ErrCapacity
	}
	m.direct++

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.direct--
			m.schedule()
		})
	}, nil
}

// Submit queues a job for work. It is accepted when a slot is free or the
// queue has room; otherwise the upload is removed and ErrCapacity returned.
func (m *Manager) Submit(work Work) (Info, error) {
	m.mu.Lock()
	if m.closed || !(m.hasActiveSlot() || len(m.pending) < m.maxQueued) {
		err := ErrCapacity
		if m.closed {
			err = ErrClosed
		}
		m.mu.Unlock()
		m.removeUpload(work.Upload)
		return Info{}, err
	}

	j := &job{
		id:      uuid.NewString(),
		status:  StatusPending,
		subs:    make(map[*Subscription]struct{}),
		work:    work,
		created: time.Now(),
	}
	m.jobs[j.id] = j
	m.pending = append(m.pending, j)
	m.logger.Printf("job %s: queued", j.id)
	m.schedule()
	info := j.info()
	m.mu.Unlock()
	return info, nil
}

// schedule promotes pending jobs in submission order while capacity
// remains. Callers hold m.mu.
func (m *Manager) schedule() {
	for !m.closed && m.hasActiveSlot() && len(m.pending) > 0 {
		j := m.pending[0]
		m.pending[0] = nil
		m.pending = m.pending[1:]

		if err := j.transition(StatusRunning); err != nil {
			m.logger.Printf("job %s: %v", j.id, err)
			continue
		}
		j.started = time.Now()
		m.running++
		m.wg.Add(1)
		go m.execute(j)
	}
}

// execute drives one job to a terminal state.
func (m *Manager) execute(j *job) {
	defer m.wg.Done()
	m.logger.Printf("job %s: running", j.id)

	art, err := m.runSafely(j)
	m.removeUpload(j.work.Upload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.running--
	if err != nil {
		m.fail(j, err)
	} else {
		m.complete(j, art)
	}
	m.schedule()
}

func (m *Manager) runSafely(j *job) (art *javaprint.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, fmt.Errorf("panic in job %s: %v", j.id, r)
		}
	}()
	art, err = m.run(m.ctx, j.work, func(completed, total int) {
		m.report(j, completed, total)
	})
	if err == nil && art == nil {
		err = fmt.Errorf("job %s: no output", j.id)
	}
	return art, err
}

// report records progress and broadcasts it. Counters never go backwards.
func (m *Manager) report(j *job, completed, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j.status != StatusRunning {
		return
	}
	if total > j.total {
		j.total = total
	}
	if completed > j.completed {
		j.completed = completed
	}
	m.broadcast(j, Event{Type: EventProgress, Progress: j.progress()})
}

// complete attaches the artifact and ends the stream. Callers hold m.mu.
func (m *Manager) complete(j *job, art *javaprint.Artifact) {
	if err := j.transition(StatusDone); err != nil {
		m.logger.Printf("job %s: %v", j.id, err)
		return
	}
	j.artifact = art
	j.completed = j.total
	j.finished = time.Now()
	m.logger.Printf("job %s: done (%s, %d bytes)", j.id, art.Filename, len(art.Data))

	m.broadcast(j, Event{Type: EventProgress, Progress: j.progress()})
	m.broadcast(j, j.terminalEvent())
	m.closeSubscribers(j)
	m.expireLater(j)
}

// fail records err and ends the stream. Only user errors reach the client
// verbatim. Callers hold m.mu.
func (m *Manager) fail(j *job, err error) {
	if tErr := j.transition(StatusError); tErr != nil {
		m.logger.Printf("job %s: %v", j.id, tErr)
		return
	}
	j.errMsg = GenericFailureMessage
	if ue, ok := javaprint.AsUserError(err); ok {
		j.errMsg = ue.Message
	}
	j.finished = time.Now()
	m.logger.Printf("job %s: failed: %v", j.id, err)

	m.broadcast(j, j.terminalEvent())
	m.closeSubscribers(j)
	m.expireLater(j)
}

// expireLater deletes j after the TTL unless it was downloaded first.
// Callers hold m.mu.
func (m *Manager) expireLater(j *job) {
	j.timer = time.AfterFunc(m.ttl, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.jobs[j.id] == j {
			delete(m.jobs, j.id)
			m.logger.Printf("job %s: expired", j.id)
		}
	})
}

func (m *Manager) removeUpload(u *archive.Upload) {
	if err := u.Cleanup(); err != nil {
		m.logger.Printf("removing upload %s: %v", u.TempDir, err)
	}
}

// Get returns a snapshot of the job.
func (m *Manager) Get(id string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Info{}, ErrNotFound
	}
	return j.info(), nil
}

// Download hands out the artifact of a finished job and forgets the job.
func (m *Manager) Download(id string) (*javaprint.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if j.status != StatusDone {
		return nil, ErrNotReady
	}
	delete(m.jobs, id)
	if j.timer != nil {
		j.timer.Stop()
	}
	m.logger.Printf("job %s: downloaded", id)
	return j.artifact, nil
}

// Stats returns the current load.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Running:   m.running,
		Direct:    m.direct,
		Pending:   len(m.pending),
		Jobs:      len(m.jobs),
		MaxActive: m.maxActive,
		MaxQueued: m.maxQueued,
	}
}

// Shutdown rejects new work, fails pending jobs and waits for running ones.
// When ctx ends first, running jobs are canceled and ctx's error returned.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		for _, j := range m.pending {
			m.removeUpload(j.work.Upload)
			if err := j.transition(StatusError); err == nil {
				j.errMsg = shutdownMessage
				j.finished = time.Now()
				m.broadcast(j, j.terminalEvent())
				m.closeSubscribers(j)
			}
		}
		m.pending = nil
		for _, j := range m.jobs {
			if j.timer != nil {
				j.timer.Stop()
			}
		}
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}
