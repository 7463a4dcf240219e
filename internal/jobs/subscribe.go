package jobs

// Subscription receives a job's events. C is closed after the terminal
// event or on Unsubscribe.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	job    *job
	closed bool
}

// Subscribe attaches to a job's progress stream. A finished job yields its
// terminal event and closes; a pending or running job yields its current
// progress first, then live updates.
func (m *Manager) Subscribe(id string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, job: j}
	if j.status.Terminal() {
		sub.deliver(j.terminalEvent())
		sub.close()
		return sub, nil
	}
	sub.deliver(Event{Type: EventProgress, Progress: j.progress()})
	j.subs[sub] = struct{}{}
	return sub, nil
}

// Unsubscribe detaches sub. The job keeps running.
func (m *Manager) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(sub.job.subs, sub)
	sub.close()
}

// broadcast sends ev to every subscriber of j. Callers hold m.mu.
func (m *Manager) broadcast(j *job, ev Event) {
	for sub := range j.subs {
		sub.deliver(ev)
	}
}

// closeSubscribers ends every stream of j. Callers hold m.mu.
func (m *Manager) closeSubscribers(j *job) {
	for sub := range j.subs {
		sub.close()
	}
	clear(j.subs)
}

// deliver never blocks. A full buffer drops progress events; terminal events
// evict the oldest buffered event instead. Callers hold the manager lock.
func (s *Subscription) deliver(ev Event) {
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		if !ev.Terminal() {
			return
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *Subscription) close() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
