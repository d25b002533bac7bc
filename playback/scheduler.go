package playback

import "sync"

// Scheduler runs the controller's asynchronous work. Go runs blocking work
// (manifest and subtitle loads) concurrently; Post delivers events one at a time,
// in order, and never blocks the caller.
type Scheduler interface {
	Go(task func())
	Post(task func())
}

// Loop is the production Scheduler: goroutines for work, a single consumer for events.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
	closed bool
}

// NewLoop starts the event consumer.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) Go(task func()) {
	go task()
}

// Post queues task. It is a no-op once the loop is closed.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	// wake is never closed, so a Post racing Close cannot panic.
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Close stops the consumer after the queued events ran.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	close(l.quit)
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.wake:
			l.drain()
		case <-l.quit:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
	}
}

// Manual queues everything until Drain, for deterministic tests and single-threaded hosts.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

func (m *Manual) Go(task func()) {
	m.Post(task)
}

func (m *Manual) Post(task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, task)
}

// Drain runs queued tasks, including ones queued while draining, until none remain.
// It returns how many ran.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		task := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		task()
		n++
	}
}

// Pending reports how many tasks are queued.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
