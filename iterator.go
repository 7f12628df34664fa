package fsw

import (
	"iter"
	"sync"
	"time"
)

const (
	defaultIterBuffer = 64
	stopRetryInterval = 50 * time.Millisecond
)

// Iterator delivers the events of a session one at a time. The monitor
// starts with the first call to Next or All and runs on its own goroutine
// until Close. An Iterator cannot be restarted.
type Iterator struct {
	session *Session
	events  chan Event
	stop    chan struct{}
	done    chan struct{}

	startOnce sync.Once
	closeOnce sync.Once

	mu       sync.Mutex
	err      error
	closeErr error
}

// Iter installs a callback on s that feeds an Iterator. buffer is the
// number of events held before the monitor blocks; zero or less selects
// the default.
func (s *Session) Iter(buffer int) (*Iterator, error) {
	if buffer <= 0 {
		buffer = defaultIterBuffer
	}
	it := &Iterator{
		session: s,
		events:  make(chan Event, buffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if err := s.SetCallback(it.forward); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *Iterator) forward(events []Event) {
	for _, e := range events {
		select {
		case it.events <- e:
		case <-it.stop:
			return
		}
	}
}

func (it *Iterator) start() {
	it.startOnce.Do(func() {
		go func() {
			defer close(it.done)
			defer close(it.events)

			err := it.session.StartMonitor()
			it.mu.Lock()
			it.err = err
			it.mu.Unlock()
		}()
	})
}

// Next blocks until an event arrives. It returns false once the monitor
// has stopped and every buffered event was consumed.
func (it *Iterator) Next() (Event, bool) {
	it.start()
	e, ok := <-it.events
	return e, ok
}

// All returns the remaining events as a sequence.
func (it *Iterator) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			e, ok := it.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// Err returns the error the monitor stopped with, if any.
func (it *Iterator) Err() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.err
}

// Close stops the monitor, waits for it to return and closes the session.
func (it *Iterator) Close() error {
	it.closeOnce.Do(func() {
		it.startOnce.Do(func() {
			close(it.events)
			close(it.done)
		})
		close(it.stop)
		it.closeErr = it.halt()
		if it.closeErr == nil {
			it.closeErr = it.session.Close()
		}
	})
	return it.closeErr
}

// halt keeps asking the monitor to stop until its goroutine returns. A
// stop request can race with the native loop starting up.
func (it *Iterator) halt() error {
	for {
		if err := it.session.Stop(); err != nil {
			return err
		}
		select {
		case <-it.done:
			return nil
		case <-time.After(stopRetryInterval):
		}
	}
}
