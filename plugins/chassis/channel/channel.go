// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package channel implements a bounded multi-producer queue used to hand
// hardware events from SDK callback contexts over to consumer goroutines.
package channel

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by Read/Write once the channel was closed.
	ErrClosed = errors.New("channel is closed")

	// ErrTimeout is returned when the operation did not complete in time.
	ErrTimeout = errors.New("channel operation timed out")
)

// Channel is a bounded FIFO queue with any number of writers and readers.
// Closing the channel wakes up all blocked readers and writers; events still
// queued at that point are discarded.
type Channel[T any] struct {
	queue chan T
	done  chan struct{}

	closeLock sync.Mutex
	closed    bool
}

// New creates a channel holding at most <depth> events.
func New[T any](depth int) *Channel[T] {
	if depth < 1 {
		depth = 1
	}
	return &Channel[T]{
		queue: make(chan T, depth),
		done:  make(chan struct{}),
	}
}

// Write enqueues the event, waiting for at most <timeout> while the queue
// is full. Negative timeout waits until the event is enqueued or the channel
// is closed, zero timeout does not wait at all.
func (c *Channel[T]) Write(event T, timeout time.Duration) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	switch {
	case timeout < 0:
		select {
		case c.queue <- event:
			return nil
		case <-c.done:
			return ErrClosed
		}
	case timeout == 0:
		select {
		case c.queue <- event:
			return nil
		case <-c.done:
			return ErrClosed
		default:
			return ErrTimeout
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c.queue <- event:
		return nil
	case <-c.done:
		return ErrClosed
	case <-timer.C:
		return ErrTimeout
	}
}

// Read dequeues the oldest event, waiting for at most <timeout> while the
// queue is empty. Negative timeout waits until an event arrives or the channel
// is closed.
func (c *Channel[T]) Read(timeout time.Duration) (T, error) {
	var zero T
	select {
	case <-c.done:
		return zero, ErrClosed
	default:
	}

	switch {
	case timeout < 0:
		select {
		case event := <-c.queue:
			return event, nil
		case <-c.done:
			return zero, ErrClosed
		}
	case timeout == 0:
		select {
		case event := <-c.queue:
			return event, nil
		case <-c.done:
			return zero, ErrClosed
		default:
			return zero, ErrTimeout
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case event := <-c.queue:
		return event, nil
	case <-c.done:
		return zero, ErrClosed
	case <-timer.C:
		return zero, ErrTimeout
	}
}

// Close closes the channel. Returns false if it was already closed.
func (c *Channel[T]) Close() bool {
	c.closeLock.Lock()
	defer c.closeLock.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.done)
	return true
}

// IsClosed returns true once Close was called.
func (c *Channel[T]) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Len returns the number of queued events.
func (c *Channel[T]) Len() int {
	return len(c.queue)
}

// Writer returns the producer end of the channel.
func (c *Channel[T]) Writer() *Writer[T] {
	return &Writer[T]{ch: c}
}

// Reader returns the consumer end of the channel.
func (c *Channel[T]) Reader() *Reader[T] {
	return &Reader[T]{ch: c}
}

// Writer allows only to enqueue events into a channel.
type Writer[T any] struct {
	ch *Channel[T]
}

// Write is the same as Channel.Write.
func (w *Writer[T]) Write(event T, timeout time.Duration) error {
	return w.ch.Write(event, timeout)
}

// IsClosed is the same as Channel.IsClosed.
func (w *Writer[T]) IsClosed() bool {
	return w.ch.IsClosed()
}

// Reader allows only to dequeue events from a channel.
type Reader[T any] struct {
	ch *Channel[T]
}

// Read is the same as Channel.Read.
func (r *Reader[T]) Read(timeout time.Duration) (T, error) {
	return r.ch.Read(timeout)
}

// IsClosed is the same as Channel.IsClosed.
func (r *Reader[T]) IsClosed() bool {
	return r.ch.IsClosed()
}
