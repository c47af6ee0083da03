// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package connector

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Do after Close.
var ErrQueueClosed = errors.New("operation queue closed")

// Queue runs operations one at a time on a single worker goroutine, in
// submission order. It is the serialization boundary in front of a
// Connector.
type Queue struct {
	requests chan request
	closing  chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

type request struct {
	ctx      context.Context
	op       func(context.Context) error
	finished chan error
}

// NewQueue starts the worker. Call Close to stop it.
func NewQueue() *Queue {
	queue := &Queue{
		requests: make(chan request),
		closing:  make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go queue.run()
	return queue
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case <-q.closing:
			return
		case req := <-q.requests:
			req.finished <- req.op(req.ctx)
		}
	}
}

// Do submits op and waits for it to finish, returning its error. If
// ctx ends before op starts, op never runs and ctx's error is
// returned. Once op has started, Do waits for it to return; op
// receives ctx and is responsible for honouring it.
func (q *Queue) Do(ctx context.Context, op func(context.Context) error) error {
	req := request{ctx: ctx, op: op, finished: make(chan error, 1)}
	select {
	case q.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closing:
		return ErrQueueClosed
	}
	return <-req.finished
}

// Close stops accepting operations and waits for the running one, if
// any, to finish.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.closing) })
	<-q.stopped
}
