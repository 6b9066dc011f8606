// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"sync"
)

// internal constants
const (
	defaultQueueSize = 1000
)

// Message - a command and its parameters
type Message struct {
	Command    string
	Parameters interface{}
}

// Queue - a single consumer queue
type Queue struct {
	c chan Message
}

// BroadcastQueue - a queue that copies every message to each listener
type BroadcastQueue struct {
	sync.RWMutex
	cs []chan Message
}

// New - create a queue, a size of zero selects the default
func New(size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{
		c: make(chan Message, size),
	}
}

// Send - data to queue, blocks while the queue is full
func (queue *Queue) Send(command string, parameters interface{}) {
	queue.c <- Message{
		Command:    command,
		Parameters: parameters,
	}
}

// TrySend - queue data without blocking, false if the queue is full
func (queue *Queue) TrySend(command string, parameters interface{}) bool {
	select {
	case queue.c <- Message{Command: command, Parameters: parameters}:
		return true
	default:
		return false
	}
}

// SendUntil - queue data, giving up when abort is closed first
func (queue *Queue) SendUntil(command string, parameters interface{}, abort <-chan struct{}) bool {
	select {
	case queue.c <- Message{Command: command, Parameters: parameters}:
		return true
	case <-abort:
		return false
	}
}

// Chan - channel to read from
func (queue *Queue) Chan() <-chan Message {
	return queue.c
}

// Send - copy data to every listener; a listener whose buffer is full
// misses the message rather than stalling the sender
func (queue *BroadcastQueue) Send(command string, parameters interface{}) {
	m := Message{
		Command:    command,
		Parameters: parameters,
	}

	queue.RLock()
	for _, c := range queue.cs {
		select {
		case c <- m:
		default:
		}
	}
	queue.RUnlock()
}

// Chan - add a new listener channel with the given buffer size
func (queue *BroadcastQueue) Chan(size int) <-chan Message {
	if size <= 0 {
		size = defaultQueueSize
	}
	c := make(chan Message, size)

	queue.Lock()
	queue.cs = append(queue.cs, c)
	queue.Unlock()

	return c
}

// Release - remove a listener and close its channel
func (queue *BroadcastQueue) Release(c <-chan Message) {
	queue.Lock()
	defer queue.Unlock()

	for i, ch := range queue.cs {
		if c == (<-chan Message)(ch) {
			queue.cs = append(queue.cs[:i], queue.cs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close - close every listener channel
func (queue *BroadcastQueue) Close() {
	queue.Lock()
	for _, c := range queue.cs {
		close(c)
	}
	queue.cs = nil
	queue.Unlock()
}
