// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"iter"
	"sync"
)

type handlerNode[T any] struct {
	value T
	prev  *handlerNode[T]
	next  *handlerNode[T]
}

// HandlerList is a concurrency-safe registry of callbacks that preserves
// registration order and supports removal of individual entries.
type HandlerList[T any] struct {
	mu    sync.RWMutex
	first *handlerNode[T]
	last  *handlerNode[T]
}

func NewHandlerList[T any]() *HandlerList[T] {
	return &HandlerList[T]{}
}

// Add appends a handler and returns a function that removes it again.
// The returned function is idempotent.
func (l *HandlerList[T]) Add(value T) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	node := &handlerNode[T]{value: value}
	if l.last == nil {
		l.first = node
	} else {
		l.last.next = node
	}
	node.prev = l.last
	l.last = node

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if node == nil {
			// already removed
			return
		}

		if node.prev == nil {
			l.first = node.next
		} else {
			node.prev.next = node.next
		}

		if node.next == nil {
			l.last = node.prev
		} else {
			node.next.prev = node.prev
		}

		// release the node for garbage collection
		node = nil
	}
}

// All iterates the registered handlers in registration order.
func (l *HandlerList[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		l.mu.RLock()
		defer l.mu.RUnlock()

		curr := l.first
		for curr != nil && yield(curr.value) {
			curr = curr.next
		}
	}
}
