package event

import (
	"reflect"
	"sync"
)

// Hub is a double-buffered publish/subscribe channel owned by the
// Orchestrator. Events published in tick N are delivered at the start of
// tick N+1, after SwapBuffers. Subscriber lifetime is bound to explicit
// Subscribe/Unsubscribe calls — there is no ambient global registry.
type Hub struct {
	mu       sync.Mutex // protects handler registration only
	nextSub  uint64
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]handlerEntry
}

type handlerEntry struct {
	id uint64
	fn any
}

// Subscription identifies one registered handler.
type Subscription struct {
	hub *Hub
	typ reflect.Type
	id  uint64
}

func NewHub() *Hub {
	return &Hub{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]handlerEntry),
	}
}

// Publish queues an event into the back buffer, readable next tick.
func Publish[T any](h *Hub, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	h.back[t] = append(h.back[t], ev)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](h *Hub, fn func(T)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	h.nextSub++
	h.handlers[t] = append(h.handlers[t], handlerEntry{id: h.nextSub, fn: fn})
	return &Subscription{hub: h, typ: t, id: h.nextSub}
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.hub == nil {
		return
	}
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.handlers[s.typ]
	for i, e := range entries {
		if e.id == s.id {
			h.handlers[s.typ] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	s.hub = nil
}

// SwapBuffers rotates back→front and clears the new back buffer. Called once
// at tick start by the Orchestrator.
func (h *Hub) SwapBuffers() {
	h.front, h.back = h.back, h.front
	for k := range h.back {
		h.back[k] = h.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
func (h *Hub) DispatchAll() {
	for t, events := range h.front {
		handlers := h.handlers[t]
		for _, ev := range events {
			for _, e := range handlers {
				// Safe: Subscribe and Publish key on the same type.
				reflect.ValueOf(e.fn).Call([]reflect.Value{reflect.ValueOf(ev)})
			}
		}
	}
}
