package gantt

// Event is a typed event with ordered listeners.
type Event[T any] struct {
	next      int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// On registers fn and returns a function that removes it.
func (e *Event[T]) On(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	e.next++
	id := e.next
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})
	return func() {
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// raise calls every listener registered at the time of the call.
func (e *Event[T]) raise(v T) {
	listeners := append([]listener[T](nil), e.listeners...)
	for _, l := range listeners {
		l.fn(v)
	}
}
