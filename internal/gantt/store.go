package gantt

import "reflect"

// storeWatcher runs fn whenever the selected value changes.
type storeWatcher struct {
	name     string
	selectFn func(Options) any
	fn       func(next, prev Options)
}

// Store is the observable option store. Watchers run in registration order
// and only when their selected value changes by deep equality.
type Store struct {
	current  Options
	watchers []storeWatcher
}

// NewStore constructs a store holding opts.
func NewStore(opts Options) *Store {
	return &Store{current: opts.Clone()}
}

// Get returns a copy of the current options.
func (s *Store) Get() Options {
	return s.current.Clone()
}

// Watch registers fn to run when selectFn yields a different value.
func (s *Store) Watch(name string, selectFn func(Options) any, fn func(next, prev Options)) {
	s.watchers = append(s.watchers, storeWatcher{name: name, selectFn: selectFn, fn: fn})
}

// Set replaces the options and returns the names of the watchers that ran.
func (s *Store) Set(next Options) []string {
	prev := s.current
	s.current = next.Clone()
	var fired []string
	for _, w := range s.watchers {
		if equalValues(w.selectFn(prev), w.selectFn(s.current)) {
			continue
		}
		fired = append(fired, w.name)
		w.fn(s.current, prev)
	}
	return fired
}

// equalValues is the deep equality used to decide whether a watcher runs.
func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
