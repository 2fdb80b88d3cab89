package session

// Option applies a configuration option to the InMemoryStore.
type Option func(*InMemoryStore)

// WithMaxSize bounds the number of sessions kept. Values <= 0 are ignored.
func WithMaxSize(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithIDGenerator replaces uuid session ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *InMemoryStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithSizeObserver is called with the session count after every change.
func WithSizeObserver(fn func(int)) Option {
	return func(s *InMemoryStore) {
		s.observe = fn
	}
}
