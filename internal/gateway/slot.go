package gateway

// slot holds an optional sub-component. It is assigned once during
// composition and read-only afterwards.
type slot[T any] struct {
	value   T
	present bool
}

func filled[T any](v T) slot[T] {
	return slot[T]{value: v, present: true}
}

// get returns the component and whether it is present.
func (s slot[T]) get() (T, bool) {
	return s.value, s.present
}
