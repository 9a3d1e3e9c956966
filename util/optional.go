package util

// Optional holds a value that may be absent. The zero value is None.
type Optional[T any] struct {
	item   T
	exists bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{
		item:   v,
		exists: true,
	}
}

func (me Optional[T]) Unpack() (T, bool) {
	return me.item, me.exists
}
