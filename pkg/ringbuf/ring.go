package ringbuf

// Ring is a fixed-size buffer where index 0 is the most recently pushed
// value. Filled counts pushes up to the capacity.
type Ring[T any] struct {
	Data   []T
	Head   int
	Filled int
}

func New[T any](size int) *Ring[T] {
	return &Ring[T]{
		Data: make([]T, size),
	}
}

func (r *Ring[T]) PushFront(v T) *Ring[T] {
	r.Head--
	if r.Head < 0 {
		r.Head = len(r.Data) - 1
	}
	r.Data[r.Head] = v
	if r.Filled < len(r.Data) {
		r.Filled++
	}
	return r
}

func (r *Ring[T]) WalkFirstN(count int, fn func(T)) {
	for i := 0; i < count; i++ {
		fn(r.Data[(r.Head+i)%len(r.Data)])
	}
}

// Last returns up to n pushed values, newest first.
func (r *Ring[T]) Last(n int) []T {
	if n > r.Filled {
		n = r.Filled
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, 0, n)
	r.WalkFirstN(n, func(v T) {
		out = append(out, v)
	})
	return out
}
