package wizard

import "golang.org/x/exp/constraints"

// WindowSize is the number of most recent readings averaged per phase.
const WindowSize = 20

// window is a bounded FIFO of raw readings. The oldest value is evicted once
// the window is full.
type window[T constraints.Integer] struct {
	buf  []T
	size int
}

func newWindow[T constraints.Integer](size int) *window[T] {
	return &window[T]{buf: make([]T, 0, size), size: size}
}

func (w *window[T]) push(v T) {
	if len(w.buf) == w.size {
		copy(w.buf, w.buf[1:])
		w.buf = w.buf[:len(w.buf)-1]
	}
	w.buf = append(w.buf, v)
}

func (w *window[T]) len() int { return len(w.buf) }

func (w *window[T]) clear() { w.buf = w.buf[:0] }

// average returns the floor of the mean. ok is false for an empty window.
func (w *window[T]) average() (avg T, ok bool) {
	n := int64(len(w.buf))
	if n == 0 {
		return 0, false
	}
	var sum int64
	for _, v := range w.buf {
		sum += int64(v)
	}
	q := sum / n
	if sum%n != 0 && sum < 0 {
		q--
	}
	return T(q), true
}
