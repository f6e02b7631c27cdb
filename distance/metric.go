package distance

// Metric computes the distance between two items of type T.
type Metric[T any] interface {
	// Distance returns d(a, b).
	Distance(a, b T) float64
	// Name identifies the metric. It is recorded in persisted trees.
	Name() string
}

// Func is a function type for distance calculation.
type Func[T any] func(a, b T) float64

type funcMetric[T any] struct {
	name string
	fn   Func[T]
}

func (m funcMetric[T]) Distance(a, b T) float64 { return m.fn(a, b) }

func (m funcMetric[T]) Name() string { return m.name }

// New adapts a plain function into a named Metric.
func New[T any](name string, fn Func[T]) Metric[T] {
	return funcMetric[T]{name: name, fn: fn}
}

// Counting wraps a metric and counts evaluations. The counter is not
// synchronized; use one per goroutine.
type Counting[T any] struct {
	Metric[T]
	Calls int64
}

// Distance implements Metric.
func (c *Counting[T]) Distance(a, b T) float64 {
	c.Calls++
	return c.Metric.Distance(a, b)
}
