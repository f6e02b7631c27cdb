package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinHeapOrder(t *testing.T) {
	pq := NewMin(4)
	pq.Push(Item{ID: 3, Distance: 1})
	pq.Push(Item{ID: 1, Distance: 2})
	pq.Push(Item{ID: 2, Distance: 1})
	pq.Push(Item{ID: 0, Distance: 0.5})

	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, 0, top.ID)

	var ids []int
	for pq.Len() > 0 {
		it, _ := pq.Pop()
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int{0, 2, 3, 1}, ids)

	_, ok = pq.Pop()
	assert.False(t, ok)
}

func TestMaxHeapOrder(t *testing.T) {
	pq := NewMax(3)
	pq.Push(Item{ID: 1, Distance: 1})
	pq.Push(Item{ID: 7, Distance: 1})
	pq.Push(Item{ID: 2, Distance: 0})

	top, _ := pq.Top()
	assert.Equal(t, 7, top.ID)
}

func TestPushBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	all := make([]Item, 500)
	for i := range all {
		all[i] = Item{ID: i, Distance: float64(rng.Intn(20))}
	}

	for _, k := range []int{0, 1, 5, 37, 500, 600} {
		pq := NewMax(k)
		for _, it := range all {
			pq.PushBounded(it, k)
		}
		got := pq.Sorted()

		want := append([]Item(nil), all...)
		sort.Slice(want, func(i, j int) bool { return Less(want[i], want[j]) })
		want = want[:min(k, len(want))]

		assert.Equal(t, want, got, "k=%d", k)
		assert.Equal(t, 0, pq.Len())
	}
}

func TestSortedMin(t *testing.T) {
	pq := NewMin(0)
	pq.Push(Item{ID: 2, Distance: 3, Aux: 9})
	pq.Push(Item{ID: 1, Distance: 3})
	got := pq.Sorted()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 9.0, got[1].Aux)

	pq.Push(Item{ID: 4})
	pq.Reset()
	assert.Equal(t, 0, pq.Len())
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(Item{ID: 5, Distance: 1}, Item{ID: 0, Distance: 2}))
	assert.Equal(t, 1, Compare(Item{ID: 2, Distance: 1}, Item{ID: 1, Distance: 1}))
	assert.Equal(t, 0, Compare(Item{ID: 1, Distance: 1, Aux: 3}, Item{ID: 1, Distance: 1}))
}
