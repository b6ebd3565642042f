package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushPopFIFO(t *testing.T) {
	q := New[int](16)
	a, b, c := 1, 2, 3
	q.Push(&a)
	q.Push(&b)
	q.Push(&c)

	v1, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, *v1)

	v2, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 2, *v2)

	v3, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 3, *v3)
}

func TestPopEmptyReportsFalse(t *testing.T) {
	q := New[string](4)
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestPushPopDeliversEveryItemInBulk(t *testing.T) {
	q := New[int](256)
	const n = 100

	values := make([]int, n)
	for i := range values {
		values[i] = i
		q.Push(&values[i])
	}

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		v, ok := q.Pop()
		assert.True(t, ok)
		seen[*v] = true
	}
	assert.Len(t, seen, n)
}
