package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cortado-db/txnproc/txn"
)

func TestReadMissingKey(t *testing.T) {
	e := New()
	_, ok := e.Read("missing")
	assert.False(t, ok)
	assert.Equal(t, uint64(0), e.Timestamp("missing"))
}

func TestWriteThenRead(t *testing.T) {
	e := New()
	e.Write("a", 7)

	v, ok := e.Read("a")
	assert.True(t, ok)
	assert.Equal(t, txn.Value(7), v)
	assert.Greater(t, e.Timestamp("a"), uint64(0))
}

func TestWriteAdvancesClockMonotonically(t *testing.T) {
	e := New()
	e.Write("a", 1)
	t1 := e.Timestamp("a")
	e.Write("b", 2)
	t2 := e.Timestamp("b")
	assert.Less(t, t1, t2)
	assert.Greater(t, e.Now(), t2, "Now must tick strictly past the last applied write")
}

func TestNowTicksOnEveryCall(t *testing.T) {
	e := New()
	n1 := e.Now()
	n2 := e.Now()
	assert.Less(t, n1, n2)
}

func TestApplyWritesAppliesAllBufferedWrites(t *testing.T) {
	e := New()
	tx := txn.New(1, nil, []txn.Key{"a", "b"}, nil)
	tx.Writes["a"] = "x"
	tx.Writes["b"] = "y"

	e.ApplyWrites(tx)

	va, _ := e.Read("a")
	vb, _ := e.Read("b")
	assert.Equal(t, txn.Value("x"), va)
	assert.Equal(t, txn.Value("y"), vb)
}
