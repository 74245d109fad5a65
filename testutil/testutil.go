package testutil

import (
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Uint64s returns n pseudo-random uint64 values.
// Locks only once per call (preferred over calling Uint64 in a loop).
func (r *RNG) Uint64s(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, n)
	for i := range out {
		out[i] = r.rand.Uint64()
	}
	return out
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, n)
	_, _ = r.rand.Read(out)
	return out
}

// OpKind selects the mutation of an Op.
type OpKind int

const (
	OpGrow OpKind = iota
	OpShrink
)

// Op is one step of a random mutation sequence.
type Op struct {
	Kind OpKind
	N    int
}

// Ops returns n random operations. Grows append up to maxGrow elements;
// shrinks never remove more than the running length, so a correct region
// accepts every step.
func (r *RNG) Ops(n, maxGrow int) []Op {
	r.mu.Lock()
	defer r.mu.Unlock()

	ops := make([]Op, 0, n)
	length := 0
	for range n {
		if length > 0 && r.rand.Intn(3) == 0 {
			k := r.rand.Intn(length + 1)
			ops = append(ops, Op{Kind: OpShrink, N: k})
			length -= k
			continue
		}
		k := r.rand.Intn(maxGrow + 1)
		ops = append(ops, Op{Kind: OpGrow, N: k})
		length += k
	}
	return ops
}

// Model is the expected content of a region.
type Model[T any] struct {
	items []T
}

// NewModel returns an empty model.
func NewModel[T any]() *Model[T] {
	return &Model[T]{}
}

// Append adds values to the tail.
func (m *Model[T]) Append(values ...T) {
	m.items = append(m.items, values...)
}

// Truncate removes n elements from the tail.
func (m *Model[T]) Truncate(n int) {
	m.items = m.items[:len(m.items)-n]
}

// Len returns the expected length.
func (m *Model[T]) Len() int {
	return len(m.items)
}

// Items returns a copy of the expected content.
func (m *Model[T]) Items() []T {
	return slices.Clone(m.items)
}

// CheckRegion fails t unless allocated matches the model exactly and
// fits within capacity.
func CheckRegion[T any](t testing.TB, model *Model[T], allocated []T, capacity int) {
	t.Helper()
	require.GreaterOrEqual(t, capacity, len(allocated), "length exceeds capacity")
	require.Len(t, allocated, model.Len())
	if model.Len() > 0 {
		require.Equal(t, model.items, allocated)
	}
}
