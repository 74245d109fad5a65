// Package testutil provides testing utilities for rawmem.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, random grow/shrink sequences and a
// reference model to check regions against.
//
// # Random Operation Sequences
//
//	rng := testutil.NewRNG(seed)
//	for _, op := range rng.Ops(200, 64) {
//	    switch op.Kind {
//	    case testutil.OpGrow:   // append op.N elements
//	    case testutil.OpShrink: // remove op.N elements
//	    }
//	}
//
// # Reference Model
//
//	model := testutil.NewModel[uint64]()
//	model.Append(values...)
//	testutil.CheckRegion(t, model, region.Allocated(), region.Capacity())
package testutil
