// Package testutil provides testing utilities for the CCL engine.
//
// This package is intended for use in tests and benchmarks only. It
// provides helpers for generating synthetic detector-pixel cell grids
// and sorting them into the module order the engine requires.
//
// # Synthetic Cell Generation
//
//	rng := testutil.NewRNG(seed)
//	line := rng.Line(moduleID, 0, 0, 5, 1.0)
//	grid := rng.Grid(moduleID, 0, 10, 4, 4, 1.0)
//	cells := append(line, grid...)
//	testutil.SortCells(cells)
package testutil
