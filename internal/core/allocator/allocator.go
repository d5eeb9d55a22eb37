package allocator

import (
	"context"
	"errors"
	"fmt"

	"library-circulation/internal/core/domain"
)

// DefaultMaxRadius bounds the expanding neighbour search
const DefaultMaxRadius = 3

// DefaultSectionOrder is the cyclic rollover order
var DefaultSectionOrder = []string{"A", "B", "C", "D", "E", "F"}

// Strategy names which search step produced a coordinate
type Strategy string

const (
	StrategyExact    Strategy = "exact"
	StrategyRadius   Strategy = "radius"
	StrategyScan     Strategy = "scan"
	StrategyRollover Strategy = "rollover"
)

// Grid is the bounds of one section
type Grid struct {
	Section      string `json:"section" yaml:"section"`
	ShelfCount   int    `json:"shelf_count" yaml:"shelf_count"`
	RowsPerShelf int    `json:"rows_per_shelf" yaml:"rows_per_shelf"`
	SlotsPerRow  int    `json:"slots_per_row" yaml:"slots_per_row"`
}

// Validate checks the grid has positive bounds
func (g Grid) Validate() error {
	if g.Section == "" {
		return fmt.Errorf("%w: section code is required", domain.ErrValidation)
	}
	if g.ShelfCount < 1 || g.RowsPerShelf < 1 || g.SlotsPerRow < 1 {
		return fmt.Errorf("%w: section %s grid bounds must be positive", domain.ErrValidation, g.Section)
	}
	return nil
}

// Capacity returns the number of slots in the section
func (g Grid) Capacity() int {
	return g.ShelfCount * g.RowsPerShelf * g.SlotsPerRow
}

// Contains reports whether c lies inside the grid
func (g Grid) Contains(c domain.Coordinate) bool {
	return c.Section == g.Section &&
		c.Shelf >= 1 && c.Shelf <= g.ShelfCount &&
		c.Row >= 1 && c.Row <= g.RowsPerShelf &&
		c.Slot >= 1 && c.Slot <= g.SlotsPerRow
}

// Grids looks up section bounds. Missing sections return an error wrapping
// domain.ErrNotFound.
type Grids interface {
	Grid(ctx context.Context, section string) (Grid, error)
}

// Occupancy answers point and section occupancy queries against active copies
type Occupancy interface {
	IsOccupied(ctx context.Context, c domain.Coordinate) (bool, error)
	OccupiedInSection(ctx context.Context, section string) (map[domain.Coordinate]bool, error)
}

// Source is the transaction-scoped view the allocator searches
type Source interface {
	Grids
	Occupancy
}

// Result is a free coordinate plus the step that found it
type Result struct {
	Coordinate domain.Coordinate `json:"coordinate"`
	Strategy   Strategy          `json:"strategy"`
}

// Allocator finds free coordinates
type Allocator struct {
	maxRadius    int
	sectionOrder []string
}

// New creates an allocator. maxRadius <= 0 uses DefaultMaxRadius.
func New(maxRadius int) *Allocator {
	if maxRadius <= 0 {
		maxRadius = DefaultMaxRadius
	}
	return &Allocator{
		maxRadius:    maxRadius,
		sectionOrder: DefaultSectionOrder,
	}
}

// WithSectionOrder overrides the rollover order
func (a *Allocator) WithSectionOrder(order []string) *Allocator {
	cp := *a
	cp.sectionOrder = append([]string(nil), order...)
	return &cp
}

// Find returns a free coordinate starting at start, or an error wrapping
// domain.ErrCapacityExhausted when every configured section is full.
func (a *Allocator) Find(ctx context.Context, src Source, start domain.Coordinate) (Result, error) {
	grid, err := src.Grid(ctx, start.Section)
	if err != nil {
		return Result{}, err
	}
	if !grid.Contains(start) {
		return Result{}, fmt.Errorf("%w: coordinate %s outside section grid", domain.ErrValidation, start)
	}

	// 1. Exact
	taken, err := src.IsOccupied(ctx, start)
	if err != nil {
		return Result{}, err
	}
	if !taken {
		return Result{Coordinate: start, Strategy: StrategyExact}, nil
	}

	// 2. Expanding radius
	if c, ok, err := a.searchRadius(ctx, src, grid, start); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Coordinate: c, Strategy: StrategyRadius}, nil
	}

	// 3. Whole section
	if c, ok, err := scanSection(ctx, src, grid); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Coordinate: c, Strategy: StrategyScan}, nil
	}

	// 4. Rollover
	for _, section := range a.rolloverSections(start.Section) {
		next, err := src.Grid(ctx, section)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return Result{}, err
		}
		if c, ok, err := scanSection(ctx, src, next); err != nil {
			return Result{}, err
		} else if ok {
			return Result{Coordinate: c, Strategy: StrategyRollover}, nil
		}
	}

	return Result{}, fmt.Errorf("%w: no free slot from %s in any section", domain.ErrCapacityExhausted, start)
}

// Neighbours returns the in-bounds candidates at radius r, in search order
func Neighbours(g Grid, c domain.Coordinate, r int) []domain.Coordinate {
	candidates := []domain.Coordinate{
		{Section: c.Section, Shelf: c.Shelf, Row: c.Row, Slot: c.Slot + r},
		{Section: c.Section, Shelf: c.Shelf, Row: c.Row, Slot: c.Slot - r},
		{Section: c.Section, Shelf: c.Shelf, Row: c.Row + r, Slot: c.Slot},
		{Section: c.Section, Shelf: c.Shelf, Row: c.Row - r, Slot: c.Slot},
		{Section: c.Section, Shelf: c.Shelf + r, Row: c.Row, Slot: c.Slot},
		{Section: c.Section, Shelf: c.Shelf - r, Row: c.Row, Slot: c.Slot},
	}
	out := candidates[:0]
	for _, cand := range candidates {
		if g.Contains(cand) {
			out = append(out, cand)
		}
	}
	return out
}

func (a *Allocator) searchRadius(ctx context.Context, occ Occupancy, g Grid, start domain.Coordinate) (domain.Coordinate, bool, error) {
	for r := 1; r <= a.maxRadius; r++ {
		for _, cand := range Neighbours(g, start, r) {
			taken, err := occ.IsOccupied(ctx, cand)
			if err != nil {
				return domain.Coordinate{}, false, err
			}
			if !taken {
				return cand, true, nil
			}
		}
	}
	return domain.Coordinate{}, false, nil
}

func scanSection(ctx context.Context, occ Occupancy, g Grid) (domain.Coordinate, bool, error) {
	taken, err := occ.OccupiedInSection(ctx, g.Section)
	if err != nil {
		return domain.Coordinate{}, false, err
	}
	if len(taken) >= g.Capacity() {
		return domain.Coordinate{}, false, nil
	}
	for shelf := 1; shelf <= g.ShelfCount; shelf++ {
		for row := 1; row <= g.RowsPerShelf; row++ {
			for slot := 1; slot <= g.SlotsPerRow; slot++ {
				c := domain.Coordinate{Section: g.Section, Shelf: shelf, Row: row, Slot: slot}
				if !taken[c] {
					return c, true, nil
				}
			}
		}
	}
	return domain.Coordinate{}, false, nil
}

// rolloverSections lists the sections to try after current, in cyclic order
func (a *Allocator) rolloverSections(current string) []string {
	n := len(a.sectionOrder)
	idx := -1
	for i, s := range a.sectionOrder {
		if s == current {
			idx = i
			break
		}
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s := a.sectionOrder[(idx+i+n)%n]
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

// Next returns the coordinate after c: slot+1, cascading into row then
// shelf, wrapping shelf back to 1. Section rollover is left to the caller.
func Next(g Grid, c domain.Coordinate) domain.Coordinate {
	next := c
	next.Slot++
	if next.Slot > g.SlotsPerRow {
		next.Slot = 1
		next.Row++
		if next.Row > g.RowsPerShelf {
			next.Row = 1
			next.Shelf++
			if next.Shelf > g.ShelfCount {
				next.Shelf = 1
			}
		}
	}
	return next
}
