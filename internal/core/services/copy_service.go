package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/adapters/persistence/repositories"
	"library-circulation/internal/core/allocator"
	"library-circulation/internal/core/domain"

	"github.com/google/uuid"
)

// DefaultStart is recommended when a title has no category default
var DefaultStart = domain.Coordinate{Section: "A", Shelf: 1, Row: 1, Slot: 1}

// CopyService handles intake and shelf locations of copies
type CopyService struct {
	store *repositories.Store
	alloc *allocator.Allocator
	circ  *CirculationService
}

// NewCopyService creates a new copy service
func NewCopyService(store *repositories.Store, alloc *allocator.Allocator, circ *CirculationService) *CopyService {
	return &CopyService{store: store, alloc: alloc, circ: circ}
}

// CoordinateInput is a coordinate from a request
type CoordinateInput struct {
	Section string `json:"section" validate:"required,max=10"`
	Shelf   int    `json:"shelf" validate:"required,min=1"`
	Row     int    `json:"row" validate:"required,min=1"`
	Slot    int    `json:"slot" validate:"required,min=1"`
}

// Coordinate converts the input
func (c CoordinateInput) Coordinate() domain.Coordinate {
	return domain.Coordinate{Section: strings.ToUpper(c.Section), Shelf: c.Shelf, Row: c.Row, Slot: c.Slot}
}

// AddCopiesInput represents a copy intake request
type AddCopiesInput struct {
	Count        int              `json:"count" validate:"required,min=1,max=100"`
	Condition    string           `json:"condition" validate:"omitempty,oneof=new good fair poor"`
	AutoLocation bool             `json:"auto_location"`
	Location     *CoordinateInput `json:"location,omitempty"`
}

// AddCopies registers new copies of a title. With auto location each copy
// gets the next free slot starting from the recommended location; with an
// explicit location the copies fill consecutive slots from there.
func (s *CopyService) AddCopies(ctx context.Context, bookID uint, input *AddCopiesInput, actor domain.Actor) (copies []*models.BookCopy, err error) {
	defer observe("add_copies", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Location != nil {
		if err := validateInput(input.Location); err != nil {
			return nil, err
		}
	}
	condition := input.Condition
	if condition == "" {
		condition = string(domain.ConditionNew)
	}

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		book, err := tx.Books.GetForUpdate(ctx, bookID)
		if err != nil {
			return notFound(err, "book", bookID)
		}
		number, err := tx.Copies.NextCopyNumber(ctx, bookID)
		if err != nil {
			return err
		}

		var cursor *domain.Coordinate
		switch {
		case input.Location != nil:
			c := input.Location.Coordinate()
			cursor = &c
		case input.AutoLocation:
			c, err := s.startFor(ctx, tx, book)
			if err != nil {
				return err
			}
			cursor = &c
		}

		now := s.circ.now()
		copies = make([]*models.BookCopy, 0, input.Count)
		for i := 0; i < input.Count; i++ {
			var location *domain.Coordinate
			if cursor != nil {
				placed, grid, err := s.place(ctx, tx, fx, *cursor, input.AutoLocation && input.Location == nil)
				if err != nil {
					return err
				}
				location = &placed
				nextCursor := allocator.Next(grid, placed)
				cursor = &nextCursor
			}

			bookCopy := &models.BookCopy{
				BookID:     bookID,
				CopyNumber: number,
				Barcode:    newBarcode(bookID, number),
				Status:     string(domain.CopyAvailable),
				Condition:  condition,
				IsActive:   true,
				AcquiredAt: &now,
			}
			bookCopy.SetLocation(location)
			if err := tx.Copies.Create(ctx, bookCopy); err != nil {
				return storeErr(err)
			}

			note := "intake"
			if location != nil {
				note += " at " + location.String()
			}
			if err := tx.History.Create(ctx, &models.CopyTransaction{
				CopyID:          bookCopy.ID,
				BookID:          bookID,
				TransactionType: domain.TxIntake,
				ToStatus:        string(domain.CopyAvailable),
				Note:            note,
				PerformedBy:     actorID(actor),
				IPAddress:       actor.IPAddress,
			}); err != nil {
				return err
			}

			copies = append(copies, bookCopy)
			number++
		}

		if err := s.circ.adjustCounts(ctx, tx, bookID, input.Count, input.Count); err != nil {
			return err
		}
		fx.audit("add_copies", "book", bookID, actor, map[string]interface{}{"count": input.Count})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.circ.hooks.flush(ctx, fx)
	return copies, nil
}

// place resolves one intake coordinate inside tx. With search enabled the
// allocator finds the nearest free slot; otherwise the coordinate itself
// must be free.
func (s *CopyService) place(ctx context.Context, tx *repositories.Store, fx *effects, c domain.Coordinate, search bool) (domain.Coordinate, allocator.Grid, error) {
	if search {
		res, err := s.alloc.Find(ctx, tx.Slots(), c)
		if err != nil {
			return domain.Coordinate{}, allocator.Grid{}, err
		}
		c = res.Coordinate
		fx.allocations = append(fx.allocations, res.Strategy)
	}

	grid, err := s.gridFor(ctx, tx.Grids, c)
	if err != nil {
		return domain.Coordinate{}, allocator.Grid{}, err
	}
	occupant, err := tx.Copies.FindOccupant(ctx, c, 0)
	if err != nil {
		return domain.Coordinate{}, allocator.Grid{}, err
	}
	if occupant != nil {
		return domain.Coordinate{}, allocator.Grid{}, fmt.Errorf("%w: %s is held by copy %d", domain.ErrConflict, c, occupant.ID)
	}
	return c, grid, nil
}

// gridFor loads the grid of c's section and checks c lies inside it
func (s *CopyService) gridFor(ctx context.Context, src allocator.Grids, c domain.Coordinate) (allocator.Grid, error) {
	grid, err := src.Grid(ctx, c.Section)
	if errors.Is(err, domain.ErrNotFound) {
		return allocator.Grid{}, fmt.Errorf("%w: section %s is not configured", domain.ErrValidation, c.Section)
	}
	if err != nil {
		return allocator.Grid{}, err
	}
	if !grid.Contains(c) {
		return allocator.Grid{}, fmt.Errorf("%w: %s is outside section %s (%dx%dx%d)",
			domain.ErrValidation, c, grid.Section, grid.ShelfCount, grid.RowsPerShelf, grid.SlotsPerRow)
	}
	return grid, nil
}

// startFor returns the category default coordinate of a title
func (s *CopyService) startFor(ctx context.Context, tx *repositories.Store, book *models.Book) (domain.Coordinate, error) {
	if book.CategoryID == nil {
		return DefaultStart, nil
	}
	category, err := tx.Categories.GetByID(ctx, *book.CategoryID)
	if err != nil {
		return domain.Coordinate{}, notFound(err, "category", *book.CategoryID)
	}
	return category.DefaultCoordinate(), nil
}

// Recommendation is a suggested free slot. It does not reserve the slot.
type Recommendation struct {
	Start      domain.Coordinate  `json:"start"`
	Coordinate domain.Coordinate  `json:"coordinate"`
	Strategy   allocator.Strategy `json:"strategy"`
}

// RecommendLocation suggests a free slot for a new copy of a title
func (s *CopyService) RecommendLocation(ctx context.Context, bookID uint) (rec *Recommendation, err error) {
	defer observe("recommend_location", time.Now(), &err)

	book, err := s.store.Books.GetByID(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "book", bookID)
	}
	start, err := s.startFor(ctx, s.store, book)
	if err != nil {
		return nil, err
	}
	res, err := s.alloc.Find(ctx, s.store.Slots(), start)
	if err != nil {
		return nil, err
	}
	return &Recommendation{Start: start, Coordinate: res.Coordinate, Strategy: res.Strategy}, nil
}

// SlotStatus reports who holds a coordinate
type SlotStatus struct {
	Coordinate domain.Coordinate    `json:"coordinate"`
	Occupied   bool                 `json:"occupied"`
	Occupant   *models.CopyResponse `json:"occupant,omitempty"`
}

// CheckSlot reports whether an active copy other than excludeCopyID holds c
func (s *CopyService) CheckSlot(ctx context.Context, c domain.Coordinate, excludeCopyID uint) (*SlotStatus, error) {
	if _, err := s.gridFor(ctx, s.store.Grids, c); err != nil {
		return nil, err
	}
	occupant, err := s.store.Copies.FindOccupant(ctx, c, excludeCopyID)
	if err != nil {
		return nil, err
	}
	status := &SlotStatus{Coordinate: c, Occupied: occupant != nil}
	if occupant != nil {
		status.Occupant = occupant.ToResponse()
	}
	return status, nil
}

// MoveCopy writes a new coordinate for a copy, or clears it when c is nil.
// Occupancy is re-checked inside the writing transaction and the unique
// index rejects a concurrent writer.
func (s *CopyService) MoveCopy(ctx context.Context, copyID uint, c *domain.Coordinate, actor domain.Actor) (bookCopy *models.BookCopy, err error) {
	defer observe("move_copy", time.Now(), &err)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		bookCopy, err = tx.Copies.GetForUpdate(ctx, copyID)
		if err != nil {
			return notFound(err, "copy", copyID)
		}
		if !bookCopy.IsActive {
			return fmt.Errorf("%w: copy %d is deactivated", domain.ErrConflict, copyID)
		}

		if c != nil {
			if _, err := s.gridFor(ctx, tx.Grids, *c); err != nil {
				return err
			}
			occupant, err := tx.Copies.FindOccupant(ctx, *c, copyID)
			if err != nil {
				return err
			}
			if occupant != nil {
				return fmt.Errorf("%w: %s is held by copy %d", domain.ErrConflict, c, occupant.ID)
			}
		}

		from := "unshelved"
		if loc := bookCopy.Location(); loc != nil {
			from = loc.String()
		}
		to := "unshelved"
		if c != nil {
			to = c.String()
		}

		if err := tx.Copies.UpdateLocation(ctx, copyID, c); err != nil {
			return storeErr(err)
		}
		bookCopy.SetLocation(c)

		if err := tx.History.Create(ctx, &models.CopyTransaction{
			CopyID:          copyID,
			BookID:          bookCopy.BookID,
			TransactionType: domain.TxRelocate,
			FromStatus:      bookCopy.Status,
			ToStatus:        bookCopy.Status,
			Note:            from + " -> " + to,
			PerformedBy:     actorID(actor),
			IPAddress:       actor.IPAddress,
		}); err != nil {
			return err
		}
		fx.audit("move_copy", "copy", copyID, actor, map[string]interface{}{"from": from, "to": to})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.circ.hooks.flush(ctx, fx)
	return bookCopy, nil
}

// GetCopy gets a copy by ID
func (s *CopyService) GetCopy(ctx context.Context, id uint) (*models.BookCopy, error) {
	bookCopy, err := s.store.Copies.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "copy", id)
	}
	return bookCopy, nil
}

// ListCopies lists all copies of a title
func (s *CopyService) ListCopies(ctx context.Context, bookID uint) ([]*models.BookCopy, error) {
	if _, err := s.store.Books.GetByID(ctx, bookID); err != nil {
		return nil, notFound(err, "book", bookID)
	}
	return s.store.Copies.ListByBook(ctx, bookID)
}

// History lists the transaction log of a copy
func (s *CopyService) History(ctx context.Context, copyID uint, offset, limit int) ([]*models.CopyTransaction, int64, error) {
	if _, err := s.store.Copies.GetByID(ctx, copyID); err != nil {
		return nil, 0, notFound(err, "copy", copyID)
	}
	return s.store.History.ListByCopy(ctx, copyID, offset, limit)
}

// ListSections lists the configured section grids
func (s *CopyService) ListSections(ctx context.Context) ([]*models.SectionGrid, error) {
	return s.store.Grids.List(ctx)
}

// newBarcode builds a unique barcode: book, copy number and a random suffix
func newBarcode(bookID uint, number int) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("BK%06d-%03d-%s", bookID, number, suffix)
}
