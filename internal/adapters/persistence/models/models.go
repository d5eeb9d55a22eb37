package models

import (
	"time"

	"library-circulation/internal/core/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Catalog & Location Configuration
// ============================================================

// Category groups titles and carries their default shelf location
type Category struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	DefaultSection string    `gorm:"size:10;not null;default:'A'" json:"default_section"`
	DefaultShelf   int       `gorm:"not null;default:1" json:"default_shelf"`
	DefaultRow     int       `gorm:"not null;default:1" json:"default_row"`
	DefaultSlot    int       `gorm:"not null;default:1" json:"default_slot"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCoordinate returns the category's recommended location
func (c *Category) DefaultCoordinate() domain.Coordinate {
	return domain.Coordinate{
		Section: c.DefaultSection,
		Shelf:   c.DefaultShelf,
		Row:     c.DefaultRow,
		Slot:    c.DefaultSlot,
	}
}

// Book is the catalog entry for one title. TotalCopies and AvailableCopies
// are a cache over book_copies.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Author          string         `gorm:"size:255" json:"author"`
	ISBN            *string        `gorm:"size:20;uniqueIndex" json:"isbn"`
	CategoryID      *uint          `gorm:"index" json:"category_id"`
	TotalCopies     int            `gorm:"not null;default:0" json:"total_copies"`
	AvailableCopies int            `gorm:"not null;default:0" json:"available_copies"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// SectionGrid is the slot grid of one physical section
type SectionGrid struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SectionCode  string    `gorm:"size:10;uniqueIndex;not null" json:"section_code"`
	ShelfCount   int       `gorm:"not null" json:"shelf_count"`
	RowsPerShelf int       `gorm:"not null" json:"rows_per_shelf"`
	SlotsPerRow  int       `gorm:"not null" json:"slots_per_row"`
	Description  string    `gorm:"size:255" json:"description"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SectionGrid) TableName() string {
	return "section_grids"
}

// ============================================================
// Copy Registry
// ============================================================

// BookCopy is one physical copy. The location columns are either all set or
// all NULL; the unique index keeps two copies out of the same slot.
type BookCopy struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"not null;index;uniqueIndex:idx_copy_number" json:"book_id"`
	CopyNumber int        `gorm:"not null;uniqueIndex:idx_copy_number" json:"copy_number"`
	Barcode    string     `gorm:"size:64;not null;uniqueIndex" json:"barcode"`
	Status     string     `gorm:"size:20;not null;default:'available';index" json:"status"`
	Condition  string     `gorm:"size:20;not null;default:'good'" json:"condition"`
	Section    *string    `gorm:"column:location_section;size:10;uniqueIndex:idx_copy_location" json:"section"`
	Shelf      *int       `gorm:"column:location_shelf;uniqueIndex:idx_copy_location" json:"shelf"`
	Row        *int       `gorm:"column:location_row;uniqueIndex:idx_copy_location" json:"row"`
	Slot       *int       `gorm:"column:location_slot;uniqueIndex:idx_copy_location" json:"slot"`
	IsActive   bool       `gorm:"not null;default:true;index" json:"is_active"`
	Notes      string     `gorm:"type:text" json:"notes"`
	AcquiredAt *time.Time `json:"acquired_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (BookCopy) TableName() string {
	return "book_copies"
}

// CopyStatus returns the typed status
func (c *BookCopy) CopyStatus() domain.CopyStatus {
	return domain.CopyStatus(c.Status)
}

// Location returns the copy coordinate, or nil when unshelved
func (c *BookCopy) Location() *domain.Coordinate {
	if c.Section == nil || c.Shelf == nil || c.Row == nil || c.Slot == nil {
		return nil
	}
	return &domain.Coordinate{Section: *c.Section, Shelf: *c.Shelf, Row: *c.Row, Slot: *c.Slot}
}

// SetLocation sets or clears the coordinate columns
func (c *BookCopy) SetLocation(coord *domain.Coordinate) {
	if coord == nil {
		c.Section, c.Shelf, c.Row, c.Slot = nil, nil, nil, nil
		return
	}
	section, shelf, row, slot := coord.Section, coord.Shelf, coord.Row, coord.Slot
	c.Section, c.Shelf, c.Row, c.Slot = &section, &shelf, &row, &slot
}

// CopyResponse DTO
type CopyResponse struct {
	ID         uint               `json:"id"`
	BookID     uint               `json:"book_id"`
	CopyNumber int                `json:"copy_number"`
	Barcode    string             `json:"barcode"`
	Status     string             `json:"status"`
	Condition  string             `json:"condition"`
	Location   *domain.Coordinate `json:"location"`
	IsActive   bool               `json:"is_active"`
	CreatedAt  time.Time          `json:"created_at"`
}

func (c *BookCopy) ToResponse() *CopyResponse {
	return &CopyResponse{
		ID:         c.ID,
		BookID:     c.BookID,
		CopyNumber: c.CopyNumber,
		Barcode:    c.Barcode,
		Status:     c.Status,
		Condition:  c.Condition,
		Location:   c.Location(),
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
	}
}

// ============================================================
// Circulation
// ============================================================

// Reservation is a patron request for a title, optionally a specific copy
type Reservation struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BookID          uint       `gorm:"not null;index:idx_reservation_pair" json:"book_id"`
	PatronID        uint       `gorm:"not null;index:idx_reservation_pair" json:"patron_id"`
	CopyID          *uint      `gorm:"index" json:"copy_id"`
	ReservationType string     `gorm:"size:20;not null;default:'any_copy'" json:"reservation_type"`
	Status          string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CopyHeld        bool       `gorm:"not null;default:false" json:"copy_held"`
	ReservedAt      time.Time  `gorm:"not null;index" json:"reserved_at"`
	ExpiresAt       *time.Time `gorm:"index" json:"expires_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ApprovedBy      *uint      `json:"approved_by"`
	LoanID          *uint      `json:"loan_id"`
	DeclineReason   string     `gorm:"size:255" json:"decline_reason,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// Loan is a borrow record
type Loan struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BookID          uint       `gorm:"not null;index" json:"book_id"`
	CopyID          uint       `gorm:"not null;index" json:"copy_id"`
	PatronID        uint       `gorm:"not null;index" json:"patron_id"`
	ReservationID   *uint      `gorm:"index" json:"reservation_id"`
	BorrowedAt      time.Time  `gorm:"not null" json:"borrowed_at"`
	DueDate         time.Time  `gorm:"not null;index" json:"due_date"`
	ReturnedAt      *time.Time `json:"returned_at"`
	Status          string     `gorm:"size:20;not null;default:'borrowed';index" json:"status"`
	LateFee         float64    `gorm:"type:decimal(10,2);not null;default:0" json:"late_fee"`
	DamageFee       float64    `gorm:"type:decimal(10,2);not null;default:0" json:"damage_fee"`
	TotalFee        float64    `gorm:"type:decimal(10,2);not null;default:0" json:"total_fee"`
	ReturnCondition string     `gorm:"size:20" json:"return_condition,omitempty"`
	DamageNotes     string     `gorm:"type:text" json:"damage_notes,omitempty"`
	ProcessedBy     *uint      `json:"processed_by"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Copy *BookCopy `gorm:"foreignKey:CopyID" json:"copy,omitempty"`
}

func (Loan) TableName() string {
	return "borrow_records"
}

// LoanStatus returns the typed status
func (l *Loan) LoanStatus() domain.LoanStatus {
	return domain.LoanStatus(l.Status)
}

// CopyTransaction is the append-only history of copy status changes
type CopyTransaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CopyID          uint      `gorm:"not null;index" json:"copy_id"`
	BookID          uint      `gorm:"not null;index" json:"book_id"`
	TransactionType string    `gorm:"size:30;not null" json:"transaction_type"`
	FromStatus      string    `gorm:"size:20" json:"from_status"`
	ToStatus        string    `gorm:"size:20" json:"to_status"`
	LoanID          *uint     `gorm:"index" json:"loan_id"`
	ReservationID   *uint     `gorm:"index" json:"reservation_id"`
	Note            string    `gorm:"type:text" json:"note"`
	PerformedBy     *uint     `json:"performed_by"`
	IPAddress       string    `gorm:"size:50" json:"ip_address"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CopyTransaction) TableName() string {
	return "copy_transactions"
}

// CirculationEvent is an outbox row for the external notifier. It is
// written in the same transaction as the change it describes.
type CirculationEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   string         `gorm:"size:50;not null;index" json:"event_type"`
	TargetType  string         `gorm:"size:20;not null" json:"target_type"`
	TargetID    uint           `gorm:"not null" json:"target_id"`
	Message     string         `gorm:"type:text" json:"message"`
	Payload     datatypes.JSON `json:"payload"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   string         `gorm:"type:text" json:"last_error,omitempty"`
	DeliveredAt *time.Time     `gorm:"index" json:"delivered_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (CirculationEvent) TableName() string {
	return "circulation_events"
}

// Event types
const (
	EventReservationCreated  = "reservation_created"
	EventReservationApproved = "reservation_approved"
	EventReservationDeclined = "reservation_declined"
	EventReservationExpired  = "reservation_expired"
	EventLoanReturned        = "loan_returned"
	EventLoanOverdue         = "loan_overdue"
)

// Event targets
const (
	TargetPatron = "patron"
	TargetStaff  = "staff"
)

// Setting is a runtime key/value override
type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SettingKey  string    `gorm:"size:50;uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"size:255;not null" json:"value"`
	Description string    `gorm:"size:255" json:"description"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all circulation tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Configuration
		&Category{},
		&SectionGrid{},
		&Setting{},
		// Catalog & registry
		&Book{},
		&BookCopy{},
		// Circulation
		&Reservation{},
		&Loan{},
		&CopyTransaction{},
		&CirculationEvent{},
	)
}
