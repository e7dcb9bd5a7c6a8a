package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MenuItem is one entry of the fixed menu catalog.
type MenuItem struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Order represents one menu item placed at a table.
type Order struct {
	ID                 uuid.UUID `json:"id"`
	TableID            uint32    `json:"table_id"`
	Menu               MenuItem  `json:"menu"`
	CookingTimeMinutes int       `json:"cooking_time_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

// Repository defines behavior for storing orders grouped by table.
type Repository interface {
	List(ctx context.Context, tableID uint32) ([]Order, error)
	Get(ctx context.Context, tableID uint32, id uuid.UUID) (Order, error)
	Append(ctx context.Context, tableID uint32, orders []Order) error
	Delete(ctx context.Context, tableID uint32, id uuid.UUID) error
}

var (
	// ErrNotFound indicates the requested order does not exist at the table.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTable indicates a table id outside the configured range.
	ErrInvalidTable = errors.New("invalid table")
)

// TableRange is the inclusive range of valid table ids.
type TableRange struct {
	Start uint32
	End   uint32
}

// NewTableRange validates and returns a table range.
func NewTableRange(start, end uint32) (TableRange, error) {
	if start == 0 {
		return TableRange{}, errors.New("table range start must be at least 1")
	}
	if start > end {
		return TableRange{}, fmt.Errorf("table range start %d is greater than end %d", start, end)
	}
	return TableRange{Start: start, End: end}, nil
}

// Contains reports whether id is a valid table id.
func (r TableRange) Contains(id uint32) bool {
	return id >= r.Start && id <= r.End
}

// Size returns the number of table ids in the range.
func (r TableRange) Size() int {
	return int(r.End-r.Start) + 1
}

// MarshalJSON encodes the range as a two element array.
func (r TableRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint32{r.Start, r.End})
}

// UnmarshalJSON decodes a two element array and validates it.
func (r *TableRange) UnmarshalJSON(b []byte) error {
	var pair [2]uint32
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	tr, err := NewTableRange(pair[0], pair[1])
	if err != nil {
		return err
	}
	*r = tr
	return nil
}
