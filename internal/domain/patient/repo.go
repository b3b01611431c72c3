package patient

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListByRoom(ctx context.Context, room, limit, offset int) ([]*Patient, int, error)
	ListWaiting(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListActive(ctx context.Context) ([]*Patient, error)

	// NextWaiting returns the earliest-arrived waiting patient for the room,
	// or nil when the room's waiting set is empty.
	NextWaiting(ctx context.Context, room int) (*Patient, error)

	// ClaimWaiting moves the patient into consultation only if it is still
	// waiting. Returns nil when the row was no longer waiting.
	ClaimWaiting(ctx context.Context, id int64) (*Patient, error)

	UpdateStatus(ctx context.Context, id int64, status Status) (*Patient, error)
}
