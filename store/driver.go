package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Booking model related methods.
	// CreateBooking inserts the booking only when no stored booking overlaps it.
	// It returns ErrBookingConflict otherwise.
	CreateBooking(ctx context.Context, create *Booking) (*Booking, error)
	ListBookings(ctx context.Context, find *FindBooking) ([]*Booking, error)
	DeleteBooking(ctx context.Context, delete *DeleteBooking) error

	// ConversationSession model related methods.
	UpsertConversationSession(ctx context.Context, upsert *ConversationSession) (*ConversationSession, error)
	ListConversationSessions(ctx context.Context, find *FindConversationSession) ([]*ConversationSession, error)
	DeleteConversationSessions(ctx context.Context, delete *DeleteConversationSession) (int64, error)

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error)
}
