package database

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a code with the given id does not exist.
var ErrNotFound = errors.New("code not found")

// Code is a generated QR image together with the text it encodes.
type Code struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	Format    string    `db:"format"`     // jpeg or png
	Image     []byte    `db:"image"`      // encoded image bytes
	CreatedAt time.Time `db:"created_at"` // UTC
}

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	CreateCode(content, format string, image []byte) (string, error)
	// GetCodeByID returns nil, nil when no code has the id.
	GetCodeByID(id string) (*Code, error)
	// GetCodes returns all codes oldest first. When fields are given only those
	// columns are loaded; the rest stay at their zero value.
	GetCodes(fields ...string) ([]*Code, error)
	DeleteCode(id string) error
}
