package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var codeColumns = []string{"id", "content", "format", "image", "created_at"}

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
	now              func() time.Time
}

func NewSQLiteDatabase(connectionString string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: opens its own empty database.
	if isMemory(connectionString) {
		db.SetMaxOpenConns(1)
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
		now:              time.Now,
	}, nil
}

func isMemory(connectionString string) bool {
	return connectionString == "" ||
		strings.Contains(connectionString, ":memory:") ||
		strings.Contains(connectionString, "mode=memory")
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS codes (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		format TEXT NOT NULL,
		image BLOB,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreateCode(content, format string, image []byte) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec("INSERT INTO codes (id, content, format, image, created_at) VALUES (?, ?, ?, ?, ?)",
		id, content, format, image, s.now().UTC().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert code: %w", err)
	}

	return id, nil
}

func (s *SQLiteDatabase) GetCodeByID(id string) (*Code, error) {
	row := s.db.QueryRow("SELECT id, content, format, image, created_at FROM codes WHERE id = ?", id)

	var code Code
	var createdAt int64
	if err := row.Scan(&code.ID, &code.Content, &code.Format, &code.Image, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	code.CreatedAt = time.Unix(0, createdAt).UTC()
	return &code, nil
}

func (s *SQLiteDatabase) GetCodes(fields ...string) ([]*Code, error) {
	if len(fields) == 0 {
		fields = codeColumns
	}
	for _, f := range fields {
		if !isCodeColumn(f) {
			return nil, fmt.Errorf("unknown field: %s", f)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM codes ORDER BY created_at, rowid", strings.Join(fields, ", "))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var codes []*Code
	for rows.Next() {
		var code Code
		var createdAt int64
		dest := make([]any, len(fields))
		for i, f := range fields {
			switch f {
			case "id":
				dest[i] = &code.ID
			case "content":
				dest[i] = &code.Content
			case "format":
				dest[i] = &code.Format
			case "image":
				dest[i] = &code.Image
			case "created_at":
				dest[i] = &createdAt
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if createdAt != 0 {
			code.CreatedAt = time.Unix(0, createdAt).UTC()
		}
		codes = append(codes, &code)
	}
	return codes, rows.Err()
}

func (s *SQLiteDatabase) DeleteCode(id string) error {
	res, err := s.db.Exec("DELETE FROM codes WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func isCodeColumn(field string) bool {
	for _, c := range codeColumns {
		if c == field {
			return true
		}
	}
	return false
}
