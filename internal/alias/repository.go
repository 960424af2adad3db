package alias

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for alias persistence.
type Repository interface {
	// Lookup returns the alias for text after normalisation.
	// Returns ErrAliasNotFound if there is none.
	Lookup(ctx context.Context, text string) (*Alias, error)

	// Save creates or overwrites the alias for text.
	// An existing alias keeps its ID and created_at; device_id, created_by
	// and updated_at are replaced.
	// Returns ErrInvalidAlias if text or deviceID is empty.
	Save(ctx context.Context, text, deviceID, createdBy string) error

	// List returns every alias ordered by alias text.
	List(ctx context.Context) ([]Alias, error)

	// ListByDevice returns the aliases pointing at deviceID.
	ListByDevice(ctx context.Context, deviceID string) ([]Alias, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed alias repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectAliases = `
	SELECT id, alias_text, device_id, created_by, created_at, updated_at
	FROM device_aliases`

// Lookup returns the alias for text after normalisation.
func (r *SQLiteRepository) Lookup(ctx context.Context, text string) (*Alias, error) {
	key := Normalize(text)
	if key == "" {
		return nil, ErrAliasNotFound
	}

	row := r.db.QueryRowContext(ctx, selectAliases+` WHERE alias_text = ?`, key)
	a, err := scanAlias(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAliasNotFound
		}
		return nil, fmt.Errorf("looking up alias: %w", err)
	}
	return a, nil
}

// Save creates or overwrites the alias for text.
// Concurrent saves of the same text are serialised by SQLite; the last
// write wins.
func (r *SQLiteRepository) Save(ctx context.Context, text, deviceID, createdBy string) error {
	key := Normalize(text)
	deviceID = strings.TrimSpace(deviceID)
	if key == "" || deviceID == "" {
		return ErrInvalidAlias
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_aliases (id, alias_text, device_id, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(alias_text) DO UPDATE SET
			device_id = excluded.device_id,
			created_by = excluded.created_by,
			updated_at = excluded.updated_at`,
		"als-"+uuid.NewString()[:18],
		key,
		deviceID,
		createdBy,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("saving alias: %w", err)
	}
	return nil
}

// List returns every alias ordered by alias text.
func (r *SQLiteRepository) List(ctx context.Context) ([]Alias, error) {
	return r.query(ctx, selectAliases+` ORDER BY alias_text`)
}

// ListByDevice returns the aliases pointing at deviceID.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID string) ([]Alias, error) {
	return r.query(ctx, selectAliases+` WHERE device_id = ? ORDER BY alias_text`, deviceID)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Alias, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	aliases := []Alias{}
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		aliases = append(aliases, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aliases: %w", err)
	}
	return aliases, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlias(scanner rowScanner) (*Alias, error) {
	var a Alias
	var createdAt, updatedAt string
	if err := scanner.Scan(&a.ID, &a.Text, &a.DeviceID, &a.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return &a, nil
}
