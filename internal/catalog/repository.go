package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Repository defines the interface for library device persistence.
type Repository interface {
	// List retrieves every library device, active or not, ordered by
	// make, model, storage. The order is the library order used for
	// tie-breaks during resolution.
	List(ctx context.Context) ([]LibraryDevice, error)

	// GetByID retrieves a device by its identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*LibraryDevice, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists.
	Create(ctx context.Context, device *LibraryDevice) error

	// Upsert inserts the device or overwrites the existing record with the same ID.
	Upsert(ctx context.Context, device *LibraryDevice) error

	// SetActive toggles whether a device takes part in resolution.
	// Returns ErrDeviceNotFound if the device does not exist.
	SetActive(ctx context.Context, id string, active bool) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectDevices = `
	SELECT id, make, model, storage, category, active, created_at, updated_at
	FROM library_devices`

// List retrieves every library device.
func (r *SQLiteRepository) List(ctx context.Context) ([]LibraryDevice, error) {
	rows, err := r.db.QueryContext(ctx, selectDevices+`
		ORDER BY make COLLATE NOCASE, model COLLATE NOCASE, storage, id`)
	if err != nil {
		return nil, fmt.Errorf("querying library devices: %w", err)
	}
	defer rows.Close()

	var devices []LibraryDevice
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning library device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating library devices: %w", err)
	}
	return devices, nil
}

// GetByID retrieves a device by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*LibraryDevice, error) {
	row := r.db.QueryRowContext(ctx, selectDevices+` WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying library device by id: %w", err)
	}
	return d, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *LibraryDevice) error {
	if err := device.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO library_devices (id, make, model, storage, category, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID,
		device.Make,
		device.Model,
		device.Storage,
		device.Category,
		boolToInt(device.Active),
		device.CreatedAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting library device: %w", err)
	}
	return nil
}

// Upsert inserts the device or overwrites the record with the same ID.
// created_at of an existing record is preserved.
func (r *SQLiteRepository) Upsert(ctx context.Context, device *LibraryDevice) error {
	if err := device.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO library_devices (id, make, model, storage, category, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			make = excluded.make,
			model = excluded.model,
			storage = excluded.storage,
			category = excluded.category,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		device.ID,
		device.Make,
		device.Model,
		device.Storage,
		device.Category,
		boolToInt(device.Active),
		device.CreatedAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting library device: %w", err)
	}
	return nil
}

// SetActive toggles whether a device takes part in resolution.
func (r *SQLiteRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE library_devices SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating library device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(scanner rowScanner) (*LibraryDevice, error) {
	var d LibraryDevice
	var active int
	var createdAt, updatedAt string

	if err := scanner.Scan(
		&d.ID,
		&d.Make,
		&d.Model,
		&d.Storage,
		&d.Category,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	d.Active = active != 0
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return &d, nil
}

// isConstraintError reports a primary key or unique violation.
func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
