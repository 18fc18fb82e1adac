package household

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for household persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a household by its unique identifier.
	// Returns ErrHouseholdNotFound if the household does not exist.
	GetByID(ctx context.Context, id string) (*Household, error)

	// List retrieves all households, ordered by owner name.
	List(ctx context.Context) ([]Household, error)

	// ListByRiskLevel retrieves all households with a specific risk level.
	ListByRiskLevel(ctx context.Context, level RiskLevel) ([]Household, error)

	// Create inserts a new household.
	// Returns ErrHouseholdExists if a household with the same ID already exists.
	Create(ctx context.Context, h *Household) error

	// Update modifies an existing household.
	// Returns ErrHouseholdNotFound if the household does not exist.
	Update(ctx context.Context, h *Household) error

	// Delete removes a household by ID.
	// Returns ErrHouseholdNotFound if the household does not exist.
	Delete(ctx context.Context, id string) error
}

// householdColumns is the SELECT column list shared by all queries.
// device_count is computed from the devices table so the store remains
// the source of truth for it.
const householdColumns = `
	h.id, h.owner_name, h.address, h.contact_number, h.emergency_contact,
	h.risk_level, h.safety_score, h.last_incident, h.last_inspection,
	h.fire_extinguishers, h.smoke_detectors,
	(SELECT COUNT(*) FROM devices d WHERE d.household_id = h.id) AS device_count,
	h.created_at, h.updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a household by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Household, error) {
	query := `SELECT` + householdColumns + `
		FROM households h
		WHERE h.id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	h, err := scanHousehold(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHouseholdNotFound
		}
		return nil, fmt.Errorf("querying household by id: %w", err)
	}
	return h, nil
}

// List retrieves all households.
func (r *SQLiteRepository) List(ctx context.Context) ([]Household, error) {
	query := `SELECT` + householdColumns + `
		FROM households h
		ORDER BY h.owner_name, h.id`

	return r.queryHouseholds(ctx, query)
}

// ListByRiskLevel retrieves all households with a specific risk level.
func (r *SQLiteRepository) ListByRiskLevel(ctx context.Context, level RiskLevel) ([]Household, error) {
	query := `SELECT` + householdColumns + `
		FROM households h
		WHERE h.risk_level = ?
		ORDER BY h.owner_name, h.id`

	return r.queryHouseholds(ctx, query, string(level))
}

// Create inserts a new household.
func (r *SQLiteRepository) Create(ctx context.Context, h *Household) error {
	// Set timestamps if not set
	now := time.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	query := `
		INSERT INTO households (
			id, owner_name, address, contact_number, emergency_contact,
			risk_level, safety_score, last_incident, last_inspection,
			fire_extinguishers, smoke_detectors, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.OwnerName,
		h.Address,
		h.ContactNumber,
		nullableString(h.EmergencyContact),
		string(h.RiskLevel),
		h.SafetyScore,
		nullableString(h.LastIncident),
		nullableString(h.LastInspection),
		h.FireExtinguishers,
		h.SmokeDetectors,
		h.CreatedAt.Format(time.RFC3339),
		h.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrHouseholdExists
		}
		return fmt.Errorf("inserting household: %w", err)
	}

	return nil
}

// Update modifies an existing household.
func (r *SQLiteRepository) Update(ctx context.Context, h *Household) error {
	// First check the household exists
	exists, err := r.exists(ctx, h.ID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrHouseholdNotFound
	}

	h.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE households SET
			owner_name = ?, address = ?, contact_number = ?, emergency_contact = ?,
			risk_level = ?, safety_score = ?, last_incident = ?, last_inspection = ?,
			fire_extinguishers = ?, smoke_detectors = ?, updated_at = ?
		WHERE id = ?`

	_, err = r.db.ExecContext(ctx, query,
		h.OwnerName,
		h.Address,
		h.ContactNumber,
		nullableString(h.EmergencyContact),
		string(h.RiskLevel),
		h.SafetyScore,
		nullableString(h.LastIncident),
		nullableString(h.LastInspection),
		h.FireExtinguishers,
		h.SmokeDetectors,
		h.UpdatedAt.Format(time.RFC3339),
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("updating household: %w", err)
	}

	return nil
}

// Delete removes a household by ID. Registered devices are removed by the
// ON DELETE CASCADE on the devices table.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM households WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting household: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrHouseholdNotFound
	}

	return nil
}

// exists checks whether a household ID is present.
func (r *SQLiteRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM households WHERE id = ?", id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking household existence: %w", err)
	}
	return count > 0, nil
}

// queryHouseholds runs a query and scans all resulting households.
func (r *SQLiteRepository) queryHouseholds(ctx context.Context, query string, args ...any) ([]Household, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying households: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	var households []Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, err
		}
		households = append(households, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating households: %w", err)
	}

	return households, nil
}

// scanner abstracts over sql.Row and sql.Rows for scanHousehold.
type scanner interface {
	Scan(dest ...any) error
}

// scanHousehold scans a single household row.
func scanHousehold(row scanner) (*Household, error) {
	var (
		h                Household
		emergencyContact sql.NullString
		lastIncident     sql.NullString
		lastInspection   sql.NullString
		riskLevel        string
		createdAt        string
		updatedAt        string
	)

	err := row.Scan(
		&h.ID,
		&h.OwnerName,
		&h.Address,
		&h.ContactNumber,
		&emergencyContact,
		&riskLevel,
		&h.SafetyScore,
		&lastIncident,
		&lastInspection,
		&h.FireExtinguishers,
		&h.SmokeDetectors,
		&h.DeviceCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.RiskLevel = RiskLevel(riskLevel)
	if emergencyContact.Valid {
		h.EmergencyContact = &emergencyContact.String
	}
	if lastIncident.Valid {
		h.LastIncident = &lastIncident.String
	}
	if lastInspection.Valid {
		h.LastInspection = &lastInspection.String
	}

	var parseErr error
	h.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	h.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &h, nil
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
