package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emberwell/firewatch-core/internal/household"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Households is the slice of the household registry the device registry
// needs: existence checks before registration and cache invalidation
// after, since registering a device changes the stored device count.
type Households interface {
	GetHousehold(ctx context.Context, id string) (*household.Household, error)
	InvalidateHousehold(ctx context.Context, id string) error
}

// Registry manages device registration and readings for households.
//
// All public methods are thread-safe.
type Registry struct {
	repo       Repository
	households Households
	logger     Logger
	mu         sync.Mutex // Serialises register/invalidate pairs
}

// NewRegistry creates a new device registry.
func NewRegistry(repo Repository, households Households) *Registry {
	return &Registry{
		repo:       repo,
		households: households,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register validates a registration, fills in defaults, and persists the
// device. A new device starts online with a normal status and a baseline
// reading. The owning household's cached device count is reloaded.
func (r *Registry) Register(ctx context.Context, reg Registration) (*Device, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}

	// The household must exist before anything is written.
	if _, err := r.households.GetHousehold(ctx, reg.HouseholdID); err != nil {
		return nil, fmt.Errorf("resolving household: %w", err)
	}

	now := time.Now().UTC()
	d := &Device{
		ID:          reg.DeviceID,
		HouseholdID: reg.HouseholdID,
		Type:        reg.Type,
		Location:    reg.Location,
		Status:      StatusNormal,
		Online:      true,
		LastReading: DefaultReading(now),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	if err := r.households.InvalidateHousehold(ctx, reg.HouseholdID); err != nil {
		r.logger.Warn("device count refresh failed after registration",
			"household_id", reg.HouseholdID, "error", err)
	}

	r.logger.Info("device registered",
		"id", d.ID, "household_id", d.HouseholdID, "type", d.Type, "location", d.Location)
	return d.Copy(), nil
}

// GetDevice retrieves a device by ID.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	return r.repo.GetByID(ctx, id)
}

// ListByHousehold retrieves all devices registered to a household.
func (r *Registry) ListByHousehold(ctx context.Context, householdID string) ([]Device, error) {
	return r.repo.ListByHousehold(ctx, householdID)
}

// RecordReading stores a new sensor reading for a device. A zero reading
// timestamp is filled with the current time.
func (r *Registry) RecordReading(ctx context.Context, id string, status string, online bool, reading Reading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}

	if err := r.repo.UpdateReading(ctx, id, status, online, reading); err != nil {
		return err
	}

	r.logger.Debug("device reading recorded", "id", id, "status", status, "online", online)
	return nil
}

// Remove deletes a device and refreshes the owning household's cached
// device count.
func (r *Registry) Remove(ctx context.Context, id string) error {
	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := r.households.InvalidateHousehold(ctx, d.HouseholdID); err != nil {
		r.logger.Warn("device count refresh failed after removal",
			"household_id", d.HouseholdID, "error", err)
	}

	r.logger.Info("device removed", "id", id, "household_id", d.HouseholdID)
	return nil
}
