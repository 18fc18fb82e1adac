package workflow

import (
	"context"

	"github.com/emberwell/firewatch-core/internal/device"
	"github.com/emberwell/firewatch-core/internal/household"
)

// Store is the persistence surface the controller drives. It owns derived
// values such as the device count; the controller never computes them.
type Store interface {
	// GetHousehold loads a household for form prefill.
	GetHousehold(ctx context.Context, id string) (*household.Household, error)

	// UpdateHousehold applies a patch and returns the stored result.
	UpdateHousehold(ctx context.Context, id string, patch household.Patch) (*household.Household, error)

	// RegisterDevice registers a device and returns the stored result,
	// with defaults applied.
	RegisterDevice(ctx context.Context, reg device.Registration) (*device.Device, error)
}

// RegistryStore adapts the household and device registries to the Store
// interface.
type RegistryStore struct {
	households *household.Registry
	devices    *device.Registry
}

// NewRegistryStore creates a store backed by the two registries.
func NewRegistryStore(households *household.Registry, devices *device.Registry) *RegistryStore {
	return &RegistryStore{households: households, devices: devices}
}

func (s *RegistryStore) GetHousehold(ctx context.Context, id string) (*household.Household, error) {
	return s.households.GetHousehold(ctx, id)
}

func (s *RegistryStore) UpdateHousehold(ctx context.Context, id string, patch household.Patch) (*household.Household, error) {
	return s.households.UpdateHousehold(ctx, id, patch)
}

func (s *RegistryStore) RegisterDevice(ctx context.Context, reg device.Registration) (*device.Device, error) {
	return s.devices.Register(ctx, reg)
}
