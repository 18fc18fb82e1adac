package household

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides household management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
// It is the household-store collaborator consumed by the workflow
// controller and the REST API.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating CRUD operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Household // Cached households by ID
	cacheMu sync.RWMutex          // Protects cache
	logger  Logger

	// revision increments on every mutation so view caches can detect
	// registry changes without comparing contents.
	revision uint64
}

// NewRegistry creates a new household registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Household),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all households from the repository into the cache.
// This should be called on application startup and after device
// registrations, which change the stored device counts.
func (r *Registry) RefreshCache(ctx context.Context) error {
	households, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading households: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Household, len(households))
	for i := range households {
		h := households[i]
		r.cache[h.ID] = h.Copy()
	}
	r.revision++

	r.logger.Info("household cache refreshed", "count", len(households))
	return nil
}

// Revision returns a counter that increments on every registry mutation.
// A view derived at one revision is stale once the revision moves on.
func (r *Registry) Revision() uint64 {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return r.revision
}

// GetHousehold retrieves a household by ID.
// Returns ErrHouseholdNotFound if the household does not exist.
// The returned household is a copy; callers can safely modify it.
func (r *Registry) GetHousehold(ctx context.Context, id string) (*Household, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.Copy(), nil
	}

	// Fall back to repository (might be a new household not yet cached)
	h, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = h.Copy()
	r.cacheMu.Unlock()

	return h, nil
}

// ListHouseholds retrieves the full registry snapshot, ordered by owner
// name to match the repository's ordering.
// The returned households are copies; callers can safely modify them.
func (r *Registry) ListHouseholds(ctx context.Context) ([]Household, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	if len(r.cache) > 0 {
		households := make([]Household, 0, len(r.cache))
		for _, h := range r.cache {
			households = append(households, *h.Copy())
		}
		// ID tie-break keeps the snapshot order stable across calls;
		// map iteration order is randomized.
		sort.SliceStable(households, func(i, j int) bool {
			if households[i].OwnerName != households[j].OwnerName {
				return households[i].OwnerName < households[j].OwnerName
			}
			return households[i].ID < households[j].ID
		})
		return households, nil
	}

	return r.repo.List(ctx)
}

// GetHouseholdsByRiskLevel retrieves all households with a specific risk level.
func (r *Registry) GetHouseholdsByRiskLevel(ctx context.Context, level RiskLevel) ([]Household, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	if len(r.cache) > 0 {
		var households []Household
		for _, h := range r.cache {
			if h.RiskLevel == level {
				households = append(households, *h.Copy())
			}
		}
		return households, nil
	}

	return r.repo.ListByRiskLevel(ctx, level)
}

// CreateHousehold validates and persists a new household.
// An empty ID is filled with a generated UUID.
func (r *Registry) CreateHousehold(ctx context.Context, h *Household) error {
	if h != nil && h.ID == "" {
		h.ID = GenerateID()
	}

	if err := ValidateHousehold(h); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, h); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[h.ID] = h.Copy()
	r.revision++
	r.cacheMu.Unlock()

	r.logger.Info("household created", "id", h.ID, "owner", h.OwnerName)
	return nil
}

// UpdateHousehold applies a partial patch to a household.
// The patch is validated, merged into the stored record, and persisted.
// A duplicate patch submission is idempotent: re-applying the same patch
// leaves the record unchanged apart from its updated_at timestamp.
// Returns the updated household.
func (r *Registry) UpdateHousehold(ctx context.Context, id string, patch Patch) (*Household, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}

	current, err := r.GetHousehold(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(current)

	// The merged record must still be a valid household.
	if err := ValidateHousehold(current); err != nil {
		return nil, err
	}

	if err := r.repo.Update(ctx, current); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = current.Copy()
	r.revision++
	r.cacheMu.Unlock()

	r.logger.Info("household updated", "id", id)
	return current, nil
}

// DeleteHousehold removes a household and its registered devices.
func (r *Registry) DeleteHousehold(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.revision++
	r.cacheMu.Unlock()

	r.logger.Info("household deleted", "id", id)
	return nil
}

// InvalidateHousehold drops one household from the cache and reloads it
// from the repository. Called after device registrations, which change
// the stored device count outside this registry.
func (r *Registry) InvalidateHousehold(ctx context.Context, id string) error {
	h, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[id] = h.Copy()
	r.revision++
	r.cacheMu.Unlock()

	return nil
}

// GetHouseholdCount returns the number of cached households.
func (r *Registry) GetHouseholdCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Stats summarises the registry for the dashboard header.
type Stats struct {
	Total               int               `json:"total"`
	ByRiskLevel         map[RiskLevel]int `json:"by_risk_level"`
	TotalDevices        int               `json:"total_devices"`
	AvgSafetyScore      float64           `json:"avg_safety_score"`
	TotalExtinguishers  int               `json:"total_extinguishers"`
	TotalSmokeDetectors int               `json:"total_smoke_detectors"`
}

// GetStats aggregates registry-wide statistics from the cache.
func (r *Registry) GetStats(ctx context.Context) (*Stats, error) {
	households, err := r.ListHouseholds(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:       len(households),
		ByRiskLevel: make(map[RiskLevel]int, len(AllRiskLevels())),
	}
	for _, level := range AllRiskLevels() {
		stats.ByRiskLevel[level] = 0
	}

	var scoreSum int
	for i := range households {
		h := &households[i]
		stats.ByRiskLevel[h.RiskLevel]++
		stats.TotalDevices += h.DeviceCount
		stats.TotalExtinguishers += h.FireExtinguishers
		stats.TotalSmokeDetectors += h.SmokeDetectors
		scoreSum += h.SafetyScore
	}
	if len(households) > 0 {
		stats.AvgSafetyScore = float64(scoreSum) / float64(len(households))
	}

	return stats, nil
}
