package household

import "time"

// Household represents a registered residence in the fire-safety registry.
// This matches the database schema in migrations/20260815_120000_initial_schema.up.sql.
type Household struct {
	// Identity
	ID        string `json:"id"`
	OwnerName string `json:"owner_name"`

	// Contact details. Address doubles as the search and location-filter
	// target in the query engine.
	Address          string  `json:"address"`
	ContactNumber    string  `json:"contact_number"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`

	// Classification. RiskLevel and SafetyScore are independently settable;
	// neither is derived from the other and they may disagree.
	RiskLevel   RiskLevel `json:"risk_level"`
	SafetyScore int       `json:"safety_score"`

	// Safety equipment inventory.
	FireExtinguishers int `json:"fire_extinguishers"`
	SmokeDetectors    int `json:"smoke_detectors"`

	// DeviceCount is the number of registered sensor devices. The store is
	// the source of truth: the value is computed from the devices table and
	// never maintained by callers.
	DeviceCount int `json:"device_count"`

	// History (display-only ISO date strings).
	LastIncident   *string `json:"last_incident,omitempty"`
	LastInspection *string `json:"last_inspection,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Copy creates an independent copy of the Household.
// Pointer fields reference immutable strings, so a value copy of the
// pointers is safe; the copy shares no mutable state with the original.
func (h *Household) Copy() *Household {
	if h == nil {
		return nil
	}
	cpy := *h
	return &cpy
}

// RiskLevel is the coarse three-tier fire hazard classification.
type RiskLevel string

// RiskLevel constants.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AllRiskLevels returns all valid risk level values.
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

// Rank returns the ordering rank of a risk level for sorting.
// high=3, medium=2, low=1; unrecognised values rank 0.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Patch is a partial update to a household. Nil fields are left unchanged.
type Patch struct {
	OwnerName         *string    `json:"owner_name,omitempty"`
	Address           *string    `json:"address,omitempty"`
	ContactNumber     *string    `json:"contact_number,omitempty"`
	EmergencyContact  *string    `json:"emergency_contact,omitempty"`
	RiskLevel         *RiskLevel `json:"risk_level,omitempty"`
	SafetyScore       *int       `json:"safety_score,omitempty"`
	FireExtinguishers *int       `json:"fire_extinguishers,omitempty"`
	SmokeDetectors    *int       `json:"smoke_detectors,omitempty"`
	LastIncident      *string    `json:"last_incident,omitempty"`
	LastInspection    *string    `json:"last_inspection,omitempty"`
}

// Apply merges the patch into the household, field by field.
// DeviceCount is deliberately not patchable; the store owns it.
func (p Patch) Apply(h *Household) {
	if p.OwnerName != nil {
		h.OwnerName = *p.OwnerName
	}
	if p.Address != nil {
		h.Address = *p.Address
	}
	if p.ContactNumber != nil {
		h.ContactNumber = *p.ContactNumber
	}
	if p.EmergencyContact != nil {
		h.EmergencyContact = p.EmergencyContact
	}
	if p.RiskLevel != nil {
		h.RiskLevel = *p.RiskLevel
	}
	if p.SafetyScore != nil {
		h.SafetyScore = *p.SafetyScore
	}
	if p.FireExtinguishers != nil {
		h.FireExtinguishers = *p.FireExtinguishers
	}
	if p.SmokeDetectors != nil {
		h.SmokeDetectors = *p.SmokeDetectors
	}
	if p.LastIncident != nil {
		h.LastIncident = p.LastIncident
	}
	if p.LastInspection != nil {
		h.LastInspection = p.LastInspection
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.OwnerName == nil && p.Address == nil && p.ContactNumber == nil &&
		p.EmergencyContact == nil && p.RiskLevel == nil && p.SafetyScore == nil &&
		p.FireExtinguishers == nil && p.SmokeDetectors == nil &&
		p.LastIncident == nil && p.LastInspection == nil
}
