package household

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Field names accepted by ValidateField. These match the form field keys
// used by the edit and device-registration workflows.
const (
	FieldOwnerName        = "ownerName"
	FieldAddress          = "address"
	FieldContactNumber    = "contactNumber"
	FieldEmergencyContact = "emergencyContact"
	FieldDeviceID         = "deviceId"
	FieldDeviceLocation   = "location"
	FieldDeviceType       = "deviceType"
)

// Field error messages. The dashboard renders these verbatim beneath the
// offending input, so they are short and field-scoped.
const (
	MsgRequired         = "required"
	MsgTooShort         = "too short"
	MsgIncomplete       = "incomplete"
	MsgInvalidFormat    = "invalid format"
	MsgNeedsContact     = "must include a contact number"
	MsgDeviceIDTooShort = "must be at least 6 characters"
)

// Validation constants.
const (
	minOwnerNameLength = 3
	minAddressLength   = 10
	minPhoneLength     = 10
	minDeviceIDLength  = 6
)

// phoneRegex matches an optional leading +, then digits, spaces, and hyphens.
// Length is checked separately.
var phoneRegex = regexp.MustCompile(`^\+?[0-9 -]+$`)

// digitRegex detects whether a value contains any digit at all.
var digitRegex = regexp.MustCompile(`[0-9]`)

// ValidateField validates a single form field value and returns an error
// message, or "" if the value is valid.
//
// It is stateless, deterministic, and total: every (field, value) pair in
// the documented domain yields either "" or one of the Msg* constants, and
// unknown field names validate clean rather than failing.
func ValidateField(field, raw string) string {
	switch field {
	case FieldOwnerName:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return MsgRequired
		}
		if len(trimmed) < minOwnerNameLength {
			return MsgTooShort
		}
		return ""

	case FieldAddress:
		if raw == "" {
			return MsgRequired
		}
		if len(strings.TrimSpace(raw)) < minAddressLength {
			return MsgIncomplete
		}
		return ""

	case FieldContactNumber:
		if raw == "" {
			return MsgRequired
		}
		if !isPhoneLike(raw) {
			return MsgInvalidFormat
		}
		return ""

	case FieldEmergencyContact:
		// Optional field: empty is always valid, and once any digit is
		// present a format mismatch is advisory rather than blocking.
		if raw == "" {
			return ""
		}
		stripped := stripNonPhone(raw)
		if !isPhoneLike(stripped) && !digitRegex.MatchString(stripped) {
			return MsgNeedsContact
		}
		return ""

	case FieldDeviceID:
		if raw == "" {
			return MsgRequired
		}
		if len(strings.TrimSpace(raw)) < minDeviceIDLength {
			return MsgDeviceIDTooShort
		}
		return ""

	case FieldDeviceLocation:
		if strings.TrimSpace(raw) == "" {
			return MsgRequired
		}
		return ""
	}

	// Unknown fields (including deviceType, which is constrained by a closed
	// selection) have nothing to validate.
	return ""
}

// isPhoneLike reports whether a value matches the phone pattern:
// optional leading +, then digits/spaces/hyphens, total length >= 10.
func isPhoneLike(v string) bool {
	return len(v) >= minPhoneLength && phoneRegex.MatchString(v)
}

// stripNonPhone removes every character that is not a digit or a plus sign.
func stripNonPhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateHousehold performs storage-level validation on a household.
// Returns an error describing the first validation failure found.
func ValidateHousehold(h *Household) error {
	if h == nil {
		return ErrInvalidHousehold
	}

	if msg := ValidateField(FieldOwnerName, h.OwnerName); msg != "" {
		return fmt.Errorf("%w: owner name %s", ErrInvalidHousehold, msg)
	}
	if msg := ValidateField(FieldAddress, h.Address); msg != "" {
		return fmt.Errorf("%w: address %s", ErrInvalidHousehold, msg)
	}
	if msg := ValidateField(FieldContactNumber, h.ContactNumber); msg != "" {
		return fmt.Errorf("%w: contact number %s", ErrInvalidHousehold, msg)
	}
	if h.EmergencyContact != nil {
		if msg := ValidateField(FieldEmergencyContact, *h.EmergencyContact); msg != "" {
			return fmt.Errorf("%w: emergency contact %s", ErrInvalidHousehold, msg)
		}
	}

	if err := ValidateRiskLevel(h.RiskLevel); err != nil {
		return err
	}
	if err := ValidateSafetyScore(h.SafetyScore); err != nil {
		return err
	}

	if h.FireExtinguishers < 0 {
		return fmt.Errorf("%w: fire extinguisher count cannot be negative", ErrInvalidHousehold)
	}
	if h.SmokeDetectors < 0 {
		return fmt.Errorf("%w: smoke detector count cannot be negative", ErrInvalidHousehold)
	}

	return nil
}

// validRiskLevels is a pre-computed set for O(1) lookups.
var validRiskLevels map[RiskLevel]struct{}

func init() {
	validRiskLevels = make(map[RiskLevel]struct{}, len(AllRiskLevels()))
	for _, l := range AllRiskLevels() {
		validRiskLevels[l] = struct{}{}
	}
}

// ValidateRiskLevel checks if a risk level is valid.
func ValidateRiskLevel(level RiskLevel) error {
	if _, ok := validRiskLevels[level]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidRiskLevel, level)
}

// ValidateSafetyScore checks if a safety score is within 0-100.
func ValidateSafetyScore(score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidSafetyScore, score)
	}
	return nil
}

// ValidatePatch checks every field present in a partial update.
func ValidatePatch(p Patch) error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}

	if p.OwnerName != nil {
		if msg := ValidateField(FieldOwnerName, *p.OwnerName); msg != "" {
			return fmt.Errorf("%w: owner name %s", ErrInvalidHousehold, msg)
		}
	}
	if p.Address != nil {
		if msg := ValidateField(FieldAddress, *p.Address); msg != "" {
			return fmt.Errorf("%w: address %s", ErrInvalidHousehold, msg)
		}
	}
	if p.ContactNumber != nil {
		if msg := ValidateField(FieldContactNumber, *p.ContactNumber); msg != "" {
			return fmt.Errorf("%w: contact number %s", ErrInvalidHousehold, msg)
		}
	}
	if p.EmergencyContact != nil {
		if msg := ValidateField(FieldEmergencyContact, *p.EmergencyContact); msg != "" {
			return fmt.Errorf("%w: emergency contact %s", ErrInvalidHousehold, msg)
		}
	}
	if p.RiskLevel != nil {
		if err := ValidateRiskLevel(*p.RiskLevel); err != nil {
			return err
		}
	}
	if p.SafetyScore != nil {
		if err := ValidateSafetyScore(*p.SafetyScore); err != nil {
			return err
		}
	}
	if p.FireExtinguishers != nil && *p.FireExtinguishers < 0 {
		return fmt.Errorf("%w: fire extinguisher count cannot be negative", ErrInvalidHousehold)
	}
	if p.SmokeDetectors != nil && *p.SmokeDetectors < 0 {
		return fmt.Errorf("%w: smoke detector count cannot be negative", ErrInvalidHousehold)
	}

	return nil
}

// GenerateID creates a new UUID for a household.
func GenerateID() string {
	return uuid.New().String()
}
