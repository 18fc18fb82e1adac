package device

import (
	"fmt"

	"github.com/emberwell/firewatch-core/internal/household"
)

// validTypes is a pre-computed set for O(1) lookups.
var validTypes map[Type]struct{}

func init() {
	validTypes = make(map[Type]struct{}, len(AllTypes()))
	for _, t := range AllTypes() {
		validTypes[t] = struct{}{}
	}
}

// ValidateType checks if a device type is valid.
func ValidateType(t Type) error {
	if _, ok := validTypes[t]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidType, t)
}

// ValidateRegistration checks a registration request. Field-level rules
// match the dashboard's form validation so API and form callers agree on
// what a valid registration looks like.
func ValidateRegistration(reg Registration) error {
	if msg := household.ValidateField(household.FieldDeviceID, reg.DeviceID); msg != "" {
		return fmt.Errorf("%w: device id %s", ErrInvalidDevice, msg)
	}
	if msg := household.ValidateField(household.FieldDeviceLocation, reg.Location); msg != "" {
		return fmt.Errorf("%w: location %s", ErrInvalidDevice, msg)
	}
	if reg.HouseholdID == "" {
		return fmt.Errorf("%w: household id required", ErrInvalidDevice)
	}
	return ValidateType(reg.Type)
}
