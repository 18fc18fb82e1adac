package household

import "errors"

// Domain errors for the household package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, household.ErrHouseholdNotFound) {
//	    // handle not found case
//	}
var (
	// ErrHouseholdNotFound is returned when a household ID does not exist.
	ErrHouseholdNotFound = errors.New("household: not found")

	// ErrHouseholdExists is returned when creating a household with an ID that already exists.
	ErrHouseholdExists = errors.New("household: already exists")

	// ErrInvalidHousehold is returned when household validation fails.
	ErrInvalidHousehold = errors.New("household: invalid")

	// ErrInvalidRiskLevel is returned when a risk level value is not recognised.
	ErrInvalidRiskLevel = errors.New("household: invalid risk level")

	// ErrInvalidSafetyScore is returned when a safety score is outside 0-100.
	ErrInvalidSafetyScore = errors.New("household: invalid safety score")

	// ErrEmptyPatch is returned when an update patch changes nothing.
	ErrEmptyPatch = errors.New("household: empty patch")
)
