package workflow

import (
	"strings"

	"github.com/emberwell/firewatch-core/internal/device"
	"github.com/emberwell/firewatch-core/internal/household"
)

// State identifies which surface of the dashboard is active. The modal
// states are mutually exclusive: at most one workflow runs at a time.
type State string

// Workflow states.
const (
	StateIdle         State = "idle"
	StateEditing      State = "editing"
	StateAddingDevice State = "adding_device"
	StateViewingMap   State = "viewing_map"
)

// EditForm holds the editable household fields as raw input strings.
type EditForm struct {
	OwnerName        string `json:"owner_name"`
	Address          string `json:"address"`
	ContactNumber    string `json:"contact_number"`
	EmergencyContact string `json:"emergency_contact"`
}

// Validate checks every field and returns a map of field name to error
// message. All fields are evaluated on each call, so the caller sees the
// complete error set at once, not just the first failure. An empty map
// means the form is submittable.
func (f EditForm) Validate() map[string]string {
	errs := make(map[string]string)
	fields := map[string]string{
		household.FieldOwnerName:        f.OwnerName,
		household.FieldAddress:          f.Address,
		household.FieldContactNumber:    f.ContactNumber,
		household.FieldEmergencyContact: f.EmergencyContact,
	}
	for field, value := range fields {
		if msg := household.ValidateField(field, value); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// Patch converts the form into a household patch. Empty emergency contact
// clears the stored value.
func (f EditForm) Patch() household.Patch {
	owner := strings.TrimSpace(f.OwnerName)
	address := f.Address
	contact := f.ContactNumber
	emergency := f.EmergencyContact
	return household.Patch{
		OwnerName:        &owner,
		Address:          &address,
		ContactNumber:    &contact,
		EmergencyContact: &emergency,
	}
}

// DeviceForm holds the device registration fields as raw input strings.
type DeviceForm struct {
	DeviceID string `json:"device_id"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// Validate checks every field and returns a map of field name to error
// message, evaluating all fields on each call.
func (f DeviceForm) Validate() map[string]string {
	errs := make(map[string]string)
	if msg := household.ValidateField(household.FieldDeviceID, f.DeviceID); msg != "" {
		errs[household.FieldDeviceID] = msg
	}
	if msg := household.ValidateField(household.FieldDeviceLocation, f.Location); msg != "" {
		errs[household.FieldDeviceLocation] = msg
	}
	if err := device.ValidateType(device.Type(f.Type)); err != nil {
		errs[household.FieldDeviceType] = household.MsgInvalidFormat
	}
	return errs
}

// Registration converts the form into a device registration request.
func (f DeviceForm) Registration(householdID string) device.Registration {
	return device.Registration{
		DeviceID:    strings.TrimSpace(f.DeviceID),
		HouseholdID: householdID,
		Type:        device.Type(f.Type),
		Location:    strings.TrimSpace(f.Location),
	}
}

// Banner is a dismissable failure notice shown above the active form.
// Retryable banners leave the form intact so the user can resubmit.
type Banner struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Snapshot is a point-in-time copy of the controller state, safe for the
// caller to hold while the controller moves on.
type Snapshot struct {
	State        State             `json:"state"`
	SelectedID   string            `json:"selected_id,omitempty"`
	ExpandedID   string            `json:"expanded_id,omitempty"`
	EditForm     EditForm          `json:"edit_form"`
	EditErrors   map[string]string `json:"edit_errors,omitempty"`
	DeviceForm   DeviceForm        `json:"device_form"`
	DeviceErrors map[string]string `json:"device_errors,omitempty"`
	Submitting   bool              `json:"submitting"`
	Banner       *Banner           `json:"banner,omitempty"`
	Confirmation string            `json:"confirmation,omitempty"`
}
