package model

// DeviceType is the category of sensor a query targets. The value is the
// identifier persisted in the store's device_type tag.
type DeviceType string

const (
	DeviceTypeWindow DeviceType = "window_sensor"
)

// DeviceTypeKeywords maps spoken keywords to device types. Extending the
// supported device set means adding the constant above and its keywords here.
var DeviceTypeKeywords = map[string]DeviceType{
	"window":  DeviceTypeWindow,
	"windows": DeviceTypeWindow,
}

// Action identifies what the user wants done. Only state queries for now.
type Action string

const (
	ActionStateQuery Action = "state_query"
)

// StateFilter narrows a query to devices in a given state. It captures what
// the user asked for, not what any device actually reports.
type StateFilter string

const (
	FilterAll    StateFilter = "all"
	FilterOpen   StateFilter = "open"
	FilterClosed StateFilter = "closed"
)

// ActualState is the state derived from a device's latest observation.
type ActualState string

const (
	StateOpen   ActualState = "open"
	StateClosed ActualState = "closed"
)

// StateFromContact derives the displayed state from a contact sensor payload:
// contact == true means the contact is closed.
func StateFromContact(contact bool) ActualState {
	if contact {
		return StateClosed
	}
	return StateOpen
}

// DeviceState is one row of a query result. Room is the display form the
// user spoke, not the storage key.
type DeviceState struct {
	DeviceName string
	Room       string
	State      ActualState
}

// Parameters is the structured form of a single request. It is created fresh
// per inbound message, filled by the reader and consumed by the composer.
type Parameters struct {
	Action      Action
	DeviceType  DeviceType
	Rooms       []string
	StateFilter StateFilter
	States      []DeviceState
}
