package skill

import (
	"errors"
	"strings"

	"github.com/private-assistant/iot-state-skill/internal/model"
)

// ErrNoDeviceType means the request names no supported device category.
// Answering a state query without a device class is meaningless, so this is a
// hard error rather than a default.
var ErrNoDeviceType = errors.New("no valid device type found in request")

// CalculateCertainty scores how confident the skill is that a request is for
// it. Keyword match on device entities or utterance tokens: all or nothing.
func CalculateCertainty(req model.IntentRequest) float64 {
	if _, ok := deviceTypeFor(req); ok {
		return 1.0
	}
	return 0.0
}

// ExtractParameters maps a classified request to query parameters.
// The device type comes from the request's device entities first, then from
// the raw utterance tokens. Rooms come from room entities, falling back to
// the room the request originated in. The state filter is read from the raw
// text only; entities are not consulted for it.
func ExtractParameters(req model.IntentRequest) (model.Parameters, error) {
	deviceType, ok := deviceTypeFor(req)
	if !ok {
		return model.Parameters{}, ErrNoDeviceType
	}

	return model.Parameters{
		Action:      model.ActionStateQuery,
		DeviceType:  deviceType,
		Rooms:       roomsFor(req),
		StateFilter: stateFilterFor(req.ClientRequest.Text),
	}, nil
}

func deviceTypeFor(req model.IntentRequest) (model.DeviceType, bool) {
	for _, e := range req.Entities["device"] {
		if dt, ok := model.DeviceTypeKeywords[strings.ToLower(e.Normalized)]; ok {
			return dt, true
		}
	}
	for _, tok := range strings.Fields(strings.ToLower(req.ClientRequest.Text)) {
		if dt, ok := model.DeviceTypeKeywords[tok]; ok {
			return dt, true
		}
	}
	return "", false
}

func roomsFor(req model.IntentRequest) []string {
	entities := req.Entities["room"]
	if len(entities) > 0 {
		rooms := make([]string, 0, len(entities))
		for _, e := range entities {
			rooms = append(rooms, e.Normalized)
		}
		return rooms
	}
	// No room entity: the room the request was spoken in. An empty ambient
	// room means no room restriction at all.
	if req.ClientRequest.Room == "" {
		return nil
	}
	return []string{req.ClientRequest.Room}
}

func stateFilterFor(text string) model.StateFilter {
	words := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		words[tok] = struct{}{}
	}
	if _, ok := words["open"]; ok {
		return model.FilterOpen
	}
	if _, ok := words["closed"]; ok {
		return model.FilterClosed
	}
	return model.FilterAll
}
