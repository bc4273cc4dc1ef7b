package skill

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"github.com/private-assistant/iot-state-skill/internal/model"
)

func record(deviceID, deviceName, room string, contact bool, at time.Time) *query.FluxRecord {
	return query.NewFluxRecord(0, map[string]interface{}{
		"_time":       at,
		"_value":      contact,
		"device_id":   deviceID,
		"device_name": deviceName,
		"room":        room,
	})
}

func TestBuildStateQuery(t *testing.T) {
	flux := buildStateQuery("iot", "iot_state", model.DeviceTypeWindow, []string{"living_room", "bedroom"})

	for _, want := range []string{
		`from(bucket: "iot")`,
		`range(start: -48h)`,
		`r._measurement == "iot_state"`,
		`r._field == "contact"`,
		`r.device_type == "window_sensor"`,
		`r.room == "living_room" or r.room == "bedroom"`,
		`group(columns: ["device_id"])`,
		`last()`,
	} {
		if !strings.Contains(flux, want) {
			t.Errorf("query missing %q:\n%s", want, flux)
		}
	}
}

func TestBuildStateQuery_NoRoomRestriction(t *testing.T) {
	flux := buildStateQuery("iot", "iot_state", model.DeviceTypeWindow, nil)
	if strings.Contains(flux, "r.room") {
		t.Errorf("query should not filter on room:\n%s", flux)
	}
}

func TestStatesFromRecords_LatestPerDevice(t *testing.T) {
	now := time.Now()
	params := model.Parameters{StateFilter: model.FilterAll}
	records := []*query.FluxRecord{
		record("dev-1", "left window", "living_room", true, now.Add(-2*time.Hour)),
		record("dev-1", "left window", "living_room", false, now.Add(-1*time.Hour)),
	}

	got := statesFromRecords(records, params, now)
	want := []model.DeviceState{
		{DeviceName: "left window", Room: "living room", State: model.StateOpen},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("states = %+v, want %+v", got, want)
	}
}

func TestStatesFromRecords_RecencyBoundary(t *testing.T) {
	now := time.Now()
	params := model.Parameters{StateFilter: model.FilterAll}
	records := []*query.FluxRecord{
		// Only observation for its device, but too old to be trusted.
		record("dev-1", "left window", "living_room", false, now.Add(-49*time.Hour)),
	}

	if got := statesFromRecords(records, params, now); len(got) != 0 {
		t.Errorf("states = %+v, want none", got)
	}
}

func TestStatesFromRecords_StateFilterKeepsActualState(t *testing.T) {
	now := time.Now()
	records := []*query.FluxRecord{
		record("dev-1", "left window", "living_room", false, now.Add(-time.Hour)),
		record("dev-2", "right window", "bedroom", true, now.Add(-time.Hour)),
	}

	open := statesFromRecords(records, model.Parameters{StateFilter: model.FilterOpen}, now)
	if len(open) != 1 || open[0].DeviceName != "left window" || open[0].State != model.StateOpen {
		t.Errorf("open filter states = %+v", open)
	}

	closed := statesFromRecords(records, model.Parameters{StateFilter: model.FilterClosed}, now)
	if len(closed) != 1 || closed[0].DeviceName != "right window" || closed[0].State != model.StateClosed {
		t.Errorf("closed filter states = %+v", closed)
	}
}

func TestStatesFromRecords_RoomFilterEchoesSpokenName(t *testing.T) {
	now := time.Now()
	params := model.Parameters{
		Rooms:       []string{"Living Room"},
		StateFilter: model.FilterAll,
	}
	records := []*query.FluxRecord{
		record("dev-1", "left window", "living_room", false, now.Add(-time.Hour)),
		record("dev-2", "right window", "bedroom", true, now.Add(-time.Hour)),
	}

	got := statesFromRecords(records, params, now)
	if len(got) != 1 {
		t.Fatalf("states = %+v, want exactly one", got)
	}
	// The room comes back as the user spoke it, not as the storage key.
	if got[0].Room != "Living Room" {
		t.Errorf("room = %q, want %q", got[0].Room, "Living Room")
	}
}

func TestStatesFromRecords_UnrestrictedRoomsAreDenormalized(t *testing.T) {
	now := time.Now()
	records := []*query.FluxRecord{
		record("dev-1", "roof window", "guest_room", true, now.Add(-time.Hour)),
	}

	got := statesFromRecords(records, model.Parameters{StateFilter: model.FilterAll}, now)
	if len(got) != 1 || got[0].Room != "guest room" {
		t.Errorf("states = %+v, want room %q", got, "guest room")
	}
}

func TestStatesFromRecords_TieBreak(t *testing.T) {
	now := time.Now()
	at := now.Add(-time.Hour)
	records := []*query.FluxRecord{
		record("dev-1", "left window", "living_room", false, at),
		record("dev-1", "left window", "living_room", true, at),
	}

	got := statesFromRecords(records, model.Parameters{StateFilter: model.FilterAll}, now)
	if len(got) != 1 || got[0].State != model.StateClosed {
		t.Errorf("states = %+v, want the closed reading on an exact tie", got)
	}
}

func TestStatesFromRecords_StableOrder(t *testing.T) {
	now := time.Now()
	records := []*query.FluxRecord{
		record("dev-b", "second", "bedroom", true, now.Add(-time.Hour)),
		record("dev-a", "first", "bedroom", true, now.Add(-time.Hour)),
	}

	params := model.Parameters{StateFilter: model.FilterAll}
	got := statesFromRecords(records, params, now)
	again := statesFromRecords(records, params, now)
	if !reflect.DeepEqual(got, again) {
		t.Errorf("repeated calls differ: %+v vs %+v", got, again)
	}
	if len(got) != 2 || got[0].DeviceName != "first" {
		t.Errorf("states = %+v, want dev-a first", got)
	}
}

func TestNormalizeRoom(t *testing.T) {
	if got := normalizeRoom(" Living Room "); got != "living_room" {
		t.Errorf("normalizeRoom = %q, want living_room", got)
	}
	if got := denormalizeRoom("living_room"); got != "living room" {
		t.Errorf("denormalizeRoom = %q, want living room", got)
	}
}
