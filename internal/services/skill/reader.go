package skill

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
	"github.com/sony/gobreaker"

	"github.com/private-assistant/iot-state-skill/internal/model"
)

// ErrStateRead marks store connectivity or query failures. The reader never
// retries; that call belongs to the transport layer if anywhere.
var ErrStateRead = errors.New("state read failure")

// recencyWindow bounds how far back a "current state" query looks. Older
// observations are stale and must not be reported.
const recencyWindow = 48 * time.Hour

// StateReader returns the latest eligible observation per device for the
// given parameters.
type StateReader interface {
	ReadStates(ctx context.Context, params model.Parameters) ([]model.DeviceState, error)
}

// InfluxReader queries contact observations from InfluxDB. Store access goes
// through a circuit breaker so a dead store fails fast instead of stalling
// every in-flight request.
type InfluxReader struct {
	queryAPI    api.QueryAPI
	bucket      string
	measurement string
	breaker     *gobreaker.CircuitBreaker
}

func NewInfluxReader(client influxdb2.Client, org, bucket, measurement string) *InfluxReader {
	return &InfluxReader{
		queryAPI:    client.QueryAPI(org),
		bucket:      bucket,
		measurement: measurement,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "influx-read",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

// ReadStates runs one Flux query selecting the most recent observation per
// device within the recency window, then applies the state filter. An empty
// result is not an error.
func (r *InfluxReader) ReadStates(ctx context.Context, params model.Parameters) ([]model.DeviceState, error) {
	normalized := make([]string, 0, len(params.Rooms))
	for _, room := range params.Rooms {
		normalized = append(normalized, normalizeRoom(room))
	}

	flux := buildStateQuery(r.bucket, r.measurement, params.DeviceType, normalized)

	res, err := r.breaker.Execute(func() (any, error) {
		result, err := r.queryAPI.Query(ctx, flux)
		if err != nil {
			return nil, err
		}
		defer func() { _ = result.Close() }()

		var records []*query.FluxRecord
		for result.Next() {
			records = append(records, result.Record())
		}
		if result.Err() != nil {
			return nil, result.Err()
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateRead, err)
	}

	return statesFromRecords(res.([]*query.FluxRecord), params, time.Now()), nil
}

// buildStateQuery assembles the Flux expression: recency window, measurement
// and device-type filters, optional room filter, latest row per device.
func buildStateQuery(bucket, measurement string, deviceType model.DeviceType, rooms []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `from(bucket: %q)
  |> range(start: -48h)
  |> filter(fn: (r) => r._measurement == %q and r._field == "contact")
  |> filter(fn: (r) => r.device_type == %q)
`, bucket, measurement, string(deviceType))
	if len(rooms) > 0 {
		clauses := make([]string, len(rooms))
		for i, room := range rooms {
			clauses[i] = fmt.Sprintf("r.room == %q", room)
		}
		fmt.Fprintf(&b, "  |> filter(fn: (r) => %s)\n", strings.Join(clauses, " or "))
	}
	b.WriteString(`  |> group(columns: ["device_id"])
  |> last()`)
	return b.String()
}

// statesFromRecords turns raw query rows into the result set: re-checks the
// recency window and room membership, keeps the newest row per device (exact
// time ties resolve to the closed reading), applies the state filter, and
// maps storage room keys back to the display names the user spoke.
// Results are ordered by device id so repeated calls compare equal.
func statesFromRecords(records []*query.FluxRecord, params model.Parameters, now time.Time) []model.DeviceState {
	cutoff := now.Add(-recencyWindow)

	display := make(map[string]string, len(params.Rooms))
	for _, room := range params.Rooms {
		display[normalizeRoom(room)] = room
	}

	latest := make(map[string]*query.FluxRecord)
	for _, rec := range records {
		if !rec.Time().After(cutoff) {
			continue
		}
		if len(display) > 0 {
			if _, ok := display[stringByKey(rec, "room")]; !ok {
				continue
			}
		}
		id := stringByKey(rec, "device_id")
		if id == "" {
			continue
		}
		prev, ok := latest[id]
		switch {
		case !ok:
			latest[id] = rec
		case rec.Time().After(prev.Time()):
			latest[id] = rec
		case rec.Time().Equal(prev.Time()) && contactOf(rec) && !contactOf(prev):
			latest[id] = rec
		}
	}

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.DeviceState, 0, len(ids))
	for _, id := range ids {
		rec := latest[id]
		contact, ok := rec.Value().(bool)
		if !ok {
			continue
		}
		if params.StateFilter == model.FilterOpen && contact {
			continue
		}
		if params.StateFilter == model.FilterClosed && !contact {
			continue
		}
		room := stringByKey(rec, "room")
		name, ok := display[room]
		if !ok {
			name = denormalizeRoom(room)
		}
		out = append(out, model.DeviceState{
			DeviceName: stringByKey(rec, "device_name"),
			Room:       name,
			State:      model.StateFromContact(contact),
		})
	}
	return out
}

// normalizeRoom maps a spoken room name to the storage key form.
func normalizeRoom(room string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(room)), " ", "_")
}

// denormalizeRoom is the display form for rooms the user did not name.
func denormalizeRoom(room string) string {
	return strings.ReplaceAll(room, "_", " ")
}

func stringByKey(rec *query.FluxRecord, key string) string {
	if v, ok := rec.ValueByKey(key).(string); ok {
		return v
	}
	return ""
}

func contactOf(rec *query.FluxRecord) bool {
	v, _ := rec.Value().(bool)
	return v
}
