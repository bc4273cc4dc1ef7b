package skill

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

type healthHandler struct {
	mqtt   mqtt.Client
	influx influxdb2.Client
}

func NewHealthHandler(m mqtt.Client, i influxdb2.Client) http.Handler {
	return &healthHandler{mqtt: m, influx: i}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Status        string `json:"status"`
		MQTTConnected bool   `json:"mqtt_connected"`
		InfluxOK      bool   `json:"influx_ok"`
	}
	st := status{
		MQTTConnected: h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		InfluxOK:      pingInflux(r.Context(), h.influx),
	}
	switch {
	case st.MQTTConnected && st.InfluxOK:
		st.Status = "ok"
	case st.MQTTConnected || st.InfluxOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// readyHandler answers 200 only when both dependencies are reachable.
type readyHandler struct {
	mqtt   mqtt.Client
	influx influxdb2.Client
}

func NewReadyHandler(m mqtt.Client, i influxdb2.Client) http.Handler {
	return &readyHandler{mqtt: m, influx: i}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ready := h.mqtt != nil && h.mqtt.IsConnectionOpen() && pingInflux(r.Context(), h.influx)
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
}

func pingInflux(ctx context.Context, c influxdb2.Client) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	ok, err := c.Ping(ctx)
	return ok && err == nil
}
