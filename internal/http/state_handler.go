package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/mobilityhq/tripbridge/runtime"
	"github.com/mobilityhq/tripbridge/translate"
)

// StateHandler serves the multiplexer's last-known channel values. The
// snapshot is advisory: channels nobody subscribed to yet report null.
func StateHandler(m *runtime.Multiplexer) http.HandlerFunc {
	channels := []string{
		runtime.ChannelSdkState,
		runtime.ChannelTripState,
		runtime.ChannelAuthState,
		runtime.ChannelConfigChange,
		runtime.ChannelSdkHealth,
		runtime.ChannelServiceError,
		runtime.ChannelServiceWarning,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		out := make(map[string]any, len(channels))
		for _, name := range channels {
			v, ok := m.Snapshot(name)
			if !ok {
				out[name] = nil
				continue
			}
			out[name] = v
		}
		writeJSON(w, out)
	}
}

// DevicesHandler serves the SDK's registered device list through the
// dispatcher, encoded the same way the websocket would deliver it.
func DevicesHandler(d *runtime.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := d.Dispatch(r.Context(), "getRegisteredDevices", translate.Args{})
		if out.Err != nil {
			w.Header().Set("Content-Type", "application/json")
			writeCORS(w)
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]any{"error": toWireError(out.Err)})
			return
		}
		rows, _ := out.Value.([]map[string]string)
		writeJSON(w, struct {
			Devices []map[string]string `json:"devices"`
			Count   int                 `json:"count"`
		}{Devices: rows, Count: len(rows)})
	}
}
