package translate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mobilityhq/tripbridge"
)

// DecodeDevice parses one transport-encoded device payload. The supplied
// name is authoritative and overwrites whatever name the payload embeds.
func DecodeDevice(name, encoded string) (tripbridge.Device, error) {
	var d tripbridge.Device
	if err := json.Unmarshal([]byte(encoded), &d); err != nil {
		return tripbridge.Device{}, fmt.Errorf("device %q: %w", name, err)
	}
	d.Name = name
	return d, nil
}

// DecodeDeviceMap parses a name→payload map. Bad entries do not abort the
// batch: the survivors are returned together with the names that failed to
// parse, and the caller decides whether dropped names are fatal.
func DecodeDeviceMap(entries map[string]string) (devices []tripbridge.Device, dropped []string) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d, err := DecodeDevice(name, entries[name])
		if err != nil {
			dropped = append(dropped, name)
			continue
		}
		devices = append(devices, d)
	}
	return devices, dropped
}

// EncodeDevice flattens a device to the transport row: the display name,
// the full JSON payload, and the connection flag repeated for callers that
// do not parse the payload.
func EncodeDevice(d tripbridge.Device) map[string]string {
	raw, err := json.Marshal(d)
	if err != nil {
		raw = []byte{}
	}
	return map[string]string{
		"name":        d.Name,
		"data":        string(raw),
		"isConnected": fmt.Sprintf("%t", d.Connected),
	}
}

// EncodeDevices flattens a device list to transport rows.
func EncodeDevices(devices []tripbridge.Device) []map[string]string {
	rows := make([]map[string]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, EncodeDevice(d))
	}
	return rows
}

// EncodeScanResults flattens SDK discovery results to transport rows.
func EncodeScanResults(results []tripbridge.ScanResult) []map[string]any {
	rows := make([]map[string]any, 0, len(results))
	for _, r := range results {
		raw, err := json.Marshal(r.Device)
		if err != nil {
			raw = []byte{}
		}
		rows = append(rows, map[string]any{
			"name":         r.Device.Name,
			"device":       string(raw),
			"isDiscovered": r.Discovered,
		})
	}
	return rows
}

// EncodeIssues flattens service errors/warnings to transport rows.
func EncodeIssues(issues []tripbridge.ServiceIssue) []map[string]any {
	rows := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		reasons := issue.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		rows = append(rows, map[string]any{
			"service": issue.Service,
			"reasons": reasons,
		})
	}
	return rows
}

// EncodeHealth flattens health items to transport rows.
func EncodeHealth(items []tripbridge.HealthItem) []map[string]string {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"reason":      item.Reason,
			"description": item.Description,
		})
	}
	return rows
}
