// Package radio abstracts the host's Bluetooth plumbing behind two small
// interfaces: an enumerator for bonded devices and a scanner for iBeacon
// advertisements. The scanner in the runtime package consumes both and
// never touches the bus or the HCI socket directly.
package radio

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mobilityhq/tripbridge"
)

// PermissionError reports a missing host permission by its platform name,
// so the bridge can surface the exact permission the operator has to grant.
type PermissionError struct {
	Permission string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("Missing %s permission", e.Permission)
}

// Enumerator lists devices the host has already bonded with.
type Enumerator interface {
	Paired(ctx context.Context) ([]tripbridge.Device, error)
	Connected(ctx context.Context) ([]tripbridge.Device, error)
}

// BeaconQuery narrows a beacon scan. ManufacturerID nil matches the Apple
// company identifier the iBeacon frame format belongs to.
type BeaconQuery struct {
	ProximityUUID  uuid.UUID
	ManufacturerID *uint16
}

// BeaconScanner ranges for iBeacon advertisements until ctx is done,
// invoking found once per received advertisement. Implementations return
// *PermissionError when the host denies radio access.
type BeaconScanner interface {
	Scan(ctx context.Context, q BeaconQuery, found func(tripbridge.Device)) error
}
