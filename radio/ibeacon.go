package radio

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/mobilityhq/tripbridge"
)

// Apple's Bluetooth SIG company identifier; iBeacon frames are emitted
// under it regardless of the beacon vendor.
const AppleCompanyID uint16 = 0x004C

const (
	ibeaconType   = 0x02
	ibeaconLength = 0x15
)

// ParseIBeacon decodes an iBeacon frame from manufacturer-specific data
// with the two company-identifier bytes already stripped. Layout: type,
// payload length, 16-byte proximity UUID, big-endian major and minor, and
// a signed calibration power byte the bridge does not carry.
func ParseIBeacon(name string, manufacturerID uint16, data []byte) (tripbridge.Device, bool) {
	if len(data) < 23 || data[0] != ibeaconType || data[1] != ibeaconLength {
		return tripbridge.Device{}, false
	}
	id, err := uuid.FromBytes(data[2:18])
	if err != nil {
		return tripbridge.Device{}, false
	}
	return tripbridge.Device{
		Name:           name,
		ProximityUUID:  id.String(),
		Major:          binary.BigEndian.Uint16(data[18:20]),
		Minor:          binary.BigEndian.Uint16(data[20:22]),
		ManufacturerID: manufacturerID,
	}, true
}
