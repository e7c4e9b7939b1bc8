//go:build linux

package radio

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/currantlabs/ble"
	"github.com/currantlabs/ble/linux"

	"github.com/mobilityhq/tripbridge"
)

// HCIScanner ranges for iBeacon advertisements over the host's HCI socket.
// The device is opened lazily on the first scan and kept for the process
// lifetime; opening it requires CAP_NET_RAW or root.
type HCIScanner struct {
	once sync.Once
	dev  *linux.Device
	err  error
}

func NewHCIScanner() *HCIScanner {
	return &HCIScanner{}
}

func (s *HCIScanner) device() (*linux.Device, error) {
	s.once.Do(func() {
		s.dev, s.err = linux.NewDevice()
		if s.err != nil {
			if isPermission(s.err) {
				s.err = &PermissionError{Permission: "BLUETOOTH_SCAN"}
			}
			return
		}
		ble.SetDefaultDevice(s.dev)
	})
	return s.dev, s.err
}

func (s *HCIScanner) Scan(ctx context.Context, q BeaconQuery, found func(tripbridge.Device)) error {
	if _, err := s.device(); err != nil {
		return err
	}
	company := AppleCompanyID
	if q.ManufacturerID != nil {
		company = *q.ManufacturerID
	}
	want := q.ProximityUUID.String()
	handler := func(a ble.Advertisement) {
		md := a.ManufacturerData()
		if len(md) < 2 || binary.LittleEndian.Uint16(md[:2]) != company {
			return
		}
		d, ok := ParseIBeacon(a.LocalName(), company, md[2:])
		if !ok || d.ProximityUUID != want {
			return
		}
		found(d)
	}
	err := ble.Scan(ctx, true, handler, nil)
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return nil
	case isPermission(err):
		return &PermissionError{Permission: "BLUETOOTH_SCAN"}
	}
	return err
}

func isPermission(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "permission denied")
}
