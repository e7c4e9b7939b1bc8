//go:build !linux

package radio

import (
	"context"
	"errors"

	"github.com/mobilityhq/tripbridge"
)

// HCIScanner is only implemented on linux; elsewhere every scan fails.
type HCIScanner struct{}

func NewHCIScanner() *HCIScanner {
	return &HCIScanner{}
}

func (s *HCIScanner) Scan(ctx context.Context, q BeaconQuery, found func(tripbridge.Device)) error {
	return errors.New("beacon scanning is not supported on this platform")
}
