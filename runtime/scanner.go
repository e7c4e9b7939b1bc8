package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mobilityhq/tripbridge"
	"github.com/mobilityhq/tripbridge/radio"
)

// Scan filters. Unrecognized filters are ignored; an attach whose filter
// set selects nothing simply scans nothing.
const (
	FilterPaired    = "paired"
	FilterConnected = "connected"
	FilterBeacon    = "beacon"
)

// ScanQuery parameterizes one discovery session.
type ScanQuery struct {
	Filters        []string
	ProximityUUID  string
	ManufacturerID *uint16
}

func (q ScanQuery) has(filter string) bool {
	for _, f := range q.Filters {
		if f == filter {
			return true
		}
	}
	return false
}

// ScanSink receives a session's output. Error is terminal: the session is
// dead after the first Error call and emits nothing further.
type ScanSink struct {
	Devices func(devices []tripbridge.Device)
	Error   func(err *tripbridge.Error)
}

// Scanner drives cancelable discovery sessions over the host radio
// plumbing. One session at a time; a second attach replaces the first. A
// fresh session starts with an empty dedup set, so devices reported in a
// previous attachment are reported again.
type Scanner struct {
	enum    radio.Enumerator
	beacons radio.BeaconScanner
	opts    tripbridge.Options

	mu      sync.Mutex
	session *scanSession
}

// NewScanner builds a scanner over the given radio plumbing. Either
// dependency may be nil when the host lacks that capability; sessions
// needing it then fail with a terminal channel error instead.
func NewScanner(enum radio.Enumerator, beacons radio.BeaconScanner, opts tripbridge.Options) *Scanner {
	return &Scanner{enum: enum, beacons: beacons, opts: opts}
}

// scanSession owns the dedup set and serializes all sink calls.
type scanSession struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup

	emitMu sync.Mutex
	sink   ScanSink
	seen   map[string]bool
	closed bool
}

// emit forwards the not-yet-reported subset of devices, in input order.
func (s *scanSession) emit(devices []tripbridge.Device) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.closed {
		return
	}
	var fresh []tripbridge.Device
	for _, d := range devices {
		key := d.IdentityKey()
		if s.seen[key] {
			continue
		}
		s.seen[key] = true
		fresh = append(fresh, d)
	}
	if len(fresh) > 0 && s.sink.Devices != nil {
		s.sink.Devices(fresh)
	}
}

// fail delivers the terminal error and tears the session's workers down.
func (s *scanSession) fail(err *tripbridge.Error) {
	s.emitMu.Lock()
	if s.closed {
		s.emitMu.Unlock()
		return
	}
	s.closed = true
	sink := s.sink
	s.emitMu.Unlock()
	s.cancel()
	if sink.Error != nil {
		sink.Error(err)
	}
}

func (s *scanSession) close() {
	s.emitMu.Lock()
	s.closed = true
	s.emitMu.Unlock()
	s.cancel()
}

// Attach starts a discovery session. Validation failures are delivered as
// a terminal error on the sink and no session is created.
func (s *Scanner) Attach(q ScanQuery, sink ScanSink) {
	var beaconQuery radio.BeaconQuery
	if q.has(FilterBeacon) {
		id, err := uuid.Parse(q.ProximityUUID)
		if err != nil {
			if sink.Error != nil {
				sink.Error(tripbridge.InvalidArguments("uuid"))
			}
			return
		}
		beaconQuery = radio.BeaconQuery{ProximityUUID: id, ManufacturerID: q.ManufacturerID}
	}

	s.Detach()

	ctx, cancel := context.WithCancel(context.Background())
	session := &scanSession{
		cancel: cancel,
		sink:   sink,
		seen:   make(map[string]bool),
	}
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	if q.has(FilterPaired) || q.has(FilterConnected) {
		session.wg.Add(1)
		go s.enumerate(ctx, session, q)
	}
	if q.has(FilterBeacon) {
		session.wg.Add(1)
		go s.rangeBeacons(ctx, session, beaconQuery)
	}
}

// Detach stops the current session, if any. All platform scans are
// canceled and the dedup set is discarded with the session.
func (s *Scanner) Detach() {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()
	if session == nil {
		return
	}
	session.close()
	session.wg.Wait()
}

// enumerate reports bonded peripherals now and on every rescan tick.
// Connected is a strict narrowing of paired, so one pass serves both
// filters.
func (s *Scanner) enumerate(ctx context.Context, session *scanSession, q ScanQuery) {
	defer session.wg.Done()
	if s.enum == nil {
		session.fail(&tripbridge.Error{
			Code:    tripbridge.CodeScanDevices,
			Message: "bluetooth enumeration unavailable on this host",
		})
		return
	}
	if !s.enumerateOnce(ctx, session, q) {
		return
	}
	interval := s.opts.RescanInterval
	if interval <= 0 {
		interval = tripbridge.DefaultOptions().RescanInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.enumerateOnce(ctx, session, q) {
				return
			}
		}
	}
}

func (s *Scanner) enumerateOnce(ctx context.Context, session *scanSession, q ScanQuery) bool {
	var devices []tripbridge.Device
	var err error
	if q.has(FilterPaired) {
		devices, err = s.enum.Paired(ctx)
	} else {
		devices, err = s.enum.Connected(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		session.fail(scanError(err))
		return false
	}
	session.emit(devices)
	return true
}

func (s *Scanner) rangeBeacons(ctx context.Context, session *scanSession, q radio.BeaconQuery) {
	defer session.wg.Done()
	if s.beacons == nil {
		session.fail(&tripbridge.Error{
			Code:    tripbridge.CodeScanDevices,
			Message: "beacon scanning unavailable on this host",
		})
		return
	}
	err := s.beacons.Scan(ctx, q, func(d tripbridge.Device) {
		session.emit([]tripbridge.Device{d})
	})
	if err != nil && ctx.Err() == nil {
		session.fail(scanError(err))
	}
}

// scanError maps a radio failure onto the scan channel's error code. The
// permission name survives in the message so the caller can prompt for the
// exact permission.
func scanError(err error) *tripbridge.Error {
	var perm *radio.PermissionError
	if errors.As(err, &perm) {
		return &tripbridge.Error{Code: tripbridge.CodeScanDevices, Message: perm.Error()}
	}
	return &tripbridge.Error{Code: tripbridge.CodeScanDevices, Message: err.Error()}
}
