package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mobilityhq/tripbridge"
	"github.com/mobilityhq/tripbridge/translate"
)

// Channel names understood by the multiplexer. The device scanner channel
// is not here: it carries per-subscription query state and is served by
// Scanner instead.
const (
	ChannelSdkState        = "sdkState"
	ChannelTripState       = "tripState"
	ChannelAuthState       = "authState"
	ChannelTripStart       = "tripStart"
	ChannelServiceError    = "serviceError"
	ChannelServiceWarning  = "serviceWarning"
	ChannelLog             = "log"
	ChannelDeviceDiscovery = "deviceDiscovery"
	ChannelDeviceState     = "deviceState"
	ChannelConfigChange    = "configChange"
	ChannelSdkHealth       = "sdkHealth"
)

// channelSpec binds one event channel to its façade listener and, when the
// channel is state-bearing, to the read that produces the initial snapshot.
type channelSpec struct {
	snapshot   func(ctx context.Context, f tripbridge.Facade) (any, error)
	register   func(f tripbridge.Facade, emit func(any))
	unregister func(f tripbridge.Facade)
}

// Multiplexer fans façade events out to at most one sink per channel.
// Each attachment gets its own delivery goroutine, so a slow sink on one
// channel never stalls another; within a channel delivery is serialized
// and the current state snapshot always precedes live events.
type Multiplexer struct {
	facade tripbridge.Facade
	opts   tripbridge.Options
	specs  map[string]channelSpec

	mu     sync.Mutex
	active map[string]*attachment
	last   map[string]any
}

type attachment struct {
	queue chan any
	stop  chan struct{}
	done  chan struct{}
}

// NewMultiplexer builds the channel table around the injected façade.
func NewMultiplexer(facade tripbridge.Facade, opts tripbridge.Options) *Multiplexer {
	m := &Multiplexer{
		facade: facade,
		opts:   opts,
		active: make(map[string]*attachment),
		last:   make(map[string]any),
	}
	m.specs = map[string]channelSpec{
		ChannelSdkState: {
			snapshot: func(ctx context.Context, f tripbridge.Facade) (any, error) {
				s, err := f.SdkState(ctx)
				return string(s), err
			},
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnSdkState(func(s tripbridge.SdkState) { emit(string(s)) })
			},
			unregister: func(f tripbridge.Facade) { f.OnSdkState(nil) },
		},
		ChannelTripState: {
			snapshot: func(ctx context.Context, f tripbridge.Facade) (any, error) {
				s, err := f.TripState(ctx)
				return string(s), err
			},
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnTripState(func(s tripbridge.TripState) { emit(string(s)) })
			},
			unregister: func(f tripbridge.Facade) { f.OnTripState(nil) },
		},
		ChannelAuthState: {
			snapshot: func(ctx context.Context, f tripbridge.Facade) (any, error) {
				s, err := f.AuthState(ctx)
				return string(s), err
			},
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnAuthState(func(s tripbridge.AuthState) { emit(string(s)) })
			},
			unregister: func(f tripbridge.Facade) { f.OnAuthState(nil) },
		},
		ChannelTripStart: {
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnTripStart(func(t time.Time) { emit(t.UnixMilli()) })
			},
			unregister: func(f tripbridge.Facade) { f.OnTripStart(nil) },
		},
		ChannelServiceError: {
			snapshot: func(ctx context.Context, f tripbridge.Facade) (any, error) {
				issues, err := f.ServiceFailures(ctx)
				return translate.EncodeIssues(issues), err
			},
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnServiceFailure(func(issues []tripbridge.ServiceIssue) {
					emit(translate.EncodeIssues(issues))
				})
			},
			unregister: func(f tripbridge.Facade) { f.OnServiceFailure(nil) },
		},
		ChannelServiceWarning: {
			snapshot: func(ctx context.Context, f tripbridge.Facade) (any, error) {
				issues, err := f.ServiceWarnings(ctx)
				return translate.EncodeIssues(issues), err
			},
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnServiceWarning(func(issues []tripbridge.ServiceIssue) {
					emit(translate.EncodeIssues(issues))
				})
			},
			unregister: func(f tripbridge.Facade) { f.OnServiceWarning(nil) },
		},
		ChannelLog: {
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnLog(func(event, value string) {
					emit(map[string]string{"event": event, "value": value})
				})
			},
			unregister: func(f tripbridge.Facade) { f.OnLog(nil) },
		},
		ChannelDeviceDiscovery: {
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnDeviceDiscovery(func(results []tripbridge.ScanResult) {
					emit(translate.EncodeScanResults(results))
				})
			},
			unregister: func(f tripbridge.Facade) { f.OnDeviceDiscovery(nil) },
		},
		ChannelDeviceState: {
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnDeviceState(func(d tripbridge.Device) {
					emit(translate.EncodeDevices([]tripbridge.Device{d}))
				})
			},
			unregister: func(f tripbridge.Facade) { f.OnDeviceState(nil) },
		},
		ChannelConfigChange: {
			snapshot: func(ctx context.Context, f tripbridge.Facade) (any, error) {
				cfg, err := f.Config(ctx)
				return translate.EncodeConfig(cfg), err
			},
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnConfigChange(func(cfg tripbridge.Config) {
					emit(translate.EncodeConfig(cfg))
				})
			},
			unregister: func(f tripbridge.Facade) { f.OnConfigChange(nil) },
		},
		ChannelSdkHealth: {
			snapshot: func(ctx context.Context, f tripbridge.Facade) (any, error) {
				items, err := f.Health(ctx)
				return translate.EncodeHealth(items), err
			},
			register: func(f tripbridge.Facade, emit func(any)) {
				f.OnHealth(func(items []tripbridge.HealthItem) {
					emit(translate.EncodeHealth(items))
				})
			},
			unregister: func(f tripbridge.Facade) { f.OnHealth(nil) },
		},
	}
	return m
}

// Channels lists the channel names in the table.
func (m *Multiplexer) Channels() []string {
	names := make([]string, 0, len(m.specs))
	for name := range m.specs {
		names = append(names, name)
	}
	return names
}

// Attach subscribes sink to the named channel. A second attach on the same
// channel replaces the first. State-bearing channels deliver the current
// snapshot before any live event; events arriving while the snapshot read
// is in flight queue up behind it.
func (m *Multiplexer) Attach(name string, sink func(payload any)) error {
	spec, ok := m.specs[name]
	if !ok {
		return fmt.Errorf("unknown channel %q", name)
	}
	m.Detach(name)

	a := &attachment{
		queue: make(chan any, m.opts.ChannelBuffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	m.mu.Lock()
	m.active[name] = a
	m.mu.Unlock()

	spec.register(m.facade, func(v any) {
		m.remember(name, v)
		select {
		case a.queue <- v:
		default:
			log.Warningf("channel %s: sink too slow, dropping event", name)
		}
	})

	go m.deliver(name, spec, a, sink)
	return nil
}

func (m *Multiplexer) deliver(name string, spec channelSpec, a *attachment, sink func(any)) {
	defer close(a.done)
	if spec.snapshot != nil {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.SnapshotTimeout)
		v, err := spec.snapshot(ctx, m.facade)
		cancel()
		if err != nil {
			log.Warningf("channel %s: snapshot read failed: %v", name, err)
		} else {
			m.remember(name, v)
			sink(v)
		}
	}
	for {
		select {
		case <-a.stop:
			return
		case v := <-a.queue:
			sink(v)
		}
	}
}

// Detach unsubscribes the channel's sink, if any, and waits for its
// delivery goroutine to finish so no event arrives after Detach returns.
func (m *Multiplexer) Detach(name string) {
	spec, ok := m.specs[name]
	if !ok {
		return
	}
	m.mu.Lock()
	a := m.active[name]
	delete(m.active, name)
	m.mu.Unlock()
	if a == nil {
		return
	}
	spec.unregister(m.facade)
	close(a.stop)
	<-a.done
}

// DetachAll tears down every active attachment.
func (m *Multiplexer) DetachAll() {
	for name := range m.specs {
		m.Detach(name)
	}
}

// Snapshot returns the most recently emitted payload for the channel.
func (m *Multiplexer) Snapshot(name string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.last[name]
	return v, ok
}

func (m *Multiplexer) remember(name string, v any) {
	m.mu.Lock()
	m.last[name] = v
	m.mu.Unlock()
}
