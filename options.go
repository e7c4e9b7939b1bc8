package tripbridge

import "time"

// Options configures the bridge layer.
type Options struct {
	// RescanInterval is how often the device scanner re-enumerates
	// paired/connected peripherals during an attachment.
	RescanInterval time.Duration

	// ChannelBuffer is the per-channel queue depth for pending emissions
	// between a native callback and the delivery goroutine.
	ChannelBuffer int

	// SnapshotTimeout bounds the façade state read performed when a
	// snapshot-bearing channel is attached.
	SnapshotTimeout time.Duration

	// DispatchTimeout bounds a single request/response operation when the
	// caller's context carries no deadline of its own.
	DispatchTimeout time.Duration
}

// DefaultOptions gives baseline sensible defaults.
func DefaultOptions() Options {
	return Options{
		RescanInterval:  5 * time.Second,
		ChannelBuffer:   16,
		SnapshotTimeout: 5 * time.Second,
		DispatchTimeout: 30 * time.Second,
	}
}
