package tripbridge

import (
	"context"
	"time"
)

// Facade is the injected stand-in for the opaque native detection SDK.
// Everything durable lives behind it; the bridge only translates.
//
// Synchronous getters may block on SDK internals, so the dispatcher runs
// them off the caller's goroutine. Asynchronous operations report exactly
// through their completion callback; implementations may invoke a callback
// more than once, the bridge guards so only the first completion is
// honored.
type Facade interface {
	Listeners

	// Identity.
	SdkVersion() string
	PlatformVersion() string
	DeviceQualifier() string

	// State reads.
	SdkState(ctx context.Context) (SdkState, error)
	TripState(ctx context.Context) (TripState, error)
	AuthState(ctx context.Context) (AuthState, error)
	Config(ctx context.Context) (Config, error)
	Health(ctx context.Context) ([]HealthItem, error)
	ServiceFailures(ctx context.Context) ([]ServiceIssue, error)
	ServiceWarnings(ctx context.Context) ([]ServiceIssue, error)
	DeviceStatus(ctx context.Context) (map[string]any, error)
	RegisteredDevices(ctx context.Context) ([]Device, error)

	// Lifecycle.
	Initialize() error
	Setup(auth Auth, cfg Config, opts *SetupOptions) error
	SetupWithCode(code string, cfg Config, opts *SetupOptions, done func(error))
	UpdateConfig(cfg Config, opts *SetupOptions) error
	UpdateAuth(auth Auth, done func(error))
	Shutdown(force bool, done func(error))
	DeleteLocalData(ctx context.Context) error
	ResolveError()
	SynchronizeUserData(done func(success bool))
	FetchUserConfig() error

	// Trip control.
	StartAutomaticDetection() bool
	StopAutomaticDetection() bool
	ForceTripRecognition()
	FinishCurrentTrip()
	IgnoreCurrentTrip()
	StartTrip(metadata map[string]string) bool
	SetLiveLocationTag(tag string) bool

	// Assistance and geocoding.
	InitiateAssistanceCall(done func(error))
	SetAssistanceMetaData(value string)
	Geocode(latitude, longitude float64, done func(address string, err error))

	// Device registration for the SDK's own discovery service.
	RegisterDevices(devices []Device) bool
	UnregisterDevices(devices []Device) bool

	// Process flags.
	AllowMockLocations(allow bool)
	KeepInForeground(enabled bool)
	KeepActive(enabled bool)
	IsKeepInForegroundOn() bool
	IsKeepActiveOn() bool
	UseWakelocks(recognition, sensors, critical bool)

	// Health platform.
	RequestHealthPermissions(done func(granted bool, err error))
}

// Listeners registers at most one callback per event category. Registering
// nil unregisters. Callbacks may fire on arbitrary SDK-internal goroutines;
// the multiplexer serializes delivery.
type Listeners interface {
	OnSdkState(func(SdkState))
	OnTripState(func(TripState))
	OnAuthState(func(AuthState))
	OnTripStart(func(time.Time))
	OnServiceFailure(func([]ServiceIssue))
	OnServiceWarning(func([]ServiceIssue))
	OnLog(func(event, value string))
	OnDeviceDiscovery(func([]ScanResult))
	OnDeviceState(func(Device))
	OnConfigChange(func(Config))
	OnHealth(func([]HealthItem))
}
