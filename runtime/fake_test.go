package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/mobilityhq/tripbridge"
)

// fakeFacade records calls and plays back canned state. Completion
// callbacks fire synchronously; set doubleComplete to make every async
// operation invoke its callback twice.
type fakeFacade struct {
	mu sync.Mutex

	version      string
	platform     string
	qualifier    string
	sdkState     tripbridge.SdkState
	tripState    tripbridge.TripState
	authState    tripbridge.AuthState
	config       tripbridge.Config
	health       []tripbridge.HealthItem
	failures     []tripbridge.ServiceIssue
	warnings     []tripbridge.ServiceIssue
	deviceStatus map[string]any
	registered   []tripbridge.Device

	setupErr       error
	registerOK     bool
	unregisterOK   bool
	detectionOK    bool
	syncOK         bool
	healthGranted  bool
	geocodeAddr    string
	geocodeErr     error
	blockReads     chan struct{}
	doubleComplete bool

	calls        []string
	lastAuth     tripbridge.Auth
	lastConfig   tripbridge.Config
	lastForce    bool
	lastMetadata map[string]string
	lastTag      string
	lastAssist   string
	lastDevices  []tripbridge.Device
	foreground   bool
	active       bool

	onSdkState        func(tripbridge.SdkState)
	onTripState       func(tripbridge.TripState)
	onAuthState       func(tripbridge.AuthState)
	onTripStart       func(time.Time)
	onServiceFailure  func([]tripbridge.ServiceIssue)
	onServiceWarning  func([]tripbridge.ServiceIssue)
	onLog             func(event, value string)
	onDeviceDiscovery func([]tripbridge.ScanResult)
	onDeviceState     func(tripbridge.Device)
	onConfigChange    func(tripbridge.Config)
	onHealth          func([]tripbridge.HealthItem)
}

func newFakeFacade() *fakeFacade {
	return &fakeFacade{
		version:       "2.5.1",
		platform:      "linux",
		qualifier:     "test-rig",
		sdkState:      tripbridge.SdkReady,
		tripState:     tripbridge.TripIdle,
		authState:     tripbridge.AuthValid,
		registerOK:    true,
		unregisterOK:  true,
		detectionOK:   true,
		syncOK:        true,
		healthGranted: true,
	}
}

func (f *fakeFacade) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeFacade) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeFacade) complete(done func(error), err error) {
	done(err)
	if f.doubleComplete {
		done(err)
	}
}

func (f *fakeFacade) waitReads(ctx context.Context) error {
	if f.blockReads != nil {
		select {
		case <-f.blockReads:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeFacade) SdkVersion() string      { return f.version }
func (f *fakeFacade) PlatformVersion() string { return f.platform }
func (f *fakeFacade) DeviceQualifier() string { return f.qualifier }

func (f *fakeFacade) SdkState(ctx context.Context) (tripbridge.SdkState, error) {
	if err := f.waitReads(ctx); err != nil {
		return tripbridge.SdkUninitialised, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sdkState, nil
}

func (f *fakeFacade) TripState(ctx context.Context) (tripbridge.TripState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tripState, nil
}

func (f *fakeFacade) AuthState(ctx context.Context) (tripbridge.AuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authState, nil
}

func (f *fakeFacade) Config(ctx context.Context) (tripbridge.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config, nil
}

func (f *fakeFacade) Health(ctx context.Context) ([]tripbridge.HealthItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.health, nil
}

func (f *fakeFacade) ServiceFailures(ctx context.Context) ([]tripbridge.ServiceIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures, nil
}

func (f *fakeFacade) ServiceWarnings(ctx context.Context) ([]tripbridge.ServiceIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.warnings, nil
}

func (f *fakeFacade) DeviceStatus(ctx context.Context) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceStatus, nil
}

func (f *fakeFacade) RegisteredDevices(ctx context.Context) ([]tripbridge.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered, nil
}

func (f *fakeFacade) Initialize() error { f.record("initialize"); return nil }

func (f *fakeFacade) Setup(auth tripbridge.Auth, cfg tripbridge.Config, _ *tripbridge.SetupOptions) error {
	f.record("setup")
	f.mu.Lock()
	f.lastAuth = auth
	f.lastConfig = cfg
	f.mu.Unlock()
	return f.setupErr
}

func (f *fakeFacade) SetupWithCode(code string, cfg tripbridge.Config, _ *tripbridge.SetupOptions, done func(error)) {
	f.record("setupWithCode")
	f.mu.Lock()
	f.lastConfig = cfg
	f.mu.Unlock()
	f.complete(done, f.setupErr)
}

func (f *fakeFacade) UpdateConfig(cfg tripbridge.Config, _ *tripbridge.SetupOptions) error {
	f.record("updateConfig")
	f.mu.Lock()
	f.lastConfig = cfg
	f.mu.Unlock()
	return nil
}

func (f *fakeFacade) UpdateAuth(auth tripbridge.Auth, done func(error)) {
	f.record("updateAuth")
	f.mu.Lock()
	f.lastAuth = auth
	f.mu.Unlock()
	f.complete(done, nil)
}

func (f *fakeFacade) Shutdown(force bool, done func(error)) {
	f.record("shutdown")
	f.mu.Lock()
	f.lastForce = force
	f.mu.Unlock()
	f.complete(done, nil)
}

func (f *fakeFacade) DeleteLocalData(ctx context.Context) error {
	f.record("deleteLocalData")
	return nil
}

func (f *fakeFacade) ResolveError() { f.record("resolveError") }

func (f *fakeFacade) SynchronizeUserData(done func(bool)) {
	f.record("synchronizeUserData")
	done(f.syncOK)
	if f.doubleComplete {
		done(!f.syncOK)
	}
}

func (f *fakeFacade) FetchUserConfig() error { f.record("fetchUserConfig"); return nil }

func (f *fakeFacade) StartAutomaticDetection() bool {
	f.record("startAutomaticDetection")
	return f.detectionOK
}

func (f *fakeFacade) StopAutomaticDetection() bool {
	f.record("stopAutomaticDetection")
	return f.detectionOK
}

func (f *fakeFacade) ForceTripRecognition() { f.record("forceTripRecognition") }
func (f *fakeFacade) FinishCurrentTrip()    { f.record("finishCurrentTrip") }
func (f *fakeFacade) IgnoreCurrentTrip()    { f.record("ignoreCurrentTrip") }

func (f *fakeFacade) StartTrip(metadata map[string]string) bool {
	f.record("startTrip")
	f.mu.Lock()
	f.lastMetadata = metadata
	f.mu.Unlock()
	return f.detectionOK
}

func (f *fakeFacade) SetLiveLocationTag(tag string) bool {
	f.record("setLiveLocationTag")
	f.mu.Lock()
	f.lastTag = tag
	f.mu.Unlock()
	return true
}

func (f *fakeFacade) InitiateAssistanceCall(done func(error)) {
	f.record("initiateAssistanceCall")
	f.complete(done, nil)
}

func (f *fakeFacade) SetAssistanceMetaData(value string) {
	f.record("setAssistanceMetaData")
	f.mu.Lock()
	f.lastAssist = value
	f.mu.Unlock()
}

func (f *fakeFacade) Geocode(latitude, longitude float64, done func(string, error)) {
	f.record("geocode")
	done(f.geocodeAddr, f.geocodeErr)
	if f.doubleComplete {
		done(f.geocodeAddr, f.geocodeErr)
	}
}

func (f *fakeFacade) RegisterDevices(devices []tripbridge.Device) bool {
	f.record("registerDevices")
	f.mu.Lock()
	f.lastDevices = devices
	f.mu.Unlock()
	return f.registerOK
}

func (f *fakeFacade) UnregisterDevices(devices []tripbridge.Device) bool {
	f.record("unregisterDevices")
	f.mu.Lock()
	f.lastDevices = devices
	f.mu.Unlock()
	return f.unregisterOK
}

func (f *fakeFacade) AllowMockLocations(allow bool) { f.record("allowMockLocations") }

func (f *fakeFacade) KeepInForeground(enabled bool) {
	f.record("keepInForeground")
	f.mu.Lock()
	f.foreground = enabled
	f.mu.Unlock()
}

func (f *fakeFacade) KeepActive(enabled bool) {
	f.record("keepActive")
	f.mu.Lock()
	f.active = enabled
	f.mu.Unlock()
}

func (f *fakeFacade) IsKeepInForegroundOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.foreground
}

func (f *fakeFacade) IsKeepActiveOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeFacade) UseWakelocks(recognition, sensors, critical bool) {
	f.record("useWakelocks")
}

func (f *fakeFacade) RequestHealthPermissions(done func(bool, error)) {
	f.record("requestHealthPermissions")
	done(f.healthGranted, nil)
	if f.doubleComplete {
		done(!f.healthGranted, nil)
	}
}

func (f *fakeFacade) OnSdkState(fn func(tripbridge.SdkState)) {
	f.mu.Lock()
	f.onSdkState = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnTripState(fn func(tripbridge.TripState)) {
	f.mu.Lock()
	f.onTripState = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnAuthState(fn func(tripbridge.AuthState)) {
	f.mu.Lock()
	f.onAuthState = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnTripStart(fn func(time.Time)) {
	f.mu.Lock()
	f.onTripStart = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnServiceFailure(fn func([]tripbridge.ServiceIssue)) {
	f.mu.Lock()
	f.onServiceFailure = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnServiceWarning(fn func([]tripbridge.ServiceIssue)) {
	f.mu.Lock()
	f.onServiceWarning = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnLog(fn func(event, value string)) {
	f.mu.Lock()
	f.onLog = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnDeviceDiscovery(fn func([]tripbridge.ScanResult)) {
	f.mu.Lock()
	f.onDeviceDiscovery = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnDeviceState(fn func(tripbridge.Device)) {
	f.mu.Lock()
	f.onDeviceState = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnConfigChange(fn func(tripbridge.Config)) {
	f.mu.Lock()
	f.onConfigChange = fn
	f.mu.Unlock()
}

func (f *fakeFacade) OnHealth(fn func([]tripbridge.HealthItem)) {
	f.mu.Lock()
	f.onHealth = fn
	f.mu.Unlock()
}

// emit helpers fire the registered listener, if any, as the SDK would.

func (f *fakeFacade) emitSdkState(s tripbridge.SdkState) {
	f.mu.Lock()
	f.sdkState = s
	fn := f.onSdkState
	f.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (f *fakeFacade) emitTripState(s tripbridge.TripState) {
	f.mu.Lock()
	f.tripState = s
	fn := f.onTripState
	f.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (f *fakeFacade) emitTripStart(t time.Time) {
	f.mu.Lock()
	fn := f.onTripStart
	f.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

func (f *fakeFacade) emitLog(event, value string) {
	f.mu.Lock()
	fn := f.onLog
	f.mu.Unlock()
	if fn != nil {
		fn(event, value)
	}
}

func (f *fakeFacade) emitDeviceState(d tripbridge.Device) {
	f.mu.Lock()
	fn := f.onDeviceState
	f.mu.Unlock()
	if fn != nil {
		fn(d)
	}
}

func (f *fakeFacade) emitConfigChange(cfg tripbridge.Config) {
	f.mu.Lock()
	f.config = cfg
	fn := f.onConfigChange
	f.mu.Unlock()
	if fn != nil {
		fn(cfg)
	}
}
