package tripbridge

import (
	"context"
	"time"
)

// Unconfigured returns a Facade for processes where no native SDK has been
// linked in. Getters report the uninitialised state and every operation
// needing SDK state fails with the uninitialized code, so the bridge
// surface stays serviceable for integration testing and daemon bring-up.
func Unconfigured() Facade { return unconfigured{} }

type unconfigured struct{}

func (unconfigured) SdkVersion() string      { return "0.0.0" }
func (unconfigured) PlatformVersion() string { return "none" }
func (unconfigured) DeviceQualifier() string { return "unconfigured" }

func (unconfigured) SdkState(context.Context) (SdkState, error)   { return SdkUninitialised, nil }
func (unconfigured) TripState(context.Context) (TripState, error) { return TripUnknown, nil }
func (unconfigured) AuthState(context.Context) (AuthState, error) { return AuthUnknown, nil }
func (unconfigured) Config(context.Context) (Config, error)       { return Config{}, nil }
func (unconfigured) Health(context.Context) ([]HealthItem, error) { return nil, nil }
func (unconfigured) ServiceFailures(context.Context) ([]ServiceIssue, error) {
	return nil, nil
}
func (unconfigured) ServiceWarnings(context.Context) ([]ServiceIssue, error) {
	return nil, nil
}
func (unconfigured) DeviceStatus(context.Context) (map[string]any, error) {
	return nil, &Error{Code: CodeUninitialized}
}
func (unconfigured) RegisteredDevices(context.Context) ([]Device, error) { return nil, nil }

func (unconfigured) Initialize() error { return nil }

func (unconfigured) Setup(Auth, Config, *SetupOptions) error {
	return &Error{Code: CodeSetupError, Message: "no native SDK linked"}
}
func (unconfigured) SetupWithCode(_ string, _ Config, _ *SetupOptions, done func(error)) {
	done(&Error{Code: CodeSetupError, Message: "no native SDK linked"})
}
func (unconfigured) UpdateConfig(Config, *SetupOptions) error {
	return &Error{Code: CodeUninitialized}
}
func (unconfigured) UpdateAuth(_ Auth, done func(error)) { done(&Error{Code: CodeUninitialized}) }
func (unconfigured) Shutdown(_ bool, done func(error))   { done(&Error{Code: CodeUninitialized}) }
func (unconfigured) DeleteLocalData(context.Context) error {
	return &Error{Code: CodeUninitialized}
}
func (unconfigured) ResolveError()                        {}
func (unconfigured) SynchronizeUserData(done func(bool))  { done(false) }
func (unconfigured) FetchUserConfig() error               { return &Error{Code: CodeUninitialized} }
func (unconfigured) StartAutomaticDetection() bool        { return false }
func (unconfigured) StopAutomaticDetection() bool         { return false }
func (unconfigured) ForceTripRecognition()                {}
func (unconfigured) FinishCurrentTrip()                   {}
func (unconfigured) IgnoreCurrentTrip()                   {}
func (unconfigured) StartTrip(map[string]string) bool     { return false }
func (unconfigured) SetLiveLocationTag(string) bool       { return false }
func (unconfigured) InitiateAssistanceCall(done func(error)) {
	done(&Error{Code: CodeInitializationError})
}
func (unconfigured) SetAssistanceMetaData(string) {}
func (unconfigured) Geocode(_, _ float64, done func(string, error)) {
	done("", &Error{Code: CodeUninitialized})
}
func (unconfigured) RegisterDevices([]Device) bool   { return false }
func (unconfigured) UnregisterDevices([]Device) bool { return false }
func (unconfigured) AllowMockLocations(bool)         {}
func (unconfigured) KeepInForeground(bool)           {}
func (unconfigured) KeepActive(bool)                 {}
func (unconfigured) IsKeepInForegroundOn() bool      { return false }
func (unconfigured) IsKeepActiveOn() bool            { return false }
func (unconfigured) UseWakelocks(_, _, _ bool)       {}
func (unconfigured) RequestHealthPermissions(done func(bool, error)) {
	done(false, &Error{Code: CodePermissionDenied})
}

func (unconfigured) OnSdkState(func(SdkState))             {}
func (unconfigured) OnTripState(func(TripState))           {}
func (unconfigured) OnAuthState(func(AuthState))           {}
func (unconfigured) OnTripStart(func(time.Time))           {}
func (unconfigured) OnServiceFailure(func([]ServiceIssue)) {}
func (unconfigured) OnServiceWarning(func([]ServiceIssue)) {}
func (unconfigured) OnLog(func(event, value string))       {}
func (unconfigured) OnDeviceDiscovery(func([]ScanResult))  {}
func (unconfigured) OnDeviceState(func(Device))            {}
func (unconfigured) OnConfigChange(func(Config))           {}
func (unconfigured) OnHealth(func([]HealthItem))           {}
