// Package runtime hosts the bridge's moving parts: the request/response
// dispatcher, the subscription multiplexer, and the device scanner. All of
// them talk to the native SDK exclusively through the injected façade.
package runtime

import (
	"context"
	"sync"

	"github.com/blang/semver"
	logging "github.com/op/go-logging"

	"github.com/mobilityhq/tripbridge"
	"github.com/mobilityhq/tripbridge/translate"
)

var log = logging.MustGetLogger("tripbridge")

// Outcome is the single terminal result of one dispatched request.
// Handled=false signals an unknown operation name so the caller can decide
// to ignore or surface it; it is not an error.
type Outcome struct {
	Handled bool
	Value   any
	Err     *tripbridge.Error
}

// reply collects exactly one terminal result per request. Façade callbacks
// may fire more than once; only the first resolution wins.
type reply struct {
	once sync.Once
	ch   chan Outcome
}

func newReply() *reply {
	return &reply{ch: make(chan Outcome, 1)}
}

func (r *reply) value(v any) {
	r.once.Do(func() { r.ch <- Outcome{Handled: true, Value: v} })
}

func (r *reply) fail(err *tripbridge.Error) {
	r.once.Do(func() { r.ch <- Outcome{Handled: true, Err: err} })
}

// complete resolves from an async façade completion where nil means
// success with the given value.
func (r *reply) complete(v any, err error) {
	if err == nil {
		r.value(v)
		return
	}
	r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
}

type handlerFunc func(ctx context.Context, args translate.Args, r *reply)

// Dispatcher maps operation names onto façade calls. The handler table is
// static, built once at construction; there is no reflection and no
// caching or retry, a single pass-through per request.
type Dispatcher struct {
	facade   tripbridge.Facade
	opts     tripbridge.Options
	handlers map[string]handlerFunc
}

// NewDispatcher builds the dispatcher around the injected façade.
func NewDispatcher(facade tripbridge.Facade, opts tripbridge.Options) *Dispatcher {
	d := &Dispatcher{facade: facade, opts: opts}
	d.handlers = map[string]handlerFunc{
		"init":                     d.initialize,
		"setup":                    d.setup,
		"setupWithCode":            d.setupWithCode,
		"updateConfig":             d.updateConfig,
		"updateAuth":               d.updateAuth,
		"shutdown":                 d.shutdown,
		"startAutomaticDetection":  d.startAutomaticDetection,
		"stopAutomaticDetection":   d.stopAutomaticDetection,
		"forceTripRecognition":     d.forceTripRecognition,
		"finishCurrentTrip":        d.finishCurrentTrip,
		"ignoreCurrentTrip":        d.ignoreCurrentTrip,
		"startTrip":                d.startTrip,
		"initiateAssistanceCall":   d.initiateAssistanceCall,
		"geocode":                  d.geocode,
		"registerDevices":          d.registerDevices,
		"unregisterDevices":        d.unregisterDevices,
		"getRegisteredDevices":     d.getRegisteredDevices,
		"getServiceErrors":         d.getServiceErrors,
		"getServiceWarnings":       d.getServiceWarnings,
		"getMoveConfig":            d.getMoveConfig,
		"getSdkState":              d.getSdkState,
		"getTripState":             d.getTripState,
		"getAuthState":             d.getAuthState,
		"getDeviceStatus":          d.getDeviceStatus,
		"deleteLocalData":          d.deleteLocalData,
		"resolveError":             d.resolveError,
		"synchronizeUserData":      d.synchronizeUserData,
		"fetchUserConfig":          d.fetchUserConfig,
		"setAssistanceMetaData":    d.setAssistanceMetaData,
		"setLiveLocationTag":       d.setLiveLocationTag,
		"keepInForeground":         d.keepInForeground,
		"keepActive":               d.keepActive,
		"isKeepInForegroundOn":     d.isKeepInForegroundOn,
		"isKeepActiveOn":           d.isKeepActiveOn,
		"useWakelocks":             d.useWakelocks,
		"allowMockLocations":       d.allowMockLocations,
		"requestHealthPermissions": d.requestHealthPermissions,
		"getPlatformVersion":       d.getPlatformVersion,
		"getDeviceQualifier":       d.getDeviceQualifier,
		"getSdkVersion":            d.getSdkVersion,
	}
	return d
}

// Operations lists the catalog names, for transport-level introspection.
func (d *Dispatcher) Operations() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch resolves name against the catalog and runs the handler. The
// caller's goroutine blocks until the single terminal result arrives;
// façade work happens on a separate goroutine so slow reads never run on
// the caller's stack. Unknown names yield Handled=false.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args translate.Args) Outcome {
	h, ok := d.handlers[name]
	if !ok {
		return Outcome{}
	}
	if args == nil {
		args = translate.Args{}
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && d.opts.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.DispatchTimeout)
		defer cancel()
	}
	r := newReply()
	go h(ctx, args, r)
	select {
	case out := <-r.ch:
		return out
	case <-ctx.Done():
		log.Warningf("dispatch %s: %v", name, ctx.Err())
		return Outcome{Handled: true, Err: &tripbridge.Error{
			Code:    tripbridge.CodeNetworkError,
			Message: ctx.Err().Error(),
		}}
	}
}

func (d *Dispatcher) initialize(_ context.Context, _ translate.Args, r *reply) {
	if err := d.facade.Initialize(); err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeSetupError, err))
		return
	}
	r.value("init")
}

func (d *Dispatcher) setup(_ context.Context, args translate.Args, r *reply) {
	auth, argErr := translate.Auth(args)
	if argErr != nil {
		r.fail(argErr)
		return
	}
	tokens, _ := args.StringList("config")
	cfg := translate.DecodeConfig(tokens)
	opts := translate.SetupOptions(args)
	if err := d.facade.Setup(auth, cfg, opts); err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeSetupError, err))
		return
	}
	r.value("setup")
}

func (d *Dispatcher) setupWithCode(_ context.Context, args translate.Args, r *reply) {
	code, ok := args.String("authCode")
	if !ok {
		r.fail(tripbridge.InvalidArguments("authCode"))
		return
	}
	tokens, _ := args.StringList("config")
	cfg := translate.DecodeConfig(tokens)
	opts := translate.SetupOptions(args)
	d.facade.SetupWithCode(code, cfg, opts, func(err error) {
		r.complete(true, err)
	})
}

func (d *Dispatcher) updateConfig(_ context.Context, args translate.Args, r *reply) {
	tokens, ok := args.StringList("config")
	if !ok {
		r.fail(tripbridge.InvalidArguments("config"))
		return
	}
	cfg := translate.DecodeConfig(tokens)
	opts := translate.SetupOptions(args)
	if err := d.facade.UpdateConfig(cfg, opts); err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value("updateConfig")
}

// Deprecated in the SDK contract; kept while callers migrate to setup.
func (d *Dispatcher) updateAuth(_ context.Context, args translate.Args, r *reply) {
	auth, argErr := translate.Auth(args)
	if argErr != nil {
		r.fail(argErr)
		return
	}
	d.facade.UpdateAuth(auth, func(err error) {
		r.complete("success", err)
	})
}

func (d *Dispatcher) shutdown(_ context.Context, args translate.Args, r *reply) {
	force, ok := args.Bool("force")
	if !ok {
		force = true
	}
	d.facade.Shutdown(force, func(err error) {
		r.complete("success", err)
	})
}

func (d *Dispatcher) startAutomaticDetection(_ context.Context, _ translate.Args, r *reply) {
	r.value(d.facade.StartAutomaticDetection())
}

func (d *Dispatcher) stopAutomaticDetection(_ context.Context, _ translate.Args, r *reply) {
	r.value(d.facade.StopAutomaticDetection())
}

func (d *Dispatcher) forceTripRecognition(_ context.Context, _ translate.Args, r *reply) {
	d.facade.ForceTripRecognition()
	r.value(nil)
}

func (d *Dispatcher) finishCurrentTrip(_ context.Context, _ translate.Args, r *reply) {
	d.facade.FinishCurrentTrip()
	r.value(nil)
}

func (d *Dispatcher) ignoreCurrentTrip(_ context.Context, _ translate.Args, r *reply) {
	d.facade.IgnoreCurrentTrip()
	r.value(nil)
}

func (d *Dispatcher) startTrip(_ context.Context, args translate.Args, r *reply) {
	metadata, _ := args.StringMap("metadata")
	r.value(d.facade.StartTrip(metadata))
}

func (d *Dispatcher) initiateAssistanceCall(_ context.Context, _ translate.Args, r *reply) {
	d.facade.InitiateAssistanceCall(func(err error) {
		r.complete("success", err)
	})
}

func (d *Dispatcher) geocode(_ context.Context, args translate.Args, r *reply) {
	var missing []string
	latitude, ok := args.Float64("latitude")
	if !ok {
		missing = append(missing, "latitude")
	}
	longitude, ok := args.Float64("longitude")
	if !ok {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		r.fail(tripbridge.InvalidArguments(missing...))
		return
	}
	d.facade.Geocode(latitude, longitude, func(address string, err error) {
		r.complete(address, err)
	})
}

func (d *Dispatcher) registerDevices(_ context.Context, args translate.Args, r *reply) {
	devices, dropped, argErr := decodeDevicesArg(args)
	if argErr != nil {
		r.fail(argErr)
		return
	}
	if !d.facade.RegisterDevices(devices) {
		r.fail(&tripbridge.Error{Code: tripbridge.CodeRegisterDevices})
		return
	}
	r.value(registrationResult(dropped))
}

func (d *Dispatcher) unregisterDevices(_ context.Context, args translate.Args, r *reply) {
	devices, dropped, argErr := decodeDevicesArg(args)
	if argErr != nil {
		r.fail(argErr)
		return
	}
	if !d.facade.UnregisterDevices(devices) {
		r.fail(&tripbridge.Error{Code: tripbridge.CodeUnregisterDevices})
		return
	}
	r.value(registrationResult(dropped))
}

// decodeDevicesArg parses the devices map argument. A batch where every
// entry fails to parse is indistinguishable from a missing argument to the
// caller, so both report invalidArguments([devices]).
func decodeDevicesArg(args translate.Args) ([]tripbridge.Device, []string, *tripbridge.Error) {
	entries, ok := args.StringMap("devices")
	if !ok {
		return nil, nil, tripbridge.InvalidArguments("devices")
	}
	devices, dropped := translate.DecodeDeviceMap(entries)
	if len(devices) == 0 {
		return nil, nil, tripbridge.InvalidArguments("devices")
	}
	return devices, dropped, nil
}

func registrationResult(dropped []string) any {
	if len(dropped) == 0 {
		return nil
	}
	return map[string]any{"dropped": dropped}
}

func (d *Dispatcher) getRegisteredDevices(ctx context.Context, _ translate.Args, r *reply) {
	devices, err := d.facade.RegisteredDevices(ctx)
	if err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value(translate.EncodeDevices(devices))
}

func (d *Dispatcher) getServiceErrors(ctx context.Context, _ translate.Args, r *reply) {
	issues, err := d.facade.ServiceFailures(ctx)
	if err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value(translate.EncodeIssues(issues))
}

func (d *Dispatcher) getServiceWarnings(ctx context.Context, _ translate.Args, r *reply) {
	issues, err := d.facade.ServiceWarnings(ctx)
	if err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value(translate.EncodeIssues(issues))
}

func (d *Dispatcher) getMoveConfig(ctx context.Context, _ translate.Args, r *reply) {
	cfg, err := d.facade.Config(ctx)
	if err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value(translate.EncodeConfig(cfg))
}

func (d *Dispatcher) getSdkState(ctx context.Context, _ translate.Args, r *reply) {
	state, err := d.facade.SdkState(ctx)
	if err != nil {
		state = tripbridge.SdkUninitialised
	}
	r.value(string(state))
}

func (d *Dispatcher) getTripState(ctx context.Context, _ translate.Args, r *reply) {
	state, err := d.facade.TripState(ctx)
	if err != nil {
		state = tripbridge.TripUnknown
	}
	r.value(string(state))
}

func (d *Dispatcher) getAuthState(ctx context.Context, _ translate.Args, r *reply) {
	state, err := d.facade.AuthState(ctx)
	if err != nil {
		state = tripbridge.AuthUnknown
	}
	r.value(string(state))
}

func (d *Dispatcher) getDeviceStatus(ctx context.Context, _ translate.Args, r *reply) {
	status, err := d.facade.DeviceStatus(ctx)
	if err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value(status)
}

func (d *Dispatcher) deleteLocalData(ctx context.Context, _ translate.Args, r *reply) {
	if err := d.facade.DeleteLocalData(ctx); err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value("deleteLocalData")
}

func (d *Dispatcher) resolveError(_ context.Context, _ translate.Args, r *reply) {
	d.facade.ResolveError()
	r.value(nil)
}

func (d *Dispatcher) synchronizeUserData(_ context.Context, _ translate.Args, r *reply) {
	d.facade.SynchronizeUserData(func(success bool) {
		r.value(success)
	})
}

func (d *Dispatcher) fetchUserConfig(_ context.Context, _ translate.Args, r *reply) {
	if err := d.facade.FetchUserConfig(); err != nil {
		r.fail(tripbridge.Coded(tripbridge.CodeOf(err), err))
		return
	}
	r.value("fetchUserConfig")
}

func (d *Dispatcher) setAssistanceMetaData(_ context.Context, args translate.Args, r *reply) {
	value, ok := args.String("value")
	if !ok {
		r.fail(tripbridge.InvalidArguments("value"))
		return
	}
	d.facade.SetAssistanceMetaData(value)
	r.value(nil)
}

func (d *Dispatcher) setLiveLocationTag(_ context.Context, args translate.Args, r *reply) {
	// Absent tag clears the current one.
	value, _ := args.String("value")
	r.value(d.facade.SetLiveLocationTag(value))
}

func (d *Dispatcher) keepInForeground(_ context.Context, args translate.Args, r *reply) {
	enabled, _ := args.Bool("enabled")
	d.facade.KeepInForeground(enabled)
	r.value(nil)
}

func (d *Dispatcher) keepActive(_ context.Context, args translate.Args, r *reply) {
	enabled, _ := args.Bool("enabled")
	d.facade.KeepActive(enabled)
	r.value(nil)
}

func (d *Dispatcher) isKeepInForegroundOn(_ context.Context, _ translate.Args, r *reply) {
	r.value(d.facade.IsKeepInForegroundOn())
}

func (d *Dispatcher) isKeepActiveOn(_ context.Context, _ translate.Args, r *reply) {
	r.value(d.facade.IsKeepActiveOn())
}

func (d *Dispatcher) useWakelocks(_ context.Context, args translate.Args, r *reply) {
	recognition, _ := args.Bool("recognition")
	sensors, _ := args.Bool("sensors")
	critical, _ := args.Bool("critical")
	d.facade.UseWakelocks(recognition, sensors, critical)
	r.value(nil)
}

func (d *Dispatcher) allowMockLocations(_ context.Context, args translate.Args, r *reply) {
	allow, _ := args.Bool("allow")
	d.facade.AllowMockLocations(allow)
	r.value(nil)
}

func (d *Dispatcher) requestHealthPermissions(_ context.Context, _ translate.Args, r *reply) {
	d.facade.RequestHealthPermissions(func(granted bool, err error) {
		if err != nil {
			r.fail(tripbridge.Coded(tripbridge.CodePermissionDenied, err))
			return
		}
		if !granted {
			r.fail(&tripbridge.Error{Code: tripbridge.CodePermissionDenied})
			return
		}
		r.value(true)
	})
}

func (d *Dispatcher) getPlatformVersion(_ context.Context, _ translate.Args, r *reply) {
	r.value(d.facade.PlatformVersion())
}

func (d *Dispatcher) getDeviceQualifier(_ context.Context, _ translate.Args, r *reply) {
	r.value(d.facade.DeviceQualifier())
}

// getSdkVersion normalizes the façade-reported version so callers can rely
// on a parseable semver string; unparseable versions pass through raw.
func (d *Dispatcher) getSdkVersion(_ context.Context, _ translate.Args, r *reply) {
	raw := d.facade.SdkVersion()
	if v, err := semver.ParseTolerant(raw); err == nil {
		r.value(v.String())
		return
	}
	r.value(raw)
}
