// Package translate converts between the bridge's untyped argument-bag
// vocabulary and the strongly-shaped types the façade works with.
package translate

import (
	"strconv"
	"time"

	"github.com/mobilityhq/tripbridge"
)

// Args is the string-keyed bag of loosely-typed values every operation
// receives. Values follow the transport vocabulary: nil, bool, numbers
// (any Go numeric or numeric string), string, map[string]any, []any.
type Args map[string]any

// String extracts a string value.
func (a Args) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool extracts a boolean value.
func (a Args) Bool(key string) (bool, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Int64 extracts an integer, coercing floats with no fractional part and
// numeric strings.
func (a Args) Int64(key string) (int64, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		return parsed, err == nil
	}
	return 0, false
}

// Float64 extracts a floating-point value, coercing integers.
func (a Args) Float64(key string) (float64, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// StringList extracts a list of strings, tolerating []any elements.
func (a Args) StringList(key string) ([]string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// StringMap extracts a map of strings, tolerating map[string]any values.
func (a Args) StringMap(key string) (map[string]string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, e := range m {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// Map extracts a nested argument bag.
func (a Args) Map(key string) (Args, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]any:
		return Args(m), true
	case Args:
		return m, true
	}
	return nil, false
}

// Auth decodes the credential arguments shared by setup and updateAuth.
// All offending argument names are collected before failing so the caller
// sees the complete list.
func Auth(a Args) (tripbridge.Auth, *tripbridge.Error) {
	var missing []string
	projectID, ok := a.Int64("projectId")
	if !ok {
		missing = append(missing, "projectId")
	}
	userID, ok := a.String("userId")
	if !ok {
		missing = append(missing, "userId")
	}
	accessToken, ok := a.String("accessToken")
	if !ok {
		missing = append(missing, "accessToken")
	}
	refreshToken, ok := a.String("refreshToken")
	if !ok {
		missing = append(missing, "refreshToken")
	}
	if len(missing) > 0 {
		return tripbridge.Auth{}, tripbridge.InvalidArguments(missing...)
	}
	return tripbridge.Auth{
		ProjectID:    projectID,
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// SetupOptions decodes the optional options bag. Absent means nil; an
// options bag with unexpected value types keeps defaults for those keys.
func SetupOptions(a Args) *tripbridge.SetupOptions {
	bag, ok := a.Map("options")
	if !ok {
		return nil
	}
	opts := &tripbridge.SetupOptions{}
	if v, ok := bag.Bool("motionPermissionMandatory"); ok {
		opts.MotionPermissionMandatory = v
	}
	if v, ok := bag.Bool("backgroundLocationPermissionMandatory"); ok {
		opts.BackgroundLocationPermissionMandatory = v
	}
	if v, ok := bag.Bool("useBackendConfig"); ok {
		opts.UseBackendConfig = v
	}
	if dd, ok := bag.Map("deviceDiscovery"); ok {
		disc := &tripbridge.DiscoveryOptions{}
		if v, ok := dd.Int64("startDelay"); ok {
			disc.StartDelay = time.Duration(v) * time.Second
		}
		if v, ok := dd.Int64("duration"); ok {
			disc.Duration = time.Duration(v) * time.Second
		}
		if v, ok := dd.Int64("interval"); ok {
			disc.Interval = time.Duration(v) * time.Second
		}
		if v, ok := dd.Bool("stopScanOnFirstDiscovered"); ok {
			disc.StopScanOnFirstDiscovered = v
		}
		opts.DeviceDiscovery = disc
	}
	return opts
}
