package tripbridge

import "time"

// SdkState mirrors the detection SDK's lifecycle state.
type SdkState string

const (
	SdkUninitialised SdkState = "Uninitialised"
	SdkReady         SdkState = "Ready"
	SdkRunning       SdkState = "Running"
)

// TripState mirrors the SDK's trip classification state.
type TripState string

const (
	TripUnknown TripState = "Unknown"
	TripIdle    TripState = "Idle"
	TripDriving TripState = "Driving"
	TripHalt    TripState = "Halt"
	TripIgnored TripState = "Ignored"
)

// AuthState mirrors the SDK's authentication state.
type AuthState string

const (
	AuthUnknown AuthState = "UNKNOWN"
	AuthValid   AuthState = "VALID"
	AuthInvalid AuthState = "INVALID"
	AuthExpired AuthState = "EXPIRED"
)

// Auth carries the project credentials handed to Setup and UpdateAuth.
type Auth struct {
	ProjectID    int64
	UserID       string
	AccessToken  string
	RefreshToken string
}

// Device identifies a discoverable peripheral. Devices produced by audio or
// bonded-device enumeration carry a stable ID; devices produced by beacon
// ranging carry the proximity fields instead. The JSON form is the transport
// encoding round-tripped through the bridge.
type Device struct {
	Name           string `json:"name"`
	ID             string `json:"id,omitempty"`
	Connected      bool   `json:"isConnected,omitempty"`
	ProximityUUID  string `json:"proximityUUID,omitempty"`
	Major          uint16 `json:"major,omitempty"`
	Minor          uint16 `json:"minor,omitempty"`
	ManufacturerID uint16 `json:"manufacturerId,omitempty"`
}

// SameIdentity reports whether two devices refer to the same peripheral.
// Display names never participate: identity is the stable ID when present,
// otherwise the beacon proximity tuple.
func (d Device) SameIdentity(o Device) bool {
	if d.ID != "" || o.ID != "" {
		return d.ID == o.ID
	}
	return d.ProximityUUID == o.ProximityUUID && d.Major == o.Major && d.Minor == o.Minor
}

// IdentityKey returns a map key derived from the identity fields only.
func (d Device) IdentityKey() string {
	if d.ID != "" {
		return "id:" + d.ID
	}
	return "beacon:" + d.ProximityUUID + ":" + itoa(uint(d.Major)) + ":" + itoa(uint(d.Minor))
}

func itoa(v uint) string {
	if v == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// ScanResult is a device observed by the SDK's own discovery service.
type ScanResult struct {
	Device     Device
	Discovered bool
}

// ServiceKind names a top-level detection service.
type ServiceKind string

const (
	ServiceDriving                  ServiceKind = "driving"
	ServiceWalking                  ServiceKind = "walking"
	ServiceCycling                  ServiceKind = "cycling"
	ServicePlaces                   ServiceKind = "places"
	ServicePublicTransport          ServiceKind = "publicTransport"
	ServicePointsOfInterest         ServiceKind = "pointsOfInterest"
	ServiceAutomaticImpactDetection ServiceKind = "automaticImpactDetection"
	ServiceAssistanceCall           ServiceKind = "assistanceCall"
	ServiceHealth                   ServiceKind = "health"
)

// Sub-service tokens. Each is only meaningful alongside its parent service.
const (
	SubDistractionFreeDriving = "distractionFreeDriving"
	SubDrivingBehaviour       = "drivingBehaviour"
	SubDeviceDiscovery        = "deviceDiscovery"
	SubWalkingLocation        = "walkingLocation"
)

// DetectionService is one enabled service plus its sub-service tokens.
// Only driving and walking carry sub-services today.
type DetectionService struct {
	Kind ServiceKind
	Subs []string
}

// Config is the ordered set of enabled detection services.
type Config struct {
	Services []DetectionService
}

// Service returns the entry for kind, if enabled.
func (c Config) Service(kind ServiceKind) (DetectionService, bool) {
	for _, s := range c.Services {
		if s.Kind == kind {
			return s, true
		}
	}
	return DetectionService{}, false
}

// DiscoveryOptions tunes the SDK's own device-discovery service.
type DiscoveryOptions struct {
	StartDelay                time.Duration
	Duration                  time.Duration
	Interval                  time.Duration
	StopScanOnFirstDiscovered bool
}

// SetupOptions are the optional flags accepted by Setup and UpdateConfig.
type SetupOptions struct {
	MotionPermissionMandatory             bool
	BackgroundLocationPermissionMandatory bool
	UseBackendConfig                      bool
	DeviceDiscovery                       *DiscoveryOptions
}

// ServiceIssue is one service error or warning reported by the SDK,
// already flattened to the bridge's wire vocabulary.
type ServiceIssue struct {
	Service string
	Reasons []string
}

// HealthItem is one entry of the SDK's health score report.
type HealthItem struct {
	Reason      string
	Description string
}
