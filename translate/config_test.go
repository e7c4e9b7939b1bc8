package translate

import (
	"sort"
	"testing"

	"github.com/mobilityhq/tripbridge"
)

func TestDecodeConfigParentChild(t *testing.T) {
	cfg := DecodeConfig([]string{"distractionFreeDriving", "driving", "cycling", "deviceDiscovery"})
	driving, ok := cfg.Service(tripbridge.ServiceDriving)
	if !ok {
		t.Fatalf("driving missing: %+v", cfg)
	}
	if len(driving.Subs) != 2 {
		t.Fatalf("driving subs: %v", driving.Subs)
	}
	if _, ok := cfg.Service(tripbridge.ServiceCycling); !ok {
		t.Fatalf("cycling missing")
	}
}

func TestDecodeConfigOrphanSubDropped(t *testing.T) {
	cfg := DecodeConfig([]string{"walkingLocation", "places"})
	if _, ok := cfg.Service(tripbridge.ServiceWalking); ok {
		t.Fatalf("orphan sub token must not create a parent service")
	}
	if _, ok := cfg.Service(tripbridge.ServicePlaces); !ok {
		t.Fatalf("places missing")
	}
}

func TestDecodeConfigUnknownTokenIgnored(t *testing.T) {
	cfg := DecodeConfig([]string{"warpDrive", "cycling"})
	if len(cfg.Services) != 1 {
		t.Fatalf("unexpected services: %+v", cfg.Services)
	}
}

func TestEncodeConfigBaseInclusion(t *testing.T) {
	cfg := tripbridge.Config{Services: []tripbridge.DetectionService{
		{Kind: tripbridge.ServiceDriving}, // empty sub set
		{Kind: tripbridge.ServiceWalking, Subs: []string{tripbridge.SubWalkingLocation}},
	}}
	tokens := EncodeConfig(cfg)
	want := map[string]bool{"driving": true, "walking": true, "walkingLocation": true}
	if len(tokens) != len(want) {
		t.Fatalf("tokens: %v", tokens)
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Fatalf("unexpected token %q in %v", tok, tokens)
		}
	}
}

func TestConfigRoundTripSetEqual(t *testing.T) {
	in := []string{"driving", "drivingBehaviour", "deviceDiscovery", "walking", "walkingLocation", "health"}
	out := EncodeConfig(DecodeConfig(in))

	sortedIn := append([]string(nil), in...)
	sortedOut := append([]string(nil), out...)
	sort.Strings(sortedIn)
	sort.Strings(sortedOut)
	if len(sortedIn) != len(sortedOut) {
		t.Fatalf("round trip lost tokens: in %v out %v", in, out)
	}
	for i := range sortedIn {
		if sortedIn[i] != sortedOut[i] {
			t.Fatalf("round trip mismatch: in %v out %v", in, out)
		}
	}
}
