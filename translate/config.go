package translate

import (
	"github.com/mobilityhq/tripbridge"
)

// subTokens maps each parent service to the sub-service tokens it owns.
var subTokens = map[tripbridge.ServiceKind][]string{
	tripbridge.ServiceDriving: {
		tripbridge.SubDistractionFreeDriving,
		tripbridge.SubDrivingBehaviour,
		tripbridge.SubDeviceDiscovery,
	},
	tripbridge.ServiceWalking: {
		tripbridge.SubWalkingLocation,
	},
}

var parentOrder = []tripbridge.ServiceKind{
	tripbridge.ServiceDriving,
	tripbridge.ServiceCycling,
	tripbridge.ServiceWalking,
	tripbridge.ServicePlaces,
	tripbridge.ServicePublicTransport,
	tripbridge.ServicePointsOfInterest,
	tripbridge.ServiceAutomaticImpactDetection,
	tripbridge.ServiceAssistanceCall,
	tripbridge.ServiceHealth,
}

// DecodeConfig reconstructs composite detection services from a flat token
// list. Sub-service tokens attach to their parent and are dropped when the
// parent token is absent; unknown tokens are ignored.
func DecodeConfig(tokens []string) tripbridge.Config {
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}

	var cfg tripbridge.Config
	for _, kind := range parentOrder {
		if !present[string(kind)] {
			continue
		}
		svc := tripbridge.DetectionService{Kind: kind}
		for _, sub := range subTokens[kind] {
			if present[sub] {
				svc.Subs = append(svc.Subs, sub)
			}
		}
		cfg.Services = append(cfg.Services, svc)
	}
	return cfg
}

// EncodeConfig flattens a config back to the token list. The parent token
// is always included, even for a service constructed with an empty
// sub-service set. Token ordering is not part of the contract.
func EncodeConfig(cfg tripbridge.Config) []string {
	tokens := make([]string, 0, len(cfg.Services)*2)
	for _, svc := range cfg.Services {
		tokens = append(tokens, string(svc.Kind))
		owned := subTokens[svc.Kind]
		for _, sub := range svc.Subs {
			for _, known := range owned {
				if sub == known {
					tokens = append(tokens, sub)
					break
				}
			}
		}
	}
	return tokens
}
