package regime

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"nse-trading-engine/internal/confluence"
)

// WeightProfiles maps each regime to its layer weight profile.
type WeightProfiles map[Regime]confluence.Weights

// weightsFile mirrors the YAML layout of the weight configuration.
type weightsFile struct {
	Weights map[string]map[string]float64 `yaml:"weights"`
}

// DefaultWeightProfiles returns the built-in weight profiles used when
// no configuration file is supplied.
func DefaultWeightProfiles() WeightProfiles {
	return WeightProfiles{
		RegimeTrend: {
			confluence.LayerTrend:      0.40,
			confluence.LayerMomentum:   0.30,
			confluence.LayerVolatility: 0.15,
			confluence.LayerStructure:  0.15,
		},
		RegimeRange: {
			confluence.LayerTrend:      0.15,
			confluence.LayerMomentum:   0.40,
			confluence.LayerVolatility: 0.20,
			confluence.LayerStructure:  0.25,
		},
		RegimeHighVolatility: {
			confluence.LayerTrend:      0.20,
			confluence.LayerMomentum:   0.25,
			confluence.LayerVolatility: 0.25,
			confluence.LayerStructure:  0.30,
		},
	}
}

// LoadWeightProfiles reads weight profiles from a YAML file and
// validates each profile sums to 1.0. A missing path yields the
// defaults; a misconfigured file is a startup error.
func LoadWeightProfiles(path string) (WeightProfiles, error) {
	if path == "" {
		return DefaultWeightProfiles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultWeightProfiles(), nil
		}
		return nil, fmt.Errorf("reading weight config: %w", err)
	}

	var file weightsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing weight config: %w", err)
	}

	profiles := DefaultWeightProfiles()
	for name, raw := range file.Weights {
		regime, err := regimeFromKey(name)
		if err != nil {
			return nil, err
		}
		weights := confluence.Weights{}
		for layer, weight := range raw {
			if weight < 0 {
				return nil, fmt.Errorf("weight profile %q: negative weight for %q", name, layer)
			}
			weights[confluence.Layer(layer)] = weight
		}
		profiles[regime] = weights
	}

	if err := ValidateWeightProfiles(profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ValidateWeightProfiles checks that every profile covers the four
// layers and sums to 1.0 within tolerance.
func ValidateWeightProfiles(profiles WeightProfiles) error {
	for regime, weights := range profiles {
		total := 0.0
		for _, layer := range confluence.Layers {
			weight, ok := weights[layer]
			if !ok {
				return fmt.Errorf("weight profile %s: missing layer %s", regime, layer)
			}
			total += weight
		}
		if math.Abs(total-1.0) > 0.01 {
			return fmt.Errorf("weight profile %s: weights sum to %.4f, expected 1.0", regime, total)
		}
	}
	return nil
}

func regimeFromKey(key string) (Regime, error) {
	switch key {
	case "trend":
		return RegimeTrend, nil
	case "range":
		return RegimeRange, nil
	case "high_volatility":
		return RegimeHighVolatility, nil
	default:
		return RegimeUnknown, fmt.Errorf("unknown regime key %q in weight config", key)
	}
}
