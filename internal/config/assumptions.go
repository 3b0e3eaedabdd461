package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/horizon/internal/domain"
)

// assumptionsFile is the on-disk YAML shape for capital-market assumption presets.
//
// Example:
//
//	asset_classes:
//	  stocks:
//	    expected_return: 0.08
//	    volatility: 0.16
//	  bonds:
//	    expected_return: 0.035
//	    volatility: 0.05
type assumptionsFile struct {
	AssetClasses map[string]struct {
		ExpectedReturn float64 `yaml:"expected_return"`
		Volatility     float64 `yaml:"volatility"`
	} `yaml:"asset_classes"`
}

// LoadAssumptions reads a YAML preset of capital-market assumptions and
// returns it as a StaticAssumptions provider. This is a convenience for
// callers; the engine itself never touches the filesystem.
func LoadAssumptions(path string) (domain.StaticAssumptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assumptions file: %w", err)
	}
	return ParseAssumptions(data)
}

// ParseAssumptions parses YAML capital-market assumptions.
func ParseAssumptions(data []byte) (domain.StaticAssumptions, error) {
	var file assumptionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse assumptions YAML: %w", err)
	}
	if len(file.AssetClasses) == 0 {
		return nil, domain.ConfigurationError{Field: "asset_classes", Message: "no asset classes defined"}
	}

	assumptions := make(domain.StaticAssumptions, len(file.AssetClasses))
	for class, params := range file.AssetClasses {
		p := domain.AssetParams{
			AssetClass:     class,
			ExpectedReturn: params.ExpectedReturn,
			Volatility:     params.Volatility,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("asset class %q: %w", class, err)
		}
		assumptions[class] = p
	}
	return assumptions, nil
}
