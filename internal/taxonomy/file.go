package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"msvec/blocek/internal/logging"
)

// fileConfig is the YAML shape of a taxonomy override file.
type fileConfig struct {
	Categories []string        `yaml:"categories"`
	Rules      map[string]Rule `yaml:"rules"`
}

// LoadFile loads a taxonomy override from a YAML file. A missing file is not
// an error: the built-in taxonomy is returned, matching how the rest of the
// application treats absent local configuration. Categories listed without a
// rule get zero deltas.
func LoadFile(path string, log logging.Logger) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("file", path).Warn("Taxonomy file not found, using built-in taxonomy")
			return Default(), nil
		}
		return nil, fmt.Errorf("error reading taxonomy file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing taxonomy file: %w", err)
	}
	if len(cfg.Categories) == 0 {
		log.WithField("file", path).Warn("Taxonomy file has no categories, using built-in taxonomy")
		return Default(), nil
	}

	rules := make(map[string]Rule, len(cfg.Categories))
	for _, name := range cfg.Categories {
		rules[name] = cfg.Rules[name]
	}

	log.WithField("count", len(cfg.Categories)).Debug("Loaded taxonomy override")
	return &Set{categories: cfg.Categories, rules: rules}, nil
}
