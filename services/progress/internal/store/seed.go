package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Activities []Activity `yaml:"activities"`
}

// LoadSeed reads activity definitions from a YAML file.
func LoadSeed(path string) ([]Activity, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(b)
}

func ParseSeed(b []byte) ([]Activity, error) {
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, a := range f.Activities {
		if a.ID <= 0 {
			return nil, fmt.Errorf("seed activity %d: id must be positive", i)
		}
		if a.MediaURL == "" {
			return nil, fmt.Errorf("seed activity %d: media_url is required", a.ID)
		}
		if !ValidPercentage(a.CompletionMinView) {
			return nil, fmt.Errorf("seed activity %d: completion_min_view out of range", a.ID)
		}
	}
	return f.Activities, nil
}

// ApplySeed upserts every activity into repo.
func ApplySeed(ctx context.Context, repo ActivityRepository, activities []Activity) error {
	for _, a := range activities {
		if err := repo.Put(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
