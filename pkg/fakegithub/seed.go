package fakegithub

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed describes repositories and commit snapshots to load into a Store.
type Seed struct {
	Repos []SeedRepo `yaml:"repos"`
}

// SeedRepo is one repository in a seed file.
type SeedRepo struct {
	Owner   string       `yaml:"owner"`
	Name    string       `yaml:"name"`
	Commits []SeedCommit `yaml:"commits"`
}

// SeedCommit is a snapshot: a commit sha and the files it contains.
type SeedCommit struct {
	SHA   string            `yaml:"sha"`
	Files map[string]string `yaml:"files"`
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for _, r := range seed.Repos {
		if r.Owner == "" || r.Name == "" {
			return nil, fmt.Errorf("seed repo missing owner or name: %q/%q", r.Owner, r.Name)
		}
		for i, c := range r.Commits {
			if c.SHA == "" {
				return nil, fmt.Errorf("seed repo %s/%s: commit %d has no sha", r.Owner, r.Name, i)
			}
			if err := ValidatePaths(c.Files); err != nil {
				return nil, fmt.Errorf("seed repo %s/%s: commit %s: %w", r.Owner, r.Name, c.SHA, err)
			}
		}
	}
	return &seed, nil
}

// LoadSeedFile parses the seed at path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close() //nolint:errcheck // close errors on readers are non-actionable
	return ParseSeed(f)
}

// DefaultSeed returns the built-in fixture repositories.
func DefaultSeed() *Seed {
	seed, err := ParseSeed(bytes.NewReader(defaultSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return seed
}

// Apply loads every commit in seed into s, stopping at the first invalid one.
func (s *Store) Apply(seed *Seed) error {
	for _, r := range seed.Repos {
		for _, c := range r.Commits {
			if _, err := s.AddCommit(r.Owner, r.Name, c.SHA, c.Files); err != nil {
				return fmt.Errorf("seed repo %s/%s: commit %s: %w", r.Owner, r.Name, c.SHA, err)
			}
		}
	}
	return nil
}
