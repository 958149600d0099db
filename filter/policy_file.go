package filter

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPolicy decodes an optional YAML exclusion-policy document. An empty
// path returns the zero Policy (all-defaults).
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return Policy{}, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("filter: read policy file %q: %w", path, err)
	}

	var policy Policy
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&policy); err != nil {
		return Policy{}, fmt.Errorf("filter: parse policy file %q: %w", path, err)
	}
	return policy, nil
}
