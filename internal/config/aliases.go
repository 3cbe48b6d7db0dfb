package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BlockAliases maps a short, query-friendly name (e.g. "bedrock") to the
// canonical namespaced block ID (e.g. "minecraft:bedrock"), so a caller
// running `find`/`get` from a shell doesn't have to type the full ID.
type BlockAliases map[string]string

// LoadBlockAliases reads <configPath>/block_aliases.yaml directly with
// yaml.v3 — this file is a small lookup fixture, not application config,
// so it skips viper's env-override and multi-path merge machinery. A
// missing file is not an error: it just means no aliases are defined.
func LoadBlockAliases(configPath string) (BlockAliases, error) {
	path := filepath.Join(configPath, "block_aliases.yaml")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return BlockAliases{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading block aliases: %w", err)
	}

	var aliases BlockAliases
	if err := yaml.Unmarshal(raw, &aliases); err != nil {
		return nil, fmt.Errorf("parsing block aliases %q: %w", path, err)
	}
	if aliases == nil {
		aliases = BlockAliases{}
	}
	return aliases, nil
}

// Resolve returns the canonical block ID for name, or name itself if it
// isn't a known alias (already-qualified IDs pass through unchanged).
func (a BlockAliases) Resolve(name string) string {
	if full, ok := a[name]; ok {
		return full
	}
	return name
}
