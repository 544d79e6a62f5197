package config

import (
	"embed"
	"strings"
)

//go:embed defaults/*.yaml
var embedded embed.FS

// EmbeddedLookup resolves built-in session files by name. Tests may replace it.
var EmbeddedLookup = func(name string) ([]byte, bool) {
	if strings.ContainsAny(name, "/\\") {
		return nil, false
	}
	b, err := embedded.ReadFile("defaults/" + name + ".yaml")
	return b, err == nil
}

// LoadEmbedded parses a built-in session file.
func LoadEmbedded(name string) (*File, error) {
	b, ok := EmbeddedLookup(name)
	if !ok || len(b) == 0 {
		return nil, invalid("no embedded config "+name, nil)
	}
	return Parse(b)
}
