// Package credentials parses pasted KEY=value text and resolves the tokens
// an agent needs. Tokens live only in memory.
package credentials

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Parse reads KEY=value lines. Blank lines, comment lines and lines without
// a key are skipped; keys and values are trimmed and later keys win.
func Parse(text string) map[string]string {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		if key == "" {
			continue
		}
		vars[key] = value
	}
	return vars
}

// LoadFile parses an env file from disk.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return Parse(string(data)), nil
}

// FromEnviron collects environ entries (os.Environ format) into a map.
func FromEnviron(environ []string) map[string]string {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = v
		}
	}
	return vars
}

// Merge returns a new map with later maps overriding earlier ones.
func Merge(sources ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			merged[k] = v
		}
	}
	return merged
}

// TokenSpec describes one credential and the alternative names it may be
// pasted under.
type TokenSpec struct {
	Key     string
	Label   string
	Aliases []string
}

// Names returns the key followed by its aliases.
func (s TokenSpec) Names() []string {
	return append([]string{s.Key}, s.Aliases...)
}

// Tokens maps primary keys to resolved values.
type Tokens map[string]string

// Resolve picks a value for each spec: the primary key if present and
// non-empty, otherwise the first alias that is.
func Resolve(specs []TokenSpec, vars map[string]string) Tokens {
	tokens := make(Tokens, len(specs))
	for _, spec := range specs {
		for _, name := range spec.Names() {
			if v := vars[name]; v != "" {
				tokens[spec.Key] = v
				break
			}
		}
	}
	return tokens
}

// Has reports whether key resolved to a non-empty value.
func (t Tokens) Has(key string) bool {
	return t[key] != ""
}

// Get returns the value for key, or "".
func (t Tokens) Get(key string) string {
	return t[key]
}

// Mask shortens a secret for display.
func Mask(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("•", len(value))
	}
	return value[:4] + strings.Repeat("•", 4) + value[len(value)-4:]
}
