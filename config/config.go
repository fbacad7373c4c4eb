// Package config loads a protomux configuration from a YAML document and
// binds each configured protocol to its probe function via probe.Resolve.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/kordex/protomux/probe"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a protomux configuration file.
type File struct {
	Verbose   int           `yaml:"verbose"`
	OnTimeout string        `yaml:"on_timeout"`
	Protocols []ProtocolDef `yaml:"protocols"`
}

// ProtocolDef is one entry of the "protocols" list in a config file.
type ProtocolDef struct {
	Name      string   `yaml:"name"`
	Probe     string   `yaml:"probe"`
	Target    string   `yaml:"target"`
	MinLength int      `yaml:"min_length"`
	SNIAllow  []string `yaml:"sni"`
	ALPNAllow []string `yaml:"alpn"`
	Patterns  []string `yaml:"patterns"`
}

// Load reads and parses the YAML file at path, resolving each entry's
// probe name through probe.Resolve. An entry naming a probe that doesn't
// resolve is a fatal configuration error: the core's runtime contract
// assumes configuration is valid, so this is caught here, at load time,
// rather than at runtime.
func Load(path string) (*probe.Configuration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return Bind(&f)
}

// Bind resolves a parsed File into a runtime Configuration, binding probe
// references and compiling any regex patterns.
func Bind(f *File) (*probe.Configuration, error) {
	cfg := &probe.Configuration{
		OnTimeout: f.OnTimeout,
		Verbose:   f.Verbose,
	}

	for _, def := range f.Protocols {
		entry, err := bindEntry(def)
		if err != nil {
			return nil, err
		}
		cfg.Entries = append(cfg.Entries, entry)
	}

	return cfg, nil
}

func bindEntry(def ProtocolDef) (*probe.ProtocolEntry, error) {
	entry := &probe.ProtocolEntry{
		Name:      def.Name,
		MinLength: def.MinLength,
		Target:    def.Target,
	}

	if def.Probe == "" {
		// No probe: an externally-managed pseudo-protocol, skipped by
		// the arbiter.
		return entry, nil
	}

	fn, ok := probe.Resolve(def.Probe)
	if !ok {
		return nil, fmt.Errorf("config: protocol %q: unknown probe %q", def.Name, def.Probe)
	}
	entry.Probe = fn

	switch def.Probe {
	case "tls":
		if len(def.SNIAllow) > 0 || len(def.ALPNAllow) > 0 {
			entry.Data = &probe.TLSPolicy{
				SNIAllow:  def.SNIAllow,
				ALPNAllow: def.ALPNAllow,
			}
		}
	case "regex":
		patterns, err := compilePatterns(def.Patterns)
		if err != nil {
			return nil, fmt.Errorf("config: protocol %q: %w", def.Name, err)
		}
		entry.Data = &probe.RegexSet{Patterns: patterns}
	}

	return entry, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
