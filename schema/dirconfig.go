package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LogMetrics describes how scalar metrics are extracted from text log files
// before comparison. Patterns, Fields and Names are index-aligned: for every
// log line matching Patterns[i], the whitespace-separated field Fields[i] is
// parsed as a number and accumulated under Names[i]. CombinePatterns buckets
// the matched files by substring; an empty list means one bucket per file.
type LogMetrics struct {
	Patterns        []string `json:"patterns"`
	Fields          []int    `json:"fields"`
	Names           []string `json:"names"`
	CombinePatterns []string `json:"combine_patterns,omitempty"`
}

// Validate checks the index alignment of a log-metrics rule.
func (lm *LogMetrics) Validate() error {
	if len(lm.Patterns) == 0 {
		return fmt.Errorf("log_metrics needs at least one pattern")
	}
	if len(lm.Fields) != len(lm.Patterns) || len(lm.Names) != len(lm.Patterns) {
		return fmt.Errorf("log_metrics patterns, fields and names must have equal length")
	}
	return nil
}

// DirRule selects which sub-paths of a directory tree participate in a
// comparison and how. In JSON it is either a bare glob string or an object;
// a bare string is shorthand for {"pattern": ...}.
type DirRule struct {
	Pattern    string      `json:"pattern"`
	PerFile    bool        `json:"per_file,omitempty"`
	Grep       []string    `json:"grep,omitempty"`
	LogMetrics *LogMetrics `json:"log_metrics,omitempty"`
}

// UnmarshalJSON accepts both the bare-string and the object rule shape.
func (r *DirRule) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Pattern)
	}
	type plain DirRule
	return json.Unmarshal(data, (*plain)(r))
}

// Validate checks a single rule.
func (r *DirRule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("rule has no glob pattern")
	}
	if r.LogMetrics != nil {
		if r.PerFile {
			return fmt.Errorf("per_file and log_metrics are mutually exclusive")
		}
		return r.LogMetrics.Validate()
	}
	return nil
}

// ConfigGroup is one named group of a directory configuration.
type ConfigGroup struct {
	Name  string
	Rules []ConfigRule
}

// ConfigRule is one named rule within a group.
type ConfigRule struct {
	Name string
	Rule DirRule
}

// DirectoryConfig is the ordered mapping from group name to its rules.
// Group and rule order follow the JSON document so that dispatch and the
// last-writer-wins merge stay deterministic.
type DirectoryConfig struct {
	Groups []ConfigGroup
}

// LoadDirectoryConfig reads and validates a directory configuration file.
func LoadDirectoryConfig(path string) (*DirectoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory config %s: %w", path, err)
	}
	cfg, err := ParseDirectoryConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid directory config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseDirectoryConfig parses a directory configuration document, preserving
// the key order of the JSON objects.
func ParseDirectoryConfig(data []byte) (*DirectoryConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	cfg := &DirectoryConfig{}
	seenGroups := make(map[string]struct{})
	for dec.More() {
		groupName, err := nextKey(dec)
		if err != nil {
			return nil, err
		}
		if _, dup := seenGroups[groupName]; dup {
			return nil, fmt.Errorf("duplicate group %q", groupName)
		}
		seenGroups[groupName] = struct{}{}

		group := ConfigGroup{Name: groupName}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("group %q: %w", groupName, err)
		}
		seenRules := make(map[string]struct{})
		for dec.More() {
			ruleName, err := nextKey(dec)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", groupName, err)
			}
			if _, dup := seenRules[ruleName]; dup {
				return nil, fmt.Errorf("group %q: duplicate rule %q", groupName, ruleName)
			}
			seenRules[ruleName] = struct{}{}

			var rule DirRule
			if err := dec.Decode(&rule); err != nil {
				return nil, fmt.Errorf("group %q rule %q: %w", groupName, ruleName, err)
			}
			if err := rule.Validate(); err != nil {
				return nil, fmt.Errorf("group %q rule %q: %w", groupName, ruleName, err)
			}
			group.Rules = append(group.Rules, ConfigRule{Name: ruleName, Rule: rule})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("group %q: %w", groupName, err)
		}
		cfg.Groups = append(cfg.Groups, group)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Filter returns a copy restricted to the enabled top-level groups. An empty
// enable list keeps everything; disable takes precedence over enable.
func (c *DirectoryConfig) Filter(enable, disable []string) *DirectoryConfig {
	enabled := make(map[string]struct{}, len(enable))
	for _, e := range enable {
		enabled[e] = struct{}{}
	}
	disabled := make(map[string]struct{}, len(disable))
	for _, d := range disable {
		disabled[d] = struct{}{}
	}

	out := &DirectoryConfig{}
	for _, g := range c.Groups {
		if _, off := disabled[g.Name]; off {
			continue
		}
		if len(enabled) > 0 {
			if _, on := enabled[g.Name]; !on {
				continue
			}
		}
		out.Groups = append(out.Groups, g)
	}
	return out
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to parse directory config: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q in directory config, got %v", want, tok)
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("failed to parse directory config: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key in directory config, got %v", tok)
	}
	return key, nil
}
