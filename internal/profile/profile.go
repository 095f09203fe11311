// Package profile holds named compression presets.
package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/imgsqueeze/internal/compress"
	"github.com/AnyUserName/imgsqueeze/internal/planner"
)

// DefaultName is the profile used when none is requested.
const DefaultName = "default"

// Profile defines compression parameters for one use case.
type Profile struct {
	Name    string `yaml:"-"`
	Quality int    `yaml:"quality"` // 0-100
	Scale   string `yaml:"scale"`   // "50%", "w:1600", "h:320"
	// HashNames embeds a content hash in output file names.
	HashNames bool `yaml:"hash_names"`
	// NoRegressSize skips outputs that are not smaller than the source.
	NoRegressSize bool `yaml:"no_regress_size"`
}

// Built-in profiles.
var builtin = map[string]Profile{
	"default": {
		Name:          "default",
		Quality:       compress.DefaultQuality,
		Scale:         "100%",
		NoRegressSize: true,
	},
	"web": {
		Name:          "web",
		Quality:       70,
		Scale:         "w:1600",
		HashNames:     true,
		NoRegressSize: true,
	},
	"thumbnail": {
		Name:      "thumbnail",
		Quality:   60,
		Scale:     "w:320",
		HashNames: true,
	},
	"archive": {
		Name:    "archive",
		Quality: 90,
		Scale:   "100%",
	},
}

// Set is a collection of profiles looked up by name.
type Set map[string]Profile

// Builtin returns a copy of the built-in profiles.
func Builtin() Set {
	s := make(Set, len(builtin))
	for k, v := range builtin {
		s[k] = v
	}
	return s
}

// Get returns a profile by name. Unknown names fall back to the default
// profile under the requested name.
func (s Set) Get(name string) Profile {
	if name == "" {
		name = DefaultName
	}
	if p, ok := s[name]; ok {
		return p
	}
	p := builtin[DefaultName]
	p.Name = name
	return p
}

// Names returns the profile names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads a YAML document mapping profile names to settings and
// merges it over the built-ins. Fields missing from a file entry that
// overrides a built-in keep the built-in values.
//
//	web:
//	  quality: 65
//	  scale: "w:1280"
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return Parse(data)
}

// Parse is LoadFile over an in-memory document.
func Parse(data []byte) (Set, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	s := Builtin()
	for name, node := range doc {
		p, ok := s[name]
		if !ok {
			p = builtin[DefaultName]
		}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		p.Name = name
		if _, err := p.Options(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		s[name] = p
	}
	return s, nil
}

// Options converts the profile into job options.
func (p Profile) Options() (compress.Options, error) {
	scale, err := planner.ParseScale(p.Scale)
	if err != nil {
		return compress.Options{}, err
	}
	return compress.Options{Quality: p.Quality, Scale: scale}.Normalize(), nil
}
