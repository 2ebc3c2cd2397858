package gametype

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// Category partitions the type namespace. A message schema decides which
// category a field is coded against.
type Category string

const (
	Role      Category = "role"
	Emote     Category = "emote"
	Gun       Category = "gun"
	Melee     Category = "melee"
	Throwable Category = "throwable"
	Ammo      Category = "ammo"
	Heal      Category = "heal"
	Boost     Category = "boost"
	Gear      Category = "gear"
	Scope     Category = "scope"
	Perk      Category = "perk"
	Outfit    Category = "outfit"
)

// Definition errors.
var (
	ErrUnknownVersion    = errors.New("gametype: unknown definition version")
	ErrInvalidDefinition = errors.New("gametype: invalid definition")
)

//go:embed defs/*.yaml
var defsFS embed.FS

// definition is the YAML layout of a versioned type table.
type definition struct {
	Version    int `yaml:"version"`
	Categories []struct {
		Name  string   `yaml:"name"`
		Types []string `yaml:"types"`
	} `yaml:"categories"`
}

// Set is the complete type table of one protocol version: a flat registry
// over every name plus one registry per category. A Set is immutable once
// built and safe for concurrent use.
type Set struct {
	version     int
	all         *Registry
	categories  map[Category]*Registry
	order       []Category
	fingerprint uint64
}

// Parse reads a YAML type definition.
func Parse(r io.Reader) (*Set, error) {
	var def definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return build(def)
}

// LoadFile reads a YAML type definition from disk.
func LoadFile(filename string) (*Set, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Load returns the embedded type table for a protocol version.
func Load(version int) (*Set, error) {
	f, err := defsFS.Open(path.Join("defs", fmt.Sprintf("v%d.yaml", version)))
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, err
	}
	if s.version != version {
		return nil, fmt.Errorf("%w: file v%d declares version %d", ErrInvalidDefinition, version, s.version)
	}
	return s, nil
}

// Versions returns the embedded protocol versions in ascending order.
func Versions() []int {
	entries, err := defsFS.ReadDir("defs")
	if err != nil {
		return nil
	}
	var versions []int
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yaml")
		if !strings.HasPrefix(name, "v") {
			continue
		}
		v, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}

var (
	defaultSet     *Set
	defaultSetOnce sync.Once
)

// Default returns the latest embedded type table. It is built on first use
// and shared by every caller afterwards.
func Default() *Set {
	defaultSetOnce.Do(func() {
		versions := Versions()
		if len(versions) == 0 {
			panic("gametype: no embedded definitions")
		}
		s, err := Load(versions[len(versions)-1])
		if err != nil {
			panic(err)
		}
		defaultSet = s
	})
	return defaultSet
}

func build(def definition) (*Set, error) {
	if def.Version <= 0 || def.Version > 0xFF {
		return nil, fmt.Errorf("%w: version %d out of range", ErrInvalidDefinition, def.Version)
	}
	if len(def.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidDefinition)
	}

	s := &Set{
		version:    def.Version,
		categories: make(map[Category]*Registry, len(def.Categories)),
	}

	h := xxhash.New()
	fmt.Fprintf(h, "v%d\n", def.Version)

	var flat []string
	for _, c := range def.Categories {
		cat := Category(c.Name)
		if cat == "" {
			return nil, fmt.Errorf("%w: unnamed category", ErrInvalidDefinition)
		}
		if _, ok := s.categories[cat]; ok {
			return nil, fmt.Errorf("%w: category %q listed twice", ErrInvalidDefinition, cat)
		}
		reg, err := NewRegistry(c.Types)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", cat, err)
		}
		s.categories[cat] = reg
		s.order = append(s.order, cat)
		flat = append(flat, c.Types...)

		fmt.Fprintf(h, "%s:%s\n", cat, strings.Join(c.Types, ","))
	}

	all, err := NewRegistry(flat)
	if err != nil {
		// A name shared by two categories would get two flat codes.
		return nil, fmt.Errorf("flat table: %w", err)
	}
	s.all = all
	s.fingerprint = h.Sum64()
	return s, nil
}

// Version returns the protocol version the table belongs to.
func (s *Set) Version() int {
	return s.version
}

// All returns the flat registry covering every category.
func (s *Set) All() *Registry {
	return s.all
}

// Category returns the registry of one category.
func (s *Set) Category(cat Category) (*Registry, bool) {
	r, ok := s.categories[cat]
	return r, ok
}

// Categories returns the category names in definition order.
func (s *Set) Categories() []Category {
	out := make([]Category, len(s.order))
	copy(out, s.order)
	return out
}

// CategoryOf returns the category a name belongs to.
func (s *Set) CategoryOf(name string) (Category, bool) {
	for _, cat := range s.order {
		if s.categories[cat].Contains(name) && name != "" {
			return cat, true
		}
	}
	return "", false
}

// Fingerprint identifies the exact code assignment of the table. Peers
// with equal fingerprints agree on every code.
func (s *Set) Fingerprint() uint64 {
	return s.fingerprint
}
