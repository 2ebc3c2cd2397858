package gametype

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryEncodeDecode(t *testing.T) {
	r, err := NewRegistry([]string{"leader", "medic", "recon"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		name string
		code uint32
	}{
		{"", 0},
		{"leader", 1},
		{"medic", 2},
		{"recon", 3},
	}
	for _, tc := range tests {
		code, err := r.Encode(tc.name)
		if err != nil || code != tc.code {
			t.Errorf("Encode(%q) = %d, %v; want %d, nil", tc.name, code, err, tc.code)
		}
		name, err := r.Decode(tc.code)
		if err != nil || name != tc.name {
			t.Errorf("Decode(%d) = %q, %v; want %q, nil", tc.code, name, err, tc.name)
		}
	}

	if r.Len() != 4 || r.Bits() != 2 {
		t.Errorf("Len/Bits = %d/%d, want 4/2", r.Len(), r.Bits())
	}
}

func TestRegistryUnknown(t *testing.T) {
	r, _ := NewRegistry([]string{"a"})
	if _, err := r.Encode("b"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Encode(b) = %v, want ErrUnknownType", err)
	}
	if _, err := r.Decode(2); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Decode(2) = %v, want ErrUnknownType", err)
	}
}

func TestRegistryInvalid(t *testing.T) {
	if _, err := NewRegistry([]string{"a", "b", "a"}); !errors.Is(err, ErrDuplicateType) {
		t.Errorf("duplicate: got %v, want ErrDuplicateType", err)
	}
	if _, err := NewRegistry([]string{"a", ""}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty: got %v, want ErrEmptyName", err)
	}
}

func TestBitsFor(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {17, 5}, {18, 5}, {32, 5}, {33, 6}, {106, 7}, {1024, 10},
	}
	for _, tc := range tests {
		if got := bitsFor(tc.n); got != tc.want {
			t.Errorf("bitsFor(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestRegistryNamesIsCopy(t *testing.T) {
	r, _ := NewRegistry([]string{"a", "b"})
	names := r.Names()
	names[1] = "z"
	if got, _ := r.Decode(1); got != "a" {
		t.Errorf("Decode(1) = %q after mutating Names(), want a", got)
	}
}

func TestDefaultSet(t *testing.T) {
	s := Default()
	if s.Version() != 1 {
		t.Errorf("Version() = %d, want 1", s.Version())
	}

	roles, ok := s.Category(Role)
	if !ok {
		t.Fatal("Category(role) missing")
	}
	if roles.Bits() != 5 {
		t.Errorf("role Bits() = %d, want 5", roles.Bits())
	}
	if code, _ := roles.Encode("leader"); code != 1 {
		t.Errorf("role Encode(leader) = %d, want 1", code)
	}

	if s.All().Bits() != 7 {
		t.Errorf("flat Bits() = %d, want 7", s.All().Bits())
	}

	want := []Category{Role, Emote, Gun, Melee, Throwable, Ammo, Heal, Boost, Gear, Scope, Perk, Outfit}
	if diff := cmp.Diff(want, s.Categories()); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
}

func TestGameTypeLaw(t *testing.T) {
	s := Default()
	regs := []*Registry{s.All()}
	for _, cat := range s.Categories() {
		r, _ := s.Category(cat)
		regs = append(regs, r)
	}
	for _, r := range regs {
		for _, name := range r.Names() {
			code, err := r.Encode(name)
			if err != nil {
				t.Fatalf("Encode(%q) error = %v", name, err)
			}
			got, err := r.Decode(code)
			if err != nil || got != name {
				t.Errorf("Decode(Encode(%q)) = %q, %v", name, got, err)
			}
		}
	}
}

func TestFlatOrder(t *testing.T) {
	s := Default()
	// The flat table numbers categories in definition order.
	if code, _ := s.All().Encode("leader"); code != 1 {
		t.Errorf("flat Encode(leader) = %d, want 1", code)
	}
	roles, _ := s.Category(Role)
	if code, _ := s.All().Encode("emote_happyface"); int(code) != roles.Len() {
		t.Errorf("flat Encode(emote_happyface) = %d, want %d", code, roles.Len())
	}
}

func TestCategoryOf(t *testing.T) {
	s := Default()
	tests := []struct {
		name string
		want Category
		ok   bool
	}{
		{"leader", Role, true},
		{"mp5", Gun, true},
		{"frag", Throwable, true},
		{"", "", false},
		{"nothing", "", false},
	}
	for _, tc := range tests {
		got, ok := s.CategoryOf(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Errorf("CategoryOf(%q) = %q, %v; want %q, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLoadDeterministic(t *testing.T) {
	a, err := Load(1)
	if err != nil {
		t.Fatalf("Load(1) error = %v", err)
	}
	b, err := Load(1)
	if err != nil {
		t.Fatalf("Load(1) error = %v", err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprints differ: %x vs %x", a.Fingerprint(), b.Fingerprint())
	}
	if diff := cmp.Diff(a.All().Names(), b.All().Names()); diff != "" {
		t.Errorf("flat names differ (-a +b):\n%s", diff)
	}
}

func TestLoadUnknownVersion(t *testing.T) {
	if _, err := Load(99); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("Load(99) = %v, want ErrUnknownVersion", err)
	}
}

func TestVersions(t *testing.T) {
	if diff := cmp.Diff([]int{1}, Versions()); diff != "" {
		t.Errorf("Versions() mismatch (-want +got):\n%s", diff)
	}
}

func TestFingerprintChangesWithOrder(t *testing.T) {
	a, err := Parse(strings.NewReader("version: 1\ncategories:\n  - name: role\n    types: [a, b]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	b, err := Parse(strings.NewReader("version: 1\ncategories:\n  - name: role\n    types: [b, a]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("reordered tables share a fingerprint")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad_yaml", "version: [\n"},
		{"no_version", "categories:\n  - name: role\n    types: [a]\n"},
		{"version_too_large", "version: 300\ncategories:\n  - name: role\n    types: [a]\n"},
		{"no_categories", "version: 1\n"},
		{"unnamed_category", "version: 1\ncategories:\n  - types: [a]\n"},
		{"repeated_category", "version: 1\ncategories:\n  - name: role\n    types: [a]\n  - name: role\n    types: [b]\n"},
		{"unknown_field", "version: 1\nextra: true\ncategories:\n  - name: role\n    types: [a]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.yaml)); !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("Parse() = %v, want ErrInvalidDefinition", err)
			}
		})
	}
}

func TestParseSharedName(t *testing.T) {
	_, err := Parse(strings.NewReader("version: 1\ncategories:\n  - name: gun\n    types: [flare]\n  - name: ammo\n    types: [flare]\n"))
	if !errors.Is(err, ErrDuplicateType) {
		t.Errorf("Parse() = %v, want ErrDuplicateType", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	if err := os.WriteFile(path, []byte("version: 2\ncategories:\n  - name: role\n    types: [captain, mate]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if s.Version() != 2 || s.All().Len() != 3 {
		t.Errorf("Version/Len = %d/%d, want 2/3", s.Version(), s.All().Len())
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) error = nil")
	}
}

func TestDefaultConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	sets := make([]*Set, 16)
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sets[i] = Default()
			r, _ := sets[i].Category(Role)
			r.Encode("leader")
		}(i)
	}
	wg.Wait()
	for i, s := range sets {
		if s != sets[0] {
			t.Errorf("Default() call %d returned a different set", i)
		}
	}
}

func TestDescribe(t *testing.T) {
	d := Default().Describe()
	if d.Version != 1 || d.Bits != 7 {
		t.Errorf("Describe() version, bits = %d, %d; want 1, 7", d.Version, d.Bits)
	}
	if len(d.Fingerprint) != 16 {
		t.Errorf("Fingerprint = %q, want 16 hex digits", d.Fingerprint)
	}
	if len(d.Categories) != 12 {
		t.Fatalf("len(Categories) = %d, want 12", len(d.Categories))
	}
	role := d.Categories[0]
	if role.Name != Role || role.Bits != 5 || len(role.Types) != 17 || role.Types[0] != "leader" {
		t.Errorf("role category = %+v", role)
	}
}
