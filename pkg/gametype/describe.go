package gametype

import "fmt"

// Description is the JSON form of a Set, as served by the /types endpoint
// and printed by the types command. Type codes are list positions plus
// one; code 0 is always the empty name.
type Description struct {
	Version     int                   `json:"version"`
	Fingerprint string                `json:"fingerprint"`
	Bits        int                   `json:"bits"`
	Categories  []CategoryDescription `json:"categories"`
}

// CategoryDescription describes the registry of one category.
type CategoryDescription struct {
	Name  Category `json:"name"`
	Bits  int      `json:"bits"`
	Types []string `json:"types"`
}

// Describe returns the description of s.
func (s *Set) Describe() Description {
	d := Description{
		Version:     s.version,
		Fingerprint: fmt.Sprintf("%016x", s.fingerprint),
		Bits:        s.all.Bits(),
		Categories:  make([]CategoryDescription, 0, len(s.order)),
	}
	for _, cat := range s.order {
		reg := s.categories[cat]
		d.Categories = append(d.Categories, CategoryDescription{
			Name:  cat,
			Bits:  reg.Bits(),
			Types: reg.Names()[1:],
		})
	}
	return d
}
