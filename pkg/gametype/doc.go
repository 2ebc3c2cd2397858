// Package gametype maps game type names (roles, weapons, items, emotes...)
// to compact integer codes so they travel as a few bits instead of strings.
//
// Type tables are versioned YAML definitions embedded in the binary. The
// code of a name is its position in the table, so a table is append-only
// within a protocol version: two builds that load the same version agree on
// every code, and Set.Fingerprint lets peers check that cheaply.
//
// Each table provides a flat registry over every name and one registry per
// category. The width of a code on the wire is ceil(log2(Len())), so a
// small category such as Role costs 5 bits while the flat table costs 7.
//
//	set := gametype.Default()
//	roles, _ := set.Category(gametype.Role)
//	code, err := roles.Encode("leader") // 1
//	name, err := roles.Decode(code)     // "leader"
package gametype
