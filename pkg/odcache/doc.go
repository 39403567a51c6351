// Package odcache converts Object Dictionaries to and from a flat snapshot
// representation and persists generated mission artifacts on disk, so
// repeated tool runs skip regeneration.
//
// Snapshots round-trip every entry attribute. The on-disk cache stores one
// CBOR document per card plus a JSON manifest; JSON export is offered for
// human inspection and external tooling.
package odcache
