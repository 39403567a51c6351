// Package card models the declarative configuration documents that describe
// a satellite subsystem card: the entry list, standard-object references,
// PDO slot descriptors and cross-node wiring directives.
//
// Documents are parsed strictly into a closed set of typed structs; unknown
// keys and malformed values are rejected at load time, never deep inside
// generation. A parsed Config is treated as an immutable value: Merge and
// Overlay return fresh deep copies and never touch their inputs, so cached
// base configs can safely be shared across missions.
package card
