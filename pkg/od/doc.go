// Package od implements the in-memory CANopen Object Dictionary model.
//
// An ObjectDictionary is a per-node table of indexed entries. An entry is
// one of three kinds: a bare Variable, a Record of subindexed variables, or
// an Array of same-typed variables. The package also provides the data-type
// registry mapping symbolic configuration type names to CANopen data types
// with their bit widths, zero values and numeric ranges.
//
// The model is built offline by the gen package and consumed read-only by
// artifact generators. It is not safe for concurrent mutation.
package od
