// Package mission ties the configuration model together per satellite: the
// mission table, the embedded configuration documents for each mission, and
// the load facade that merges, overlays and generates the full Object
// Dictionary set with optional on-disk caching.
package mission
