// Package gen builds Object Dictionaries from resolved card configurations.
//
// Generation runs in strict phases per node: configured objects and standard
// objects first, then the node's own TPDO and RPDO slots, then cross-node
// wiring that consumes other nodes' PDO definitions, and finally default
// materialization. The cross-wiring step is the one place where building one
// node's dictionary mutates another's.
package gen
