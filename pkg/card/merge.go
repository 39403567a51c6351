package card

// MergeOptions controls how a card config combines with its common config.
type MergeOptions struct {
	// CoreNode marks the bus-master card (C3). The core card's own TPDO
	// list replaces the common one entirely instead of extending it, and
	// only the core card contributes a FRAM list.
	CoreNode bool
}

// Merge combines a card-specific config with the shared common config for
// its processor family. Neither input is modified; the result is a fresh
// deep copy. Standard-object keys are deduplicated, everything else is
// common-first concatenation so card entries land after common ones.
func Merge(cardCfg, commonCfg *Config, opts MergeOptions) *Config {
	cc := commonCfg.Clone()
	kc := cardCfg.Clone()

	out := &Config{
		StdObjects: dedupeSorted(cc.StdObjects, kc.StdObjects),
		Objects:    append(cc.Objects, kc.Objects...),
		RPDOs:      append(cc.RPDOs, kc.RPDOs...),
		TPDOsGen:   append(cc.TPDOsGen, kc.TPDOsGen...),
		RPDOsGen:   append(cc.RPDOsGen, kc.RPDOsGen...),
	}

	if opts.CoreNode {
		out.TPDOs = kc.TPDOs
		out.Fram = kc.Fram
	} else {
		out.TPDOs = append(cc.TPDOs, kc.TPDOs...)
	}

	return out
}
