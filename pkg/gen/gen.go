package gen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oresat/oresat-configs/pkg/card"
	"github.com/oresat/oresat-configs/pkg/od"
)

// CoreCard is the name of the command and data handling card. It owns the
// beacon and FRAM definitions and consumes every other node's TPDOs.
const CoreCard = "c3"

// coreNodeID is the bus master node id used in node_ids array generation.
const coreNodeID uint8 = 0x01

// FwBaseNodeID is the placeholder node id of the firmware base OD used by
// firmware header generation.
const FwBaseNodeID uint8 = 0x7C

// Request carries everything one mission generation run needs. Configs hold
// the already-merged (and overlaid) per-card configurations, keyed by card
// name.
type Request struct {
	Cards   *card.Cards
	Configs map[string]*card.Config

	// StdObjects is the shared standard object catalog; each OD
	// instantiates its own copies of the names its config lists.
	StdObjects []card.Object

	Beacon *card.BeaconConfig

	// SatelliteID tags every OD's satellite_id object. SatelliteIDs is the
	// full mission table used for that object's value descriptions.
	SatelliteID  uint8
	SatelliteIDs map[string]int64

	// ConfigsVersion stamps versions.configs_version in every OD.
	ConfigsVersion string

	Logger *zap.Logger
}

// Result is one mission's generated artifacts.
type Result struct {
	// ODs holds the finished Object Dictionary per card name.
	ODs map[string]*od.ObjectDictionary

	// BeaconDefs and FramDefs resolve the beacon and FRAM field lists
	// against the core card's OD, in definition order.
	BeaconDefs []*od.Variable
	FramDefs   []*od.Variable
}

// Build generates every node's Object Dictionary for one mission. Card table
// order drives generation order, so the output is deterministic. Any error
// aborts the whole run; no partial result is returned.
func Build(req *Request) (*Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Sugar()

	nodeIDs := make(map[string]uint8, len(req.Configs))
	for name := range req.Configs {
		c, ok := req.Cards.Get(name)
		if !ok {
			return nil, fmt.Errorf("config for unknown card %q", name)
		}
		nodeIDs[name] = c.NodeID
	}
	nodeIDs[CoreCard] = coreNodeID

	stdByName := make(map[string]*card.Object, len(req.StdObjects))
	for i := range req.StdObjects {
		stdByName[req.StdObjects[i].Name] = &req.StdObjects[i]
	}

	result := &Result{ODs: make(map[string]*od.ObjectDictionary, len(req.Configs))}

	// Phase 1: per-node objects, standard objects and own PDO slots.
	for _, name := range req.Cards.Names() {
		cfg, ok := req.Configs[name]
		if !ok {
			continue
		}
		c, _ := req.Cards.Get(name)
		dict := od.New(c.NodeID, c.NiceName)

		if err := AddObjects(dict, cfg.Objects, nodeIDs); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := addStdObjects(dict, cfg.StdObjects, stdByName, nodeIDs); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := AddPDOs(dict, cfg.TPDOs, TPDO); err != nil {
			return nil, err
		}
		if err := AddPDOs(dict, cfg.RPDOs, RPDO); err != nil {
			return nil, err
		}

		stampIdentity(dict, req)
		if name == CoreCard {
			if err := applyBeaconDefaults(dict, req.Beacon); err != nil {
				return nil, err
			}
			// Flight mode is set by ground command only.
			if e, ok := dict.EntryNamed("flight_mode"); ok {
				if v, isVar := e.(*od.Variable); isVar {
					v.Access = od.AccessRO
				}
			}
		}

		result.ODs[name] = dict
		log.Debugw("built object dictionary", "card", name,
			"node_id", fmt.Sprintf("0x%02X", c.NodeID), "entries", dict.Len())
	}

	// Phase 2: cross-node wiring. The core card consumes every other node's
	// TPDO slots; other cards wire only what their config directs.
	for _, name := range req.Cards.Names() {
		cfg, ok := req.Configs[name]
		if !ok {
			continue
		}
		dict := result.ODs[name]

		for _, g := range cfg.TPDOsGen {
			remote, ok := result.ODs[g.Card]
			if !ok {
				return nil, &ResolutionError{Node: name, What: "tpdos_gen", Ref: g.Card, Msg: "unknown card"}
			}
			if err := CrossWire(dict, g.Card, remote, g.RPDONum, TPDO); err != nil {
				return nil, err
			}
		}

		if name == CoreCard {
			for _, otherName := range req.Cards.Names() {
				other, ok := result.ODs[otherName]
				if !ok || otherName == CoreCard {
					continue
				}
				for slot := 1; slot <= card.MaxOwnPDOs; slot++ {
					if _, ok := other.Entry(TPDOCommStart + uint16(slot) - 1); !ok {
						continue
					}
					if err := CrossWire(dict, otherName, other, slot, RPDO); err != nil {
						return nil, err
					}
				}
			}
		} else {
			for _, g := range cfg.RPDOsGen {
				remote, ok := result.ODs[g.Card]
				if !ok {
					return nil, &ResolutionError{Node: name, What: "rpdos_gen", Ref: g.Card, Msg: "unknown card"}
				}
				if err := CrossWire(dict, g.Card, remote, g.TPDONum, RPDO); err != nil {
					return nil, err
				}
			}
		}
	}

	// Phase 3: materialize once, after cross-wiring interleaved new entries
	// into every OD.
	for _, dict := range result.ODs {
		dict.MaterializeDefaults()
	}

	if coreOD, ok := result.ODs[CoreCard]; ok {
		var err error
		if req.Beacon != nil {
			result.BeaconDefs, err = ResolveFields(coreOD, CoreCard, "beacon", req.Beacon.Fields)
			if err != nil {
				return nil, err
			}
		}
		if cfg := req.Configs[CoreCard]; cfg != nil {
			result.FramDefs, err = ResolveFields(coreOD, CoreCard, "fram", cfg.Fram)
			if err != nil {
				return nil, err
			}
		}
	}

	log.Infow("generated object dictionaries", "cards", len(result.ODs))
	return result, nil
}

// addStdObjects instantiates the named standard objects into the OD. The
// emergency COB-ID gets its per-node default here.
func addStdObjects(dict *od.ObjectDictionary, names []string, catalog map[string]*card.Object, nodeIDs map[string]uint8) error {
	for _, name := range names {
		obj, ok := catalog[name]
		if !ok {
			return &ResolutionError{Node: dict.ProductName, What: "std_objects", Ref: name,
				Msg: "not in the standard object catalog"}
		}
		entry, err := BuildEntry(obj, nodeIDs)
		if err != nil {
			return err
		}
		if name == "cob_id_emergency_message" {
			if v, isVar := entry.(*od.Variable); isVar {
				v.Default = uint64(0x80 + uint64(dict.NodeID))
			}
		}
		if err := dict.Add(entry); err != nil {
			return err
		}
	}
	return nil
}

// stampIdentity sets the version and satellite id objects when the config
// includes them.
func stampIdentity(dict *od.ObjectDictionary, req *Request) {
	if e, ok := dict.EntryNamed("versions"); ok {
		if rec, isRec := e.(*od.Record); isRec {
			if v, ok := rec.SubNamed("configs_version"); ok {
				v.Default = req.ConfigsVersion
			}
		}
	}
	if e, ok := dict.EntryNamed("satellite_id"); ok {
		if v, isVar := e.(*od.Variable); isVar {
			v.Default = uint64(req.SatelliteID)
			if len(req.SatelliteIDs) > 0 {
				if v.ValueDescriptions == nil {
					v.ValueDescriptions = make(map[string]int64, len(req.SatelliteIDs))
				}
				for name, id := range req.SatelliteIDs {
					v.ValueDescriptions[name] = id
				}
			}
		}
	}
}

// applyBeaconDefaults copies the AX.25 header configuration into the core
// card's beacon record.
func applyBeaconDefaults(dict *od.ObjectDictionary, beacon *card.BeaconConfig) error {
	if beacon == nil {
		return nil
	}
	e, ok := dict.EntryNamed("beacon")
	if !ok {
		return &ResolutionError{Node: dict.ProductName, What: "beacon", Ref: "beacon",
			Msg: "core card OD has no beacon record"}
	}
	rec, isRec := e.(*od.Record)
	if !isRec {
		return &ResolutionError{Node: dict.ProductName, What: "beacon", Ref: "beacon",
			Msg: fmt.Sprintf("beacon entry is a %s, want a record", e.Kind())}
	}

	defaults := map[string]any{
		"revision":      beacon.Revision,
		"dest_callsign": beacon.Ax25.DestCallsign,
		"dest_ssid":     beacon.Ax25.DestSSID,
		"src_callsign":  beacon.Ax25.SrcCallsign,
		"src_ssid":      beacon.Ax25.SrcSSID,
		"control":       beacon.Ax25.Control,
		"command":       beacon.Ax25.Command,
		"response":      beacon.Ax25.Response,
		"pid":           beacon.Ax25.PID,
	}
	for name, value := range defaults {
		v, ok := rec.SubNamed(name)
		if !ok {
			return &ResolutionError{Node: dict.ProductName, What: "beacon", Ref: name,
				Msg: "beacon record is missing this subentry"}
		}
		normalized, err := v.DataType.Normalize(value)
		if err != nil {
			return &ResolutionError{Node: dict.ProductName, What: "beacon", Ref: name, Msg: err.Error()}
		}
		v.Default = normalized
	}
	return nil
}

// ResolveFields resolves an ordered field reference list (beacon or FRAM
// layout) against a finished OD.
func ResolveFields(dict *od.ObjectDictionary, node, what string, refs []card.FieldRef) ([]*od.Variable, error) {
	vars := make([]*od.Variable, 0, len(refs))
	for _, ref := range refs {
		v, err := resolveField(dict, ref)
		if err != nil {
			return nil, &ResolutionError{Node: node, What: what, Ref: ref.String(), Msg: err.Error()}
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// BuildFwBase generates the generic firmware base OD that card firmware
// builds against when no card-specific OD applies.
func BuildFwBase(cfg *card.Config, stdObjects []card.Object, configsVersion string, satelliteID uint8) (*od.ObjectDictionary, error) {
	dict := od.New(FwBaseNodeID, "Firmware Base")

	nodeIDs := map[string]uint8{}
	if err := AddObjects(dict, cfg.Objects, nodeIDs); err != nil {
		return nil, err
	}
	stdByName := make(map[string]*card.Object, len(stdObjects))
	for i := range stdObjects {
		stdByName[stdObjects[i].Name] = &stdObjects[i]
	}
	if err := addStdObjects(dict, cfg.StdObjects, stdByName, nodeIDs); err != nil {
		return nil, err
	}
	if err := AddPDOs(dict, cfg.TPDOs, TPDO); err != nil {
		return nil, err
	}
	if err := AddPDOs(dict, cfg.RPDOs, RPDO); err != nil {
		return nil, err
	}

	stampIdentity(dict, &Request{ConfigsVersion: configsVersion, SatelliteID: satelliteID})
	return dict, nil
}
