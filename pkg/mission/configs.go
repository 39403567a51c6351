package mission

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/oresat/oresat-configs/pkg/card"
	"github.com/oresat/oresat-configs/pkg/edl"
	"github.com/oresat/oresat-configs/pkg/gen"
)

//go:embed configs
var configsFS embed.FS

// commonConfigFile maps a card's processor type to its common config
// document. Cards with processor "none" have no OD at all.
func commonConfigFile(processor string) (string, bool) {
	switch processor {
	case "octavo":
		return "configs/base/sw_common.yaml", true
	case "stm32":
		return "configs/base/fw_common.yaml", true
	}
	return "", false
}

// Cards parses the mission's embedded card table.
func (m Mission) Cards() (*card.Cards, error) {
	data, err := configsFS.ReadFile("configs/" + m.Filename() + "/cards.csv")
	if err != nil {
		return nil, err
	}
	cards, err := card.ParseCards(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}
	return cards, nil
}

// Beacon parses the mission's embedded beacon definition.
func (m Mission) Beacon() (*card.BeaconConfig, error) {
	data, err := configsFS.ReadFile("configs/" + m.Filename() + "/beacon.yaml")
	if err != nil {
		return nil, err
	}
	beacon, err := card.ParseBeacon(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}
	return beacon, nil
}

// StdObjects parses the embedded standard-object catalog shared by every
// mission.
func StdObjects() ([]card.Object, error) {
	data, err := configsFS.ReadFile("configs/standard_objects.yaml")
	if err != nil {
		return nil, err
	}
	return card.ParseStdObjects(data)
}

// EDL parses the embedded EDL command schema shared by every mission.
func EDL() (*edl.Definitions, error) {
	data, err := configsFS.ReadFile("configs/edl.yaml")
	if err != nil {
		return nil, err
	}
	return edl.ParseDefinitions(data)
}

// Configs assembles the merged per-card configuration set for the mission:
// each card's base document combined with its processor family's common
// document, then patched by the mission overlay when one exists. Cards with
// no processor are skipped; they have no OD.
func (m Mission) Configs(cards *card.Cards) (map[string]*card.Config, error) {
	bases := make(map[string]*card.Config)
	commons := make(map[string]*card.Config)

	configs := make(map[string]*card.Config, cards.Len())
	for _, name := range cards.Names() {
		c, _ := cards.Get(name)
		commonFile, ok := commonConfigFile(c.Processor)
		if !ok {
			continue
		}

		base, ok := bases[c.Base]
		if !ok {
			var err error
			base, err = parseEmbeddedConfig("configs/base/" + c.Base + ".yaml")
			if err != nil {
				return nil, fmt.Errorf("card %s: %w", name, err)
			}
			bases[c.Base] = base
		}
		common, ok := commons[commonFile]
		if !ok {
			var err error
			common, err = parseEmbeddedConfig(commonFile)
			if err != nil {
				return nil, fmt.Errorf("card %s: %w", name, err)
			}
			commons[commonFile] = common
		}

		merged := card.Merge(base, common, card.MergeOptions{CoreNode: name == gen.CoreCard})

		overlay, err := m.overlay(c.Base)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", name, err)
		}
		if overlay != nil {
			merged, err = card.Overlay(merged, overlay)
			if err != nil {
				return nil, fmt.Errorf("card %s: %w", name, err)
			}
		}
		configs[name] = merged
	}
	return configs, nil
}

// FwCommon parses the firmware common config, the basis of the firmware base
// OD that card firmware builds against.
func FwCommon() (*card.Config, error) {
	return parseEmbeddedConfig("configs/base/fw_common.yaml")
}

// overlay parses the mission's overlay for one base config, or nil when the
// mission carries none.
func (m Mission) overlay(base string) (*card.Config, error) {
	path := "configs/" + m.Filename() + "/" + base + "_overlay.yaml"
	data, err := configsFS.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg, err := card.ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseEmbeddedConfig(path string) (*card.Config, error) {
	data, err := configsFS.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := card.ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
