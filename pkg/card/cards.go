package card

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Card is one row of the mission's card table: the bus-level identity of a
// subsystem card, separate from its OD configuration.
type Card struct {
	// NiceName is the human-readable product name ("Battery 1").
	NiceName string

	// NodeID is the CANopen node id; 0 flags a card that is not on the
	// CAN bus (e.g. a solar cell simulator on the OPD only).
	NodeID uint8

	// Processor selects the common config: "octavo" (Linux cards),
	// "stm32" (firmware cards) or "none" (no OD at all).
	Processor string

	// OpdAddress is the OreSat Power Domain I2C address.
	OpdAddress uint8

	// OpdAlwaysOn keeps the card powered at all times (battery cards).
	OpdAlwaysOn bool

	// Child is the optional child node name (e.g. the CFC sensor board).
	Child string

	// Base is the card's base configuration key ("battery", "gps", ...),
	// used to pick the base YAML document and any mission overlay.
	Base string
}

// cardColumns is the exact cards.csv header set; "name" keys the table.
var cardColumns = []string{
	"name", "nice_name", "node_id", "processor", "opd_address",
	"opd_always_on", "child", "base",
}

// Cards is the ordered card table of one mission. Order follows the CSV so
// generation output is deterministic.
type Cards struct {
	names  []string
	byName map[string]Card
}

// Names returns the card names in table order.
func (c *Cards) Names() []string {
	return append([]string(nil), c.names...)
}

// Get returns the card with the given name.
func (c *Cards) Get(name string) (Card, bool) {
	card, ok := c.byName[name]
	return card, ok
}

// Len returns the number of cards.
func (c *Cards) Len() int { return len(c.names) }

// NodeIDs returns the name -> node id table used for node_ids array
// generation. Cards that are not on the bus keep their 0 entry so the
// generator can skip them.
func (c *Cards) NodeIDs() map[string]uint8 {
	ids := make(map[string]uint8, len(c.names))
	for name, card := range c.byName {
		ids[name] = card.NodeID
	}
	return ids
}

// ParseCards parses a cards.csv table. The column set must match the Card
// type exactly; excess or missing columns are an error so the table and the
// type cannot drift apart silently.
func ParseCards(r io.Reader) (*Cards, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read cards.csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, want := range cardColumns {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("cards.csv is missing column %q", want)
		}
	}
	if len(cols) != len(cardColumns) {
		for name := range cols {
			if !contains(cardColumns, name) {
				return nil, fmt.Errorf("cards.csv has excess column %q; update the Card type?", name)
			}
		}
	}

	cards := &Cards{byName: make(map[string]Card)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cards.csv: %w", err)
		}

		name := row[cols["name"]]
		if _, dup := cards.byName[name]; dup {
			return nil, fmt.Errorf("duplicate card %q", name)
		}

		nodeID, err := parseHexByte(row[cols["node_id"]])
		if err != nil {
			return nil, fmt.Errorf("card %q node_id: %w", name, err)
		}
		opdAddr, err := parseHexByte(row[cols["opd_address"]])
		if err != nil {
			return nil, fmt.Errorf("card %q opd_address: %w", name, err)
		}

		cards.names = append(cards.names, name)
		cards.byName[name] = Card{
			NiceName:    row[cols["nice_name"]],
			NodeID:      nodeID,
			Processor:   row[cols["processor"]],
			OpdAddress:  opdAddr,
			OpdAlwaysOn: strings.EqualFold(row[cols["opd_always_on"]], "true"),
			Child:       row[cols["child"]],
			Base:        row[cols["base"]],
		}
	}
	return cards, nil
}

func parseHexByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid hex byte %q", s)
	}
	return uint8(v), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
