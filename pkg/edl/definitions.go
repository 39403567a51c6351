package edl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definitions holds the full command set, addressable by uid and by name.
type Definitions struct {
	commands []*Command
	byUID    map[uint8]*Command
	byName   map[string]*Command
}

type definitionsDoc struct {
	Commands []*Command `yaml:"commands"`
}

// ParseDefinitions parses and validates a command set document. Command uids
// and names must be unique across the set; every field list must satisfy the
// sizing rules documented on Field.
func ParseDefinitions(data []byte) (*Definitions, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc definitionsDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse edl command definitions: %w", err)
	}

	d := &Definitions{
		byUID:  make(map[uint8]*Command, len(doc.Commands)),
		byName: make(map[string]*Command, len(doc.Commands)),
	}
	for _, cmd := range doc.Commands {
		cmd.Description = flatten(cmd.Description)
		for i := range cmd.Request {
			cmd.Request[i].Description = flatten(cmd.Request[i].Description)
		}
		for i := range cmd.Response {
			cmd.Response[i].Description = flatten(cmd.Response[i].Description)
		}
		if err := cmd.validate(); err != nil {
			return nil, err
		}
		if _, dup := d.byUID[cmd.UID]; dup {
			return nil, fmt.Errorf("edl command uid 0x%02X is not unique", cmd.UID)
		}
		if _, dup := d.byName[cmd.Name]; dup {
			return nil, fmt.Errorf("edl command name %s is not unique", cmd.Name)
		}
		d.commands = append(d.commands, cmd)
		d.byUID[cmd.UID] = cmd
		d.byName[cmd.Name] = cmd
	}
	return d, nil
}

// LoadDefinitions reads and parses a command set document from disk.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edl command definitions: %w", err)
	}
	return ParseDefinitions(data)
}

// ByUID looks a command up by its wire uid.
func (d *Definitions) ByUID(uid uint8) (*Command, bool) {
	cmd, ok := d.byUID[uid]
	return cmd, ok
}

// ByName looks a command up by its name.
func (d *Definitions) ByName(name string) (*Command, bool) {
	cmd, ok := d.byName[name]
	return cmd, ok
}

// Commands returns the command set in document order.
func (d *Definitions) Commands() []*Command {
	return d.commands
}

// Names returns all command names in document order.
func (d *Definitions) Names() []string {
	names := make([]string, len(d.commands))
	for i, cmd := range d.commands {
		names[i] = cmd.Name
	}
	return names
}

func (d *Definitions) Len() int {
	return len(d.commands)
}

// ApplyEnums attaches per-mission enum tables to the fields that carry them,
// keyed by field name. Fields not named in the table keep their own enums.
func (d *Definitions) ApplyEnums(enums map[string]map[string]int64) {
	for _, cmd := range d.commands {
		applyEnums(cmd.Request, enums)
		applyEnums(cmd.Response, enums)
	}
}

func applyEnums(fields []Field, enums map[string]map[string]int64) {
	for i := range fields {
		if e, ok := enums[fields[i].Name]; ok {
			fields[i].Enums = e
		}
	}
}

// Multi-line YAML descriptions fold into one line.
func flatten(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
