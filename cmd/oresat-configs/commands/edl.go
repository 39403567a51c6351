package commands

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/oresat/oresat-configs/pkg/edl"
	"github.com/oresat/oresat-configs/pkg/mission"
)

// RunEDL lists, describes, encodes and decodes EDL commands.
func RunEDL(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("edl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	describe := fs.String("command", "", "Describe one command's fields")
	encode := fs.String("encode", "", "Encode a request for the named command")
	decode := fs.String("decode", "", "Decode a response for the named command")
	data := fs.String("data", "", "Comma-separated field values for -encode")
	payload := fs.String("hex", "", "Hex payload for -decode")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	defs, err := mission.EDL()
	if err != nil {
		return commandError(stderr, err)
	}

	switch {
	case *encode != "":
		return runEDLEncode(defs, *encode, *data, stdout, stderr)
	case *decode != "":
		return runEDLDecode(defs, *decode, *payload, stdout, stderr)
	case *describe != "":
		return runEDLDescribe(defs, *describe, stdout, stderr)
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tNAME\tREQUEST\tRESPONSE\tDESCRIPTION")
	for _, cmd := range defs.Commands() {
		fmt.Fprintf(w, "0x%02X\t%s\t%d\t%d\t%s\n",
			cmd.UID, cmd.Name, len(cmd.Request), len(cmd.Response), cmd.Description)
	}
	w.Flush()
	return exitSuccess
}

func runEDLDescribe(defs *edl.Definitions, name string, stdout, stderr io.Writer) int {
	cmd, ok := defs.ByName(name)
	if !ok {
		return commandError(stderr, fmt.Errorf("unknown edl command %q", name))
	}
	fmt.Fprintf(stdout, "%s (uid 0x%02X)\n", cmd.Name, cmd.UID)
	if cmd.Description != "" {
		fmt.Fprintf(stdout, "  %s\n", cmd.Description)
	}
	printFields(stdout, "request", cmd.Request)
	printFields(stdout, "response", cmd.Response)
	return exitSuccess
}

func printFields(w io.Writer, part string, fields []edl.Field) {
	fmt.Fprintf(w, "%s:\n", part)
	if len(fields) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for _, f := range fields {
		sizing := ""
		switch {
		case f.SizePrefix != "":
			sizing = fmt.Sprintf(" (%s size prefix)", f.SizePrefix)
		case f.MaxSize != 0:
			sizing = fmt.Sprintf(" (max %d, null terminated)", f.MaxSize)
		case f.FixedSize != 0:
			sizing = fmt.Sprintf(" (fixed %d)", f.FixedSize)
		}
		fmt.Fprintf(w, "  %-20s %s%s", f.Name, f.DataType, sizing)
		if f.Unit != "" {
			fmt.Fprintf(w, " [%s]", f.Unit)
		}
		fmt.Fprintln(w)
	}
}

func runEDLEncode(defs *edl.Definitions, name, data string, stdout, stderr io.Writer) int {
	cmd, ok := defs.ByName(name)
	if !ok {
		return commandError(stderr, fmt.Errorf("unknown edl command %q", name))
	}

	var parts []string
	if data != "" {
		parts = strings.Split(data, ",")
	}
	if len(parts) != len(cmd.Request) {
		return commandError(stderr, fmt.Errorf("command %s request takes %d values, got %d",
			cmd.Name, len(cmd.Request), len(parts)))
	}
	values := make([]any, len(parts))
	for i, part := range parts {
		v, err := parseFieldValue(&cmd.Request[i], strings.TrimSpace(part))
		if err != nil {
			return commandError(stderr, err)
		}
		values[i] = v
	}

	raw, err := cmd.EncodeRequest(values)
	if err != nil {
		return commandError(stderr, err)
	}
	fmt.Fprintln(stdout, hex.EncodeToString(raw))
	return exitSuccess
}

func runEDLDecode(defs *edl.Definitions, name, payload string, stdout, stderr io.Writer) int {
	cmd, ok := defs.ByName(name)
	if !ok {
		return commandError(stderr, fmt.Errorf("unknown edl command %q", name))
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(payload, "0x"))
	if err != nil {
		return commandError(stderr, fmt.Errorf("invalid hex payload: %w", err))
	}

	values, err := cmd.DecodeResponse(raw)
	if err != nil {
		return commandError(stderr, err)
	}
	for i, f := range cmd.Response {
		if b, ok := values[i].([]byte); ok {
			fmt.Fprintf(stdout, "%s = %s\n", f.Name, hex.EncodeToString(b))
			continue
		}
		fmt.Fprintf(stdout, "%s = %v\n", f.Name, values[i])
	}
	return exitSuccess
}

// parseFieldValue converts one command-line token into the Go value the
// codec expects for the field. Enumerated fields accept the enum label.
func parseFieldValue(f *edl.Field, s string) (any, error) {
	if val, ok := f.EnumValue(s); ok {
		s = strconv.FormatInt(val, 10)
	}
	switch f.DataType {
	case "bool":
		return strconv.ParseBool(s)
	case "int8", "int16", "int32", "int64":
		return strconv.ParseInt(s, 0, 64)
	case "uint8", "uint16", "uint32", "uint64":
		return strconv.ParseUint(s, 0, 64)
	case "float32", "float64":
		return strconv.ParseFloat(s, 64)
	case "str":
		return s, nil
	case "bytes":
		return hex.DecodeString(strings.TrimPrefix(s, "0x"))
	}
	return nil, fmt.Errorf("field %s: unsupported data type %s", f.Name, f.DataType)
}
