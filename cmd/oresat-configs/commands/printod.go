package commands

import (
	"flag"
	"fmt"
	"io"

	"github.com/oresat/oresat-configs/pkg/od"
	"github.com/oresat/oresat-configs/pkg/odcache"
)

// RunPrintOD prints one card's Object Dictionary.
func RunPrintOD(args []string, stdout, stderr io.Writer) int {
	s := loadSettings()
	fs := flag.NewFlagSet("print-od", flag.ContinueOnError)
	fs.SetOutput(stderr)
	s.bindCommonFlags(fs)
	format := fs.String("format", "text", "Output format (text, json)")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: no card specified")
		return exitCommandError
	}
	card := fs.Arg(0)

	cfg, err := s.loadMission()
	if err != nil {
		return commandError(stderr, err)
	}
	dict, ok := cfg.ODs[card]
	if !ok {
		return commandError(stderr, fmt.Errorf("mission %s has no card %q", cfg.Mission, card))
	}

	if *format == "json" {
		data, err := odcache.MarshalJSON(odcache.FromOD(dict))
		if err != nil {
			return commandError(stderr, err)
		}
		fmt.Fprintln(stdout, string(data))
		return exitSuccess
	}

	fmt.Fprintf(stdout, "%s\n", dict)
	for _, index := range dict.Indexes() {
		entry, _ := dict.Entry(index)
		switch e := entry.(type) {
		case *od.Variable:
			printVariable(stdout, e, false)
		case *od.Record:
			fmt.Fprintf(stdout, "0x%04X  %s (record)\n", index, e.Name)
			for _, sub := range e.Subindexes() {
				v, _ := e.Sub(sub)
				printVariable(stdout, v, true)
			}
		case *od.Array:
			fmt.Fprintf(stdout, "0x%04X  %s (array of %s)\n", index, e.Name, e.ElemType)
			for _, sub := range e.Subindexes() {
				v, _ := e.Sub(sub)
				printVariable(stdout, v, true)
			}
		}
	}
	return exitSuccess
}

func printVariable(w io.Writer, v *od.Variable, sub bool) {
	if sub {
		fmt.Fprintf(w, "        .%-3d %-32s %-10s %-5s %v", v.Subindex, v.Name, v.DataType, v.Access, formatValue(v))
	} else {
		fmt.Fprintf(w, "0x%04X  %-36s %-10s %-5s %v", v.Index, v.Name, v.DataType, v.Access, formatValue(v))
	}
	if v.Unit != "" {
		fmt.Fprintf(w, " %s", v.Unit)
	}
	fmt.Fprintln(w)
}

func formatValue(v *od.Variable) any {
	if b, ok := v.Value.([]byte); ok {
		return fmt.Sprintf("%x", b)
	}
	if v.DataType.IsUnsigned() {
		if u, ok := v.Value.(uint64); ok && u > 9 {
			return fmt.Sprintf("0x%X", u)
		}
	}
	return v.Value
}
