package commands

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/oresat/oresat-configs/pkg/gen"
	"github.com/oresat/oresat-configs/pkg/od"
)

// RunPDO prints a card's PDO COB-ID assignments, or every card's when no
// card is named.
func RunPDO(args []string, stdout, stderr io.Writer) int {
	s := loadSettings()
	fs := flag.NewFlagSet("pdo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	s.bindCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	cfg, err := s.loadMission()
	if err != nil {
		return commandError(stderr, err)
	}

	names := cfg.Cards.Names()
	if fs.NArg() > 0 {
		names = []string{fs.Arg(0)}
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CARD\tPDO\tCOB-ID\tTRANSMISSION\tMAPPED")
	for _, name := range names {
		dict, ok := cfg.ODs[name]
		if !ok {
			if fs.NArg() > 0 {
				return commandError(stderr, fmt.Errorf("mission %s has no card %q", cfg.Mission, name))
			}
			continue
		}
		printPDOs(w, name, dict, gen.TPDO)
		printPDOs(w, name, dict, gen.RPDO)
	}
	w.Flush()
	return exitSuccess
}

func printPDOs(w io.Writer, card string, dict *od.ObjectDictionary, dir gen.Direction) {
	commStart, mapStart := dir.Range()
	for _, index := range dict.Indexes() {
		if index < commStart || index >= mapStart {
			continue
		}
		comm, _ := dict.Entry(index)
		rec, ok := comm.(*od.Record)
		if !ok {
			continue
		}
		num := int(index-commStart) + 1

		cob, _ := rec.Sub(1)
		tt, _ := rec.Sub(2)
		transmission := "event"
		if t, ok := tt.Default.(uint64); ok && t != 254 {
			transmission = fmt.Sprintf("sync %d", t)
		}
		mapped := 0
		if m, ok := dict.Entry(mapStart + index - commStart); ok {
			if mrec, isRec := m.(*od.Record); isRec {
				mapped = int(mrec.Highest())
			}
		}
		fmt.Fprintf(w, "%s\t%s %d\t0x%03X\t%s\t%d\n",
			card, dir, num, cob.Default, transmission, mapped)
	}
}
