package commands

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
)

// RunCards lists the mission's card table.
func RunCards(args []string, stdout, stderr io.Writer) int {
	s := loadSettings()
	fs := flag.NewFlagSet("cards", flag.ContinueOnError)
	fs.SetOutput(stderr)
	s.bindCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	cfg, err := s.loadMission()
	if err != nil {
		return commandError(stderr, err)
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNICE NAME\tNODE ID\tPROCESSOR\tOPD ADDR\tALWAYS ON\tBASE")
	for _, name := range cfg.Cards.Names() {
		c, _ := cfg.Cards.Get(name)
		nodeID := "-"
		if c.NodeID != 0 {
			nodeID = fmt.Sprintf("0x%02X", c.NodeID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t0x%02X\t%t\t%s\n",
			name, c.NiceName, nodeID, c.Processor, c.OpdAddress, c.OpdAlwaysOn, c.Base)
	}
	w.Flush()
	return exitSuccess
}
