package commands

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/oresat/oresat-configs/pkg/mission"
	"github.com/oresat/oresat-configs/pkg/od"
)

// RunShell starts an interactive Object Dictionary browser.
func RunShell(args []string, stdout, stderr io.Writer) int {
	s := loadSettings()
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	fs.SetOutput(stderr)
	s.bindCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	cfg, err := s.loadMission()
	if err != nil {
		return commandError(stderr, err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Mission.Filename() + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
		Stderr:          stderr,
	})
	if err != nil {
		return commandError(stderr, fmt.Errorf("failed to create readline: %w", err))
	}

	sh := &shell{settings: s, cfg: cfg, rl: rl}
	return sh.run()
}

type shell struct {
	settings *settings
	cfg      *mission.Config
	rl       *readline.Instance
}

func (sh *shell) run() int {
	defer sh.rl.Close()

	sh.printHelp()

	for {
		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return exitSuccess
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			sh.printHelp()

		case "missions":
			sh.cmdMissions()

		case "mission", "m":
			sh.cmdMission(args)

		case "cards", "c":
			sh.cmdCards()

		case "od":
			sh.cmdOD(args)

		case "entry", "e":
			sh.cmdEntry(args)

		case "quit", "exit", "q":
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return exitSuccess

		default:
			fmt.Fprintf(sh.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.rl.Stdout(), `
OreSat OD Browser Commands:
  missions                   - List known missions
  mission <name>             - Switch mission (0, 0.5, oresat0, ...)
  cards                      - List the mission's cards
  od <card>                  - Print a card's full Object Dictionary
  entry <card> <index|name>  - Show one OD entry, e.g. 'entry battery_1 0x4000'
  help                       - Show this help
  quit                       - Exit`)
}

func (sh *shell) cmdMissions() {
	for _, m := range mission.All() {
		marker := " "
		if m == sh.cfg.Mission {
			marker = "*"
		}
		fmt.Fprintf(sh.rl.Stdout(), "%s %s (-mission %s)\n", marker, m, m.Arg())
	}
}

func (sh *shell) cmdMission(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: mission <name>")
		return
	}
	sh.settings.Mission = args[0]
	cfg, err := sh.settings.loadMission()
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	sh.cfg = cfg
	sh.rl.SetPrompt(cfg.Mission.Filename() + "> ")
	fmt.Fprintf(sh.rl.Stdout(), "Switched to %s\n", cfg.Mission)
}

func (sh *shell) cmdCards() {
	for _, name := range sh.cfg.Cards.Names() {
		c, _ := sh.cfg.Cards.Get(name)
		if c.NodeID == 0 {
			fmt.Fprintf(sh.rl.Stdout(), "  %-12s %s\n", name, c.NiceName)
			continue
		}
		fmt.Fprintf(sh.rl.Stdout(), "  %-12s %s (node 0x%02X)\n", name, c.NiceName, c.NodeID)
	}
}

func (sh *shell) cmdOD(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: od <card>")
		return
	}
	dict, ok := sh.cfg.ODs[args[0]]
	if !ok {
		fmt.Fprintf(sh.rl.Stdout(), "No card %q in mission %s\n", args[0], sh.cfg.Mission)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "%s\n", dict)
	for _, index := range dict.Indexes() {
		entry, _ := dict.Entry(index)
		sh.printEntry(index, entry)
	}
}

func (sh *shell) cmdEntry(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: entry <card> <index|name>")
		fmt.Fprintln(sh.rl.Stdout(), "  Example: entry battery_1 0x4000")
		return
	}
	dict, ok := sh.cfg.ODs[args[0]]
	if !ok {
		fmt.Fprintf(sh.rl.Stdout(), "No card %q in mission %s\n", args[0], sh.cfg.Mission)
		return
	}

	var entry od.Entry
	if index, err := strconv.ParseUint(args[1], 0, 16); err == nil {
		entry, ok = dict.Entry(uint16(index))
	} else {
		entry, ok = dict.EntryNamed(args[1])
	}
	if !ok {
		fmt.Fprintf(sh.rl.Stdout(), "Card %s has no entry %q\n", args[0], args[1])
		return
	}
	sh.printEntry(entry.EntryIndex(), entry)
}

func (sh *shell) printEntry(index uint16, entry od.Entry) {
	w := sh.rl.Stdout()
	switch e := entry.(type) {
	case *od.Variable:
		printVariable(w, e, false)
	case *od.Record:
		fmt.Fprintf(w, "0x%04X  %s (record)\n", index, e.Name)
		for _, sub := range e.Subindexes() {
			v, _ := e.Sub(sub)
			printVariable(w, v, true)
		}
	case *od.Array:
		fmt.Fprintf(w, "0x%04X  %s (array of %s)\n", index, e.Name, e.ElemType)
		for _, sub := range e.Subindexes() {
			v, _ := e.Sub(sub)
			printVariable(w, v, true)
		}
	}
}
