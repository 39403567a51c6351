// oresat-configs is a CLI tool for inspecting the generated OreSat CANopen
// Object Dictionaries, PDO assignments and EDL command set.
package main

import (
	"fmt"
	"os"

	"github.com/oresat/oresat-configs/cmd/oresat-configs/commands"
	"github.com/oresat/oresat-configs/pkg/mission"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "cards":
		exitCode = commands.RunCards(args, os.Stdout, os.Stderr)
	case "print-od":
		exitCode = commands.RunPrintOD(args, os.Stdout, os.Stderr)
	case "pdo":
		exitCode = commands.RunPDO(args, os.Stdout, os.Stderr)
	case "edl":
		exitCode = commands.RunEDL(args, os.Stdout, os.Stderr)
	case "cache":
		exitCode = commands.RunCache(args, os.Stdout, os.Stderr)
	case "shell":
		exitCode = commands.RunShell(args, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	case "version", "-v", "--version":
		fmt.Println("oresat-configs version " + mission.ConfigsVersion)
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`oresat-configs - OreSat CANopen configuration tool

Usage:
  oresat-configs <command> [options]

Commands:
  cards      List the mission's card table
  print-od   Print one card's Object Dictionary
  pdo        Print PDO COB-ID assignments
  edl        Inspect, encode and decode EDL commands
  cache      Manage the on-disk OD cache
  shell      Interactive Object Dictionary browser

Options:
  -h, --help     Show this help message
  -v, --version  Show version information

Most commands accept -mission (0, 0.5, oresat0, ...); the default mission
can also be set with the ORESAT_MISSION environment variable.

Examples:
  oresat-configs cards -mission 0.5
  oresat-configs print-od battery_1
  oresat-configs pdo gps
  oresat-configs edl -encode ping -data 42

For command-specific help, run:
  oresat-configs <command> --help`)
}
