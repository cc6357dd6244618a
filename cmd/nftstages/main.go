// Command nftstages administers staged NFT collections, mints from them and
// serves the HTTP API.
//
// Usage:
//
//	nftstages [-config path] [-datadir dir] <command> [flags]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/nftstages-go/config"
	"github.com/bitfsorg/nftstages-go/logging"
)

// command is one subcommand. run receives the arguments after its name.
type command struct {
	summary string
	run     func(a *app, args []string) error
}

var commands = map[string]command{
	"keygen":          {"create an encrypted signer key file", runKeygen},
	"allowlist-root":  {"compute the allowlist root of an identity file", runAllowlistRoot},
	"allowlist-proof": {"compute one identity's allowlist proof", runAllowlistProof},
	"init":            {"initialize a collection", runInit},
	"add-stage":       {"append a stage", runAddStage},
	"update-stage":    {"replace a stage that has not started", runUpdateStage},
	"pause":           {"pause minting", func(a *app, args []string) error { return runSetPaused(a, args, true) }},
	"resume":          {"resume minting", func(a *app, args []string) error { return runSetPaused(a, args, false) }},
	"attest-payment":  {"attest a pre-settled payment for a buyer", runAttestPayment},
	"mint":            {"mint from a stage", runMint},
	"level-up":        {"level up an owned token", runLevelUp},
	"show":            {"show a collection", runShow},
	"record":          {"show an identity's mint record for a stage", runRecord},
	"active":          {"show the active stage", runActive},
	"token":           {"show a token", runToken},
	"serve":           {"serve the HTTP API", runServe},
}

// app carries what every command needs.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	stdout io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "nftstages: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("nftstages", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", getEnv("NFTSTAGES_CONFIG", config.ConfigPath(config.DefaultDataDir())), "config file")
	dataDir := fs.String("datadir", "", "data directory (overrides config)")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command")
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	a := &app{
		cfg: cfg,
		log: logging.New(logging.Options{
			App:    "nftstages",
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Out:    stderr,
		}.FromEnv()),
		stdout: stdout,
	}
	return cmd.run(a, fs.Args()[1:])
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "usage: nftstages [flags] <command> [command flags]\n\nflags:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\ncommands:\n")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-16s %s\n", n, commands[n].summary)
	}
}

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
