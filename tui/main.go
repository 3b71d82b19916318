package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/df07/go-scatter-placer/pkg/host"
	"github.com/df07/go-scatter-placer/pkg/prefs"
	"github.com/df07/go-scatter-placer/tui/app"
)

func main() {
	var flags prefs.Flags
	configPath := flag.String("config", "", "YAML config file; flags override its values")
	flag.StringVar(&flags.Scene, "scene", "", "Built-in scene id, file:<name> or path to a YAML scene (default flat)")
	flag.StringVar(&flags.ItemDir, "items", "", "Directory of item descriptors (default: built-in items)")
	flag.StringVar(&flags.PrefsFile, "prefs", "", "Settings file, or 'none' to keep settings in memory")
	flag.Float64Var(&flags.Extent, "extent", 0, "World width shown across the terminal (default 20)")
	flag.Int64Var(&flags.Seed, "seed", 0, "Random seed for repeatable batches")
	flag.BoolVar(&flags.Debug, "debug", false, "Development logging")
	logPath := flag.String("log", "scatter-placer.log", "Log file")
	flag.Parse()

	if err := run(*configPath, flags, *logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, flags prefs.Flags, logPath string) error {
	var cfg prefs.Config
	if configPath != "" {
		loaded, err := prefs.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Resolve(flags)

	logger, err := host.NewFileLogger(logPath, cfg.Debug)
	if err != nil {
		return err
	}

	ws, err := host.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse(tcell.MouseMotionEvents)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = app.New(screen, ws).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
