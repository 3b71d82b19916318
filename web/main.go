package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/df07/go-scatter-placer/pkg/host"
	"github.com/df07/go-scatter-placer/pkg/prefs"
	"github.com/df07/go-scatter-placer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	configPath := flag.String("config", "", "YAML config file")
	sceneID := flag.String("scene", "", "Scene: built-in id, file:<name> or a .yaml path")
	itemDir := flag.String("items", "", "Item descriptor directory (built-in items if empty)")
	prefsFile := flag.String("prefs", "", "Brush settings file, \"none\" to keep them in memory")
	seed := flag.Int64("seed", 0, "Sampler seed, random if 0")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	if err := run(*port, *configPath, prefs.Flags{
		Scene:     *sceneID,
		ItemDir:   *itemDir,
		PrefsFile: *prefsFile,
		Seed:      *seed,
		Debug:     *debug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(port int, configPath string, flags prefs.Flags) error {
	var cfg prefs.Config
	if configPath != "" {
		loaded, err := prefs.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Resolve(flags)

	base, err := host.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}

	messages := make(chan server.ConsoleMessage, 100)
	console := server.NewConsole(200)
	go console.Run(messages)

	ws, err := host.Open(cfg, server.NewWebLogger(base, messages))
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws.Logger.Infof("Scatter placer web server, visit http://localhost:%d", port)
	return server.NewServer(port, ws, console).Start(ctx)
}
