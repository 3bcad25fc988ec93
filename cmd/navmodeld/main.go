// Command navmodeld runs the navigation model on rendered map frames and
// publishes navModel events.
//
// Usage:
//
//	navmodeld [-config /data/navmodeld/config.json]
//
// The config path may also be set through NAVMODELD_CONFIG. When the config
// names no backend, a non-zero USE_SNPE_MODEL selects snpe and anything else
// onnx, which needs a build with -tags onnx.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/navmodel/internal/config"
	"github.com/banshee-data/navmodel/internal/navmodeld"
	"github.com/banshee-data/navmodel/internal/version"

	_ "github.com/banshee-data/navmodel/internal/navmodel/runners/fixture"
	_ "github.com/banshee-data/navmodel/internal/navmodel/runners/onnx"
)

var (
	configPath  = flag.String("config", "", "Path to the JSON config file (default: $NAVMODELD_CONFIG or "+config.DefaultConfigPath+")")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		log.Printf("navmodeld %s", version.String())
		return
	}

	path := *configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("navmodeld %s, config %s", version.String(), path)

	// The frame loop runs on this goroutine, so SetupProcess pins it.
	navmodeld.SetupProcess(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := navmodeld.Main(ctx, cfg, navmodeld.Deps{}); err != nil {
		log.Fatalf("navmodeld: %v", err)
	}
	log.Printf("navmodeld stopped")
}
