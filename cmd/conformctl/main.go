// conformctl runs conformance vectors against the demo boundary. Each vector
// is executed through the requested tiers (the native surface directly, the
// binding adapter, or both); exit status is 0 only when every vector passes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/inchori/raftify/internal/adapter"
	"github.com/inchori/raftify/internal/config"
	"github.com/inchori/raftify/internal/core"
	"github.com/inchori/raftify/internal/harness"
	logs "github.com/inchori/raftify/internal/logging"
	"github.com/inchori/raftify/internal/schema"
)

type options struct {
	configPath string
	schemaPath string
	vectorsDir string
	tier       string
}

func main() {
	logs.ConfigureRuntime()
	opts := parseFlags()

	cfg, err := resolveConfig(opts)
	if err != nil {
		fatalf("%v", err)
	}

	sch, err := schema.LoadFile(cfg.SchemaPath)
	if err != nil {
		fatalf("%v", err)
	}
	vectors, err := harness.LoadDir(cfg.VectorsDir)
	if err != nil {
		fatalf("%v", err)
	}
	if len(vectors) == 0 {
		fatalf("no vectors found under %s", cfg.VectorsDir)
	}

	// One core per tier; stateful vectors replay through both paths.
	unitDemo, err := core.NewDemo()
	if err != nil {
		fatalf("%v", err)
	}
	bindingDemo, err := core.NewDemo()
	if err != nil {
		fatalf("%v", err)
	}
	runner := harness.NewRunner(sch, unitDemo.Surface, adapter.New(sch, bindingDemo.Surface))

	report := runner.Run(context.Background(), vectors, cfg.Tier)
	report.Render(os.Stdout)
	if !report.Passed() {
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "optional TOML run config")
	flag.StringVar(&opts.schemaPath, "schema", "", "schema file (overrides config)")
	flag.StringVar(&opts.vectorsDir, "vectors", "", "vector directory (overrides config)")
	flag.StringVar(&opts.tier, "tier", "", "tier: unit | binding | all (overrides config)")
	flag.Parse()
	return opts
}

// resolveConfig merges the optional config file with flag overrides. Flags
// win over file values.
func resolveConfig(opts options) (config.RunConfig, error) {
	cfg := config.DefaultRunConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadRunConfig(opts.configPath)
		if err != nil {
			return config.RunConfig{}, err
		}
		cfg = loaded
	}
	if opts.schemaPath != "" {
		cfg.SchemaPath = opts.schemaPath
	}
	if opts.vectorsDir != "" {
		cfg.VectorsDir = opts.vectorsDir
	}
	if opts.tier != "" {
		tier, err := harness.ParseTier(strings.TrimSpace(opts.tier))
		if err != nil {
			return config.RunConfig{}, err
		}
		cfg.Tier = tier
	}
	if err := config.ValidateRunConfig(cfg); err != nil {
		return config.RunConfig{}, fmt.Errorf("%w (pass -schema/-vectors or -config)", err)
	}
	return cfg, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "conformctl: "+format+"\n", args...)
	os.Exit(1)
}
