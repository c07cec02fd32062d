package main

import (
	"flag"
	"io"

	"github.com/dd0wney/medgraph/pkg/config"
)

// commonFlags are accepted by every command and override the configuration.
type commonFlags struct {
	configPath string
	driver     string
	dataDir    string
	source     string
	manifest   string
	logLevel   string
}

func newFlagSet(name string, c *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.driver, "driver", "", "Store driver: embedded, neo4j or postgres")
	fs.StringVar(&c.dataDir, "data-dir", "", "Snapshot directory of the embedded store")
	fs.StringVar(&c.source, "source", "", "Dataset directory or s3://bucket/prefix")
	fs.StringVar(&c.manifest, "manifest", "", "Dataset manifest YAML")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level")
	return fs
}

// loadConfig reads the configuration and applies flag overrides.
func (c *commonFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	override(&cfg.Store.Driver, c.driver)
	override(&cfg.Store.DataDir, c.dataDir)
	override(&cfg.Source.URI, c.source)
	override(&cfg.Load.Manifest, c.manifest)
	override(&cfg.Log.Level, c.logLevel)
	return cfg, cfg.Validate()
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
