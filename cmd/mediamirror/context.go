package main

import (
	"strings"

	"github.com/spf13/cobra"

	"mediamirror/internal/config"
	"mediamirror/internal/services"
)

type commandContext struct {
	configFlag         string
	workers            int
	verbose            bool
	backend            string
	allowMultipleAudio bool
	logLevel           string
	logFormat          string

	config     *config.Config
	configPath string

	// runner replaces process execution for ffmpeg, ffprobe, and the
	// dependency check. Nil runs the real binaries.
	runner services.CommandRunner
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configFlag, "config", "c", "", "Configuration file path")
	flags.IntVarP(&c.workers, "workers", "j", 0, "Parallel tasks (0 = CPUs minus two)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Log every task start and completion")
	flags.StringVar(&c.backend, "backend", "", "Video encoder backend: ffmpeg or drapto")
	flags.BoolVar(&c.allowMultipleAudio, "allow-multiple-audio", true, "Keep every audio stream instead of rejecting files with several")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "Log format: console or json")
}

// overrides collects the flags the user actually set.
func (c *commandContext) overrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("workers") {
		o.Workers = &c.workers
	}
	if flags.Changed("verbose") {
		o.Verbose = &c.verbose
	}
	if flags.Changed("backend") {
		o.Backend = &c.backend
	}
	if flags.Changed("allow-multiple-audio") {
		o.AllowMultipleAudio = &c.allowMultipleAudio
	}
	if flags.Changed("log-level") {
		o.LogLevel = &c.logLevel
	}
	if flags.Changed("log-format") {
		o.LogFormat = &c.logFormat
	}
	return o
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, path, _, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "load", "", err)
	}
	if err := cfg.Apply(c.overrides(cmd)); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "flags", "", err)
	}
	c.config = cfg
	c.configPath = path
	return cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
