package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"alexandria_reader/lang"
	"alexandria_reader/library"
	"alexandria_reader/reader"
	"alexandria_reader/ui"
	"alexandria_reader/utils"
)

var RootCmd = &cobra.Command{
	Use:          "alexandria",
	Short:        "Read the Alexandria on-chain library in the terminal",
	SilenceUsage: true,
	RunE:         runTUI,
}

var rootArgs struct {
	configPath string
	source     string
	debug      bool
}

// env is what every command works with once setup has run.
var env struct {
	log      *zap.Logger
	closeLog func() error
	source   string
	lib      library.Library
	flow     *library.FlowSource
}

func init() {
	// Assigned here: setup refers to RootCmd, so a literal field would be an initialization cycle.
	RootCmd.PersistentPreRunE = setup
	RootCmd.PersistentFlags().StringVar(&rootArgs.configPath, "config", utils.DefaultConfigPath(), "config file")
	RootCmd.PersistentFlags().StringVar(&rootArgs.source, "source", "", "library source: flow or local")
	RootCmd.PersistentFlags().BoolVar(&rootArgs.debug, "debug", false, "log debug messages")
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := utils.LoadConfig(utils.ExpandPath(rootArgs.configPath)); err != nil {
		return err
	}
	conf := utils.AppConfig
	lang.SetLocale(lang.Locale(conf.UI.Language))

	if rootArgs.debug {
		conf.Log.Level = "debug"
	}
	// Subcommands own the terminal less than the UI does, so they log to stderr.
	console := cmd != RootCmd
	if console && !rootArgs.debug && conf.Log.Level == "none" {
		conf.Log.Level = "normal"
	}
	log, closeLog, err := conf.Log.PrepareLogger(console)
	if err != nil {
		return err
	}
	env.log, env.closeLog = log, closeLog

	env.source = conf.Library.Source
	if rootArgs.source != "" {
		env.source = rootArgs.source
	}
	switch env.source {
	case "flow":
		env.flow = library.NewFlowSource(flowOptions(conf.Flow), log)
		env.lib = env.flow
		if conf.Cache.Enabled {
			env.lib = library.NewCachedSource(env.flow, conf.Cache.Dir, log)
		}
	case "local":
		env.lib = library.NewLocalSource(conf.Library.Paths, log)
	default:
		return fmt.Errorf("unknown source %q, want flow or local", env.source)
	}
	log.Debug("Ready", zap.String("source", env.source), zap.String("config", rootArgs.configPath))
	return nil
}

func teardown() error {
	if env.closeLog == nil {
		return nil
	}
	return env.closeLog()
}

func flowOptions(c utils.FlowConfig) library.FlowOptions {
	return library.FlowOptions{
		AccessNode:       c.AccessNode,
		LibraryAddress:   c.LibraryAddress,
		FlowTokenAddress: c.FlowTokenAddress,
		Timeout:          time.Duration(c.TimeoutSeconds) * time.Second,
		Retries:          c.Retries,
		RetryWait:        time.Duration(c.RetryWaitSeconds) * time.Second,
	}
}

func newLoader() *library.Loader {
	l := library.NewLoader(env.lib, env.log)
	l.MaxMisses = utils.AppConfig.Loader.MaxMisses
	l.Prefetch = utils.AppConfig.Loader.Prefetch
	return l
}

func newSettingsStore() *reader.SettingsStore {
	kv := utils.NewFileKV(filepath.Join(utils.ConfigDir(), "settings.json"))
	return reader.NewSettingsStore(kv, env.log)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		err = multierr.Append(err, env.log.Sync())
	}()
	progress := utils.DefaultProgressFile()
	progress.Log = env.log
	return ui.RunApp(cmd.Context(), ui.Deps{
		Library:  env.lib,
		Source:   env.source,
		Loader:   newLoader(),
		Settings: newSettingsStore(),
		Progress: progress,
		Log:      env.log,
	})
}
