package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dominicbreuker/fsw"
	"github.com/dominicbreuker/fsw/internal/config"
	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/internal/watch"
)

var helpText = `
fsw watches paths for file system changes and prints every event to the
console. Events are read through the libfswatch session API: a pure Go
implementation by default (inotify on Linux, kqueue or ReadDirectoryChangesW
elsewhere, polling everywhere), or libfswatch itself when built with
-tags libfswatch.
`

var rootCmd = &cobra.Command{
	Use:          "fsw [paths...]",
	Short:        "fsw watches paths and prints file system events",
	Long:         helpText,
	SilenceUsage: true,
	RunE:         root,
}

var (
	configFile     string
	monitor        string
	latency        time.Duration
	recursive      bool
	directoryOnly  bool
	followSymlinks bool
	allowOverflow  bool
	caseSensitive  bool
	include        []string
	exclude        []string
	events         []string
	properties     []string
	verbose        bool
	debug          bool
	color          bool
)

func init() {
	defaults := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "read configuration from this YAML file")
	flags.BoolVarP(&verbose, "verbose", "v", defaults.Verbose, "print informational messages and enable native verbose mode")
	flags.BoolVar(&debug, "debug", defaults.Debug, "print debug messages")
	flags.BoolVarP(&color, "color", "c", defaults.Color, "color events by kind")

	flags = rootCmd.Flags()
	flags.StringVarP(&monitor, "monitor", "m", defaults.Monitor, "monitor type (default, inotify, kqueue, windows, fsevents, fen, poll)")
	flags.DurationVarP(&latency, "latency", "l", defaults.Latency, "batch events for this long")
	flags.BoolVarP(&recursive, "recursive", "r", defaults.Recursive, "watch directories recursively")
	flags.BoolVarP(&directoryOnly, "directory-only", "d", defaults.DirectoryOnly, "only report directories")
	flags.BoolVarP(&followSymlinks, "follow-symlinks", "L", defaults.FollowSymlinks, "follow symbolic links")
	flags.BoolVar(&allowOverflow, "allow-overflow", defaults.AllowOverflow, "report queue overflows as events instead of failing")
	flags.BoolVar(&caseSensitive, "case-sensitive", defaults.CaseSensitive, "match include and exclude patterns case-sensitively")
	flags.StringArrayVarP(&include, "include", "i", nil, "include paths matching this regular expression")
	flags.StringArrayVarP(&exclude, "exclude", "e", nil, "exclude paths matching this regular expression")
	flags.StringArrayVar(&events, "event", nil, "only report these event flags (e.g. Created, Removed)")
	flags.StringArrayVar(&properties, "property", nil, "set a monitor property (name=value)")

	rootCmd.AddCommand(monitorsCmd)
}

func root(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	logging.Setup(logging.Options{Verbose: cfg.Verbose, Debug: cfg.Debug, Color: cfg.Color})
	logger := logging.NewLogger(cfg.Debug)

	lib, err := initLibrary(cfg.Verbose)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exit, err := watch.Start(cfg, &watch.Bindings{Logger: logger, Library: lib}, sigCh)
	if err != nil {
		return err
	}
	return <-exit
}

func initLibrary(verbose bool) (*fsw.Library, error) {
	lib := fsw.Default()
	if err := lib.Init(); err != nil {
		return nil, err
	}
	lib.SetVerbose(verbose)
	return lib, nil
}

// loadConfig reads the config file, if any, and applies the flags that
// were set explicitly on top of it.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if len(args) > 0 {
		cfg.Paths = args
	}
	if changed("monitor") {
		cfg.Monitor = monitor
	}
	if changed("latency") {
		cfg.Latency = latency
	}
	if changed("recursive") {
		cfg.Recursive = recursive
	}
	if changed("directory-only") {
		cfg.DirectoryOnly = directoryOnly
	}
	if changed("follow-symlinks") {
		cfg.FollowSymlinks = followSymlinks
	}
	if changed("allow-overflow") {
		cfg.AllowOverflow = allowOverflow
	}
	if changed("case-sensitive") {
		cfg.CaseSensitive = caseSensitive
	}
	if changed("include") {
		cfg.Include = include
	}
	if changed("exclude") {
		cfg.Exclude = exclude
	}
	if changed("event") {
		cfg.Events = events
	}
	if changed("verbose") {
		cfg.Verbose = verbose
	}
	if changed("debug") {
		cfg.Debug = debug
	}
	if changed("color") {
		cfg.Color = color
	}
	if changed("property") {
		if cfg.Properties == nil {
			cfg.Properties = make(map[string]string)
		}
		for _, p := range properties {
			name, value, ok := strings.Cut(p, "=")
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid property %q, expected name=value", p)
			}
			cfg.Properties[name] = value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
