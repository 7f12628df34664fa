package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dominicbreuker/fsw/native"
)

// Config is the configuration of the fsw command. It can be read from a
// YAML file; command line flags override file values.
type Config struct {
	Paths          []string          `yaml:"paths"`
	Monitor        string            `yaml:"monitor"`
	Latency        time.Duration     `yaml:"latency"`
	Recursive      bool              `yaml:"recursive"`
	DirectoryOnly  bool              `yaml:"directory_only"`
	FollowSymlinks bool              `yaml:"follow_symlinks"`
	AllowOverflow  bool              `yaml:"allow_overflow"`
	Include        []string          `yaml:"include"`
	Exclude        []string          `yaml:"exclude"`
	CaseSensitive  bool              `yaml:"case_sensitive"`
	Events         []string          `yaml:"events"`
	Properties     map[string]string `yaml:"properties"`
	Verbose        bool              `yaml:"verbose"`
	Debug          bool              `yaml:"debug"`
	Color          bool              `yaml:"color"`
}

// Default returns the configuration used without a file: watch the
// current directory, recursively, with a one second latency.
func Default() Config {
	return Config{
		Paths:     []string{"./"},
		Latency:   time.Second,
		Recursive: true,
		Color:     true,
	}
}

// Load reads path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values the native library would reject late.
func (c Config) Validate() error {
	if len(c.Paths) == 0 {
		return errors.New("no paths to watch")
	}
	if c.Latency < 0 {
		return fmt.Errorf("negative latency %s", c.Latency)
	}
	if _, err := c.MonitorType(); err != nil {
		return err
	}
	if _, err := c.EventFlags(); err != nil {
		return err
	}
	return nil
}

// MonitorType parses the configured monitor name.
func (c Config) MonitorType() (native.MonitorType, error) {
	return native.ParseMonitorType(c.Monitor)
}

// EventFlags parses the configured event type names.
func (c Config) EventFlags() ([]native.EventFlag, error) {
	flags := make([]native.EventFlag, 0, len(c.Events))
	for _, name := range c.Events {
		f, err := native.ParseEventFlag(name)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, nil
}

// Filters returns the include and exclude patterns as native filters.
func (c Config) Filters() []native.Filter {
	filters := make([]native.Filter, 0, len(c.Include)+len(c.Exclude))
	for _, text := range c.Include {
		filters = append(filters, native.Filter{Text: text, Type: native.FilterInclude, CaseSensitive: c.CaseSensitive, Extended: true})
	}
	for _, text := range c.Exclude {
		filters = append(filters, native.Filter{Text: text, Type: native.FilterExclude, CaseSensitive: c.CaseSensitive, Extended: true})
	}
	return filters
}

func (c Config) String() string {
	monitor := c.Monitor
	if monitor == "" {
		monitor = native.SystemDefaultMonitor.String()
	}
	return fmt.Sprintf("Watching: %+v (recursive=%t) | monitor=%s latency=%s | filters: include=%+v exclude=%+v events=%+v", c.Paths, c.Recursive, monitor, c.Latency, c.Include, c.Exclude, c.Events)
}
