package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
)

// =============================================================================
// Config File
// =============================================================================

// Config is the on-disk configuration. Command-line flags always win over
// values set here.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Serve  ServeConfig  `toml:"serve"`
}

// LayoutConfig holds layout defaults.
type LayoutConfig struct {
	Strategy string  `toml:"strategy,omitempty"`
	Width    float64 `toml:"width,omitempty"`
	Height   float64 `toml:"height,omitempty"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Formats  []string `toml:"formats,omitempty"`
	Renderer string   `toml:"renderer,omitempty"`
	Legend   bool     `toml:"legend,omitempty"`
	Detail   bool     `toml:"detail,omitempty"`
	Scale    float64  `toml:"scale,omitempty"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Disabled      bool   `toml:"disabled,omitempty"`
	Dir           string `toml:"dir,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
}

// ServeConfig holds defaults for the HTTP service.
type ServeConfig struct {
	Addr     string  `toml:"addr,omitempty"`
	Dir      string  `toml:"dir,omitempty"`
	SQLite   string  `toml:"sqlite,omitempty"`
	MongoURI string  `toml:"mongo_uri,omitempty"`
	MongoDB  string  `toml:"mongo_database,omitempty"`
	Rate     float64 `toml:"rate,omitempty"`
	Burst    int     `toml:"burst,omitempty"`

	// LogFile receives a copy of the service log, rotated at LogMaxSize
	// megabytes with LogMaxBackups old files kept.
	LogFile       string `toml:"log_file,omitempty"`
	LogMaxSize    int    `toml:"log_max_size,omitempty"`
	LogMaxBackups int    `toml:"log_max_backups,omitempty"`
}

func defaultConfig() Config {
	return Config{
		Layout: LayoutConfig{Width: pipeline.DefaultWidth},
		Render: RenderConfig{Formats: []string{pipeline.FormatSVG}, Renderer: pipeline.RendererNative},
		Serve:  ServeConfig{Addr: defaultAddr},
	}
}

// configCandidates lists config file locations in lookup order.
func configCandidates() []string {
	var out []string
	if p := os.Getenv(configEnv); p != "" {
		out = append(out, p)
	}
	out = append(out, appName+".toml")
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		out = append(out, filepath.Join(x, appName, "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".config", appName, "config.toml"))
	}
	return out
}

// findConfig returns the first existing config file. A path named by
// $NODEFLOW_CONFIG must exist.
func findConfig() (string, error) {
	if p := os.Getenv(configEnv); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", p)
		}
		return p, nil
	}
	for _, p := range configCandidates() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

// loadConfig reads the first config file found over the defaults. It
// returns an empty path when no file exists.
func loadConfig() (Config, string, error) {
	cfg := defaultConfig()
	path, err := findConfig()
	if err != nil || path == "" {
		return cfg, "", err
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, path, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, path, errors.New(errors.ErrCodeInvalidInput,
			"config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, path, nil
}

// =============================================================================
// Config Command
// =============================================================================

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	return cmd
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use and the lookup order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.ConfigPath != "" {
				fmt.Println(c.ConfigPath)
				return nil
			}
			printInfo("No config file found")
			for _, p := range configCandidates() {
				printDetail("%s", p)
			}
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(c.Config)
		},
	}
}
