// Package main provides the entry point for the scrapecache CLI, a
// small tool for inspecting and pruning scrapekit cache directories.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	cacheDir   string
	debug      bool

	rootCmd = &cobra.Command{
		Use:          "scrapecache",
		Short:        "Inspect and prune scrapekit cache directories",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
			return loadConfig()
		},
	}
)

// envConfig holds environment overrides, applied beneath flags but
// above the config file.
type envConfig struct {
	CacheDir string `env:"SCRAPECACHE_DIR"`
	Debug    bool   `env:"SCRAPECACHE_DEBUG"`
}

func loadConfig() error {
	tryLoadConfigFromDefaultPlaces()

	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}
	if cacheDir == "" {
		cacheDir = viper.GetString("cache_dir")
	}
	if cacheDir == "" {
		cacheDir = "cache"
	}
	return nil
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "scrapecache")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		log.Warn("Could not find configuration directory", "err", err)
		return
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "scrapecache")}, dirs...)
	}
	if c := os.Getenv("SCRAPECACHE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("scrapecache")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("scrapecache")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}
	if len(dirs) > 0 {
		configFile = filepath.Join(dirs[0], "scrapecache.yml")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if len(CommitSHA) >= 7 { //nolint:mnd
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version

	rootCmd.PersistentFlags().StringVarP(&cacheDir, "cache-dir", "d", "", "cache directory to operate on")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(listCmd, purgeCmd, configCmd)
}
