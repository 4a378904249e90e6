package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# directory holding cached entries
cache_dir: "cache"
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration file, creating a default if absent",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigFile())
		return nil
	},
}

func resolvedConfigFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return configFile
}

func ensureConfigFile() error {
	path := resolvedConfigFile()
	if path == "" {
		return errors.New("could not resolve a configuration path")
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking configuration file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("writing default configuration: %w", err)
	}
	return nil
}
