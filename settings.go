package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// initConfig reads the settings store: a TOML file in ~/.config/srcpdf (or
// the working directory) plus SRCPDF_* environment variables. It holds the
// advisory-service credentials and any standing exclusion additions.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "srcpdf"))
	}
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.SetEnvPrefix("SRCPDF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("advisor.provider", "deepseek")
	viper.SetDefault("advisor.api_key_env", "SRCPDF_API_KEY")
	viper.SetDefault("advisor.base_url", "")
	viper.SetDefault("advisor.model", "")
	viper.SetDefault("exclude_dirs", []string{})
	viper.SetDefault("exclude_exts", []string{})

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configuredExclusions returns the standing exclusion additions from the
// settings store, merged later with the command-line ones.
func configuredExclusions() (dirs, exts []string) {
	return viper.GetStringSlice("exclude_dirs"), viper.GetStringSlice("exclude_exts")
}

// advisorFromSettings builds an Advisor from the settings store. The API key
// is read from the environment variable named by advisor.api_key_env, never
// stored in the config file itself.
func advisorFromSettings(provider string) (*Advisor, error) {
	if provider == "" {
		provider = viper.GetString("advisor.provider")
	}
	apiKey := os.Getenv(viper.GetString("advisor.api_key_env"))
	return NewAdvisor(
		provider,
		apiKey,
		viper.GetString("advisor.base_url"),
		viper.GetString("advisor.model"),
	)
}

// writeDefaultConfig creates a starter config file so users have something
// to edit. Refuses to overwrite an existing one.
func writeDefaultConfig() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "srcpdf")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.toml")
	if err := viper.SafeWriteConfigAs(path); err != nil {
		return "", err
	}
	return path, nil
}
