// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ihm-report CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the ihm-report CLI.
var rootCmd = &cobra.Command{
	Use:   "ihm-report",
	Short: "Validation reports for integrative structural models",
	Long: `ihm-report assembles the validation report of an integrative/hybrid
structural model deposition. It reads the quality metrics computed for the
entry, draws the quality-at-a-glance charts and writes an HTML bundle, a full
PDF report, a supplementary-table PDF and a JSON summary.

Settings come from flags, IHM_REPORT_* environment variables or an
ihm-report.yaml file in the working directory or ~/.config/ihm-report/.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ihm-report.yaml or ~/.config/ihm-report/ihm-report.yaml)")
	rootCmd.PersistentFlags().String("cache-root", "cache", "metrics cache directory (empty disables the cache)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ihm-report")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ihm-report"))
		}
	}

	viper.SetEnvPrefix("IHM_REPORT")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
