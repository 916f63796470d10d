package cmd

import (
	"fmt"
	"os"
	"strings"

	// Subcommands
	download "github.com/tunelab/tune/cmd/tune/download"
	"github.com/tunelab/tune/internal/config"
	"github.com/tunelab/tune/internal/services/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const tunePrefix = "TUNE"

var Cmd = &cobra.Command{
	Use:   "tune",
	Short: "Model hub CLI",
	Long:  "A CLI for fetching model repositories from hub providers onto your own machine",

	SilenceUsage:  true,
	SilenceErrors: true,

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set global viper options
		viper.SetEnvPrefix(tunePrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`, // convert hyphens to underscores
			`.`, `_`, // convert dots to underscores
		))
		viper.AutomaticEnv()

		// Bind all flags from the current command persistent parent flags
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		// Load config and env files
		if err := config.LoadEnvAndConfigFiles(); err != nil {
			return err
		}

		return logger.InitLogger(config.GetConfig())
	},
}

// Execute runs the root command. Classified download failures and argument
// errors both surface as exit code 2.
func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func init() {
	pflags := Cmd.PersistentFlags()

	pflags.String("tune-home", "", "Path to the tune home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	// Bind flags to viper
	viper.BindPFlag("tune_home", pflags.Lookup("tune-home"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	// Add subcommands
	Cmd.AddCommand(download.Cmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
