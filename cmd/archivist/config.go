package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/archivist/pkg/cli"
	"mercator-hq/archivist/pkg/config"
)

var configFlags struct {
	show bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply defaults and ARCHIVIST_* environment
overrides, and report every validation error.

Examples:
  archivist config validate --config archivist.yaml
  archivist config validate --config archivist.yaml --show`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)

	configValidateCmd.Flags().BoolVar(&configFlags.show, "show", false, "print the effective configuration")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ Configuration invalid (%d errors)\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
			return cli.NewExitError(1, "invalid configuration")
		}
		return cli.NewConfigError("", err.Error())
	}

	fmt.Fprintln(out, "✓ Configuration valid")
	if configFlags.show {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return cli.NewCommandError("config validate", err)
		}
		fmt.Fprintln(out)
		_, err = out.Write(data)
		return err
	}
	return nil
}
