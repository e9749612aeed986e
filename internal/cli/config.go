package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/travelbrag/internal/config"
	"github.com/mesh-intelligence/travelbrag/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change travelbrag.toml",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), paths.Layout{ConfigDir: dir}.ConfigFile())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "geonames-user <username>",
		Short: "Set the GeoNames account used for city search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return err
			}
			if err := config.SetGeoNamesUsername(dir, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "GeoNames username set to %s\n", args[0])
			return nil
		},
	})
	return cmd
}
