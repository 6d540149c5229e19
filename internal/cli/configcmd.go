package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration after file and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.Config.Encode()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p := c.Config.Path(); p != "" {
				fmt.Println(p)
				return nil
			}
			p, _ := configPath(c.configFlag)
			printInfo("No config file loaded; defaults in use")
			printDetail("Searched: %s", p)
			return nil
		},
	})
	return cmd
}
