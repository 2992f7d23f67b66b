package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The config file is loaded and the logger attached to the command context
// before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nodeflow lays out and renders interactive node-link diagrams",
		Long: `nodeflow lays out categorised node-link diagrams, renders them to SVG with
hover highlighting, category filters and animated edge flow, and serves the
result over HTTP or in a terminal viewer.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			c.Config, c.ConfigPath = cfg, path
			if path != "" {
				c.Logger.Debug("loaded config", "path", path)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
