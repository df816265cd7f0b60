package cmd

import (
	"fmt"

	"github.com/iksnae/fileconv/internal"
	"github.com/spf13/cobra"
)

// modelsCmd lists the chat models offered by the server
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available chat models",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		models, err := client.ChatModels(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("failed to list models: %s", internal.UserMessage(err, err.Error()))
		}
		out := cmd.OutOrStdout()
		if len(models) == 0 {
			fmt.Fprintln(out, "No models available")
			return nil
		}
		for _, m := range models {
			if m == cfg.Model {
				fmt.Fprintf(out, "%s %s\n", successStyle.Render("*"), m)
				continue
			}
			fmt.Fprintf(out, "  %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
