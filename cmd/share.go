package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/fileconv/internal"
	"github.com/spf13/cobra"
)

var (
	shareTo      string
	shareMessage string
)

// shareCmd emails a previously converted file
var shareCmd = &cobra.Command{
	Use:   "share <filename>",
	Short: "Email a converted file",
	Long: `Ask the conversion service to email a converted file.

The filename is the name shown after a successful conversion (the last
segment of its download link). The address is checked locally before
anything is sent.

Examples:
  fileconv share report_0001.pdf --to bob@example.com
  fileconv share photo_0002.webp --to bob@example.com --message "Here you go"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		presenter := newPresenter(client)
		note := presenter.Share(commandContext(cmd), &internal.ConversionResult{FilePath: args[0]}, shareTo, shareMessage)
		fmt.Fprintln(cmd.OutOrStdout(), presenter.FormatNotification(note))
		if note.Level == internal.NotifyError {
			return errors.New(note.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.Flags().StringVar(&shareTo, "to", "", "Recipient email address")
	shareCmd.Flags().StringVar(&shareMessage, "message", "", "Optional message for the recipient")
	_ = shareCmd.MarkFlagRequired("to")
}
