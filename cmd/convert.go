package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/fileconv/internal"
	"github.com/spf13/cobra"
)

var (
	convertTo       string
	convertDownload string
	convertCopyLink bool
	convertShare    string
	convertMessage  string
	convertRefresh  bool
)

// convertCmd uploads a file and converts it to the requested format
var convertCmd = &cobra.Command{
	Use:   "convert <type> <file>",
	Short: "Convert a file to another format",
	Long: `Upload a file and convert it to another format.

The file is checked against the supported formats of the conversion type
before anything is uploaded. On success the download link is printed; it
can also be copied to the clipboard, downloaded, or shared by email.

Conversion types: text, document, image, audio, video, compressed

Examples:
  fileconv convert document report.docx --to pdf
  fileconv convert image photo.png --to webp --download ./out
  fileconv convert audio song.wav --to mp3 --copy-link
  fileconv convert document notes.md --to pdf --share bob@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		convType, err := internal.ParseConversionType(args[0])
		if err != nil {
			return err
		}
		file, err := internal.NewSelectedFile(args[1])
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		source, closeStore := openCatalog(client, convertRefresh)
		defer closeStore()

		ctx := commandContext(cmd)
		presenter := newPresenter(client)
		out := cmd.OutOrStdout()

		var (
			session *internal.SessionController
			result  *internal.ConversionResult
		)
		convertCtx, cancel := context.WithTimeout(ctx, cfg.ConvertTimeout.Std())
		defer cancel()

		submitErr := internal.ShowProgressWithSteps(ctx, []internal.ProgressStep{
			{
				Message: "Loading supported formats",
				Fn: func() error {
					catalog, entry, err := internal.FetchCatalog(ctx, source, convType)
					if err != nil {
						return err
					}
					intake := internal.NewUploadIntake(convType)
					intake.Select(file)
					if warning := intake.Warning(catalog); warning != "" {
						return &internal.ValidationError{Field: "file", Message: warning}
					}
					if convertTo == "" {
						return &internal.ValidationError{
							Field:   "target_format",
							Message: "Please choose a target format with --to (" + internal.DescribeEntry(entry) + ")",
						}
					}
					session = internal.NewSessionController(client, catalog, cfg.User)
					return nil
				},
			},
			{
				Message: fmt.Sprintf("Converting %s to %s", file.Name, convertTo),
				Fn: func() error {
					var err error
					result, err = session.Submit(convertCtx, file, convertTo, convType)
					return err
				},
			},
		})
		if session == nil {
			return fmt.Errorf("%s", internal.UserMessage(submitErr, submitErr.Error()))
		}
		if internal.ErrorKindOf(submitErr) == internal.KindValidation {
			return fmt.Errorf("%s", internal.UserMessage(submitErr, submitErr.Error()))
		}

		view := presenter.Render(session.Snapshot())
		if submitErr != nil && view.Kind != internal.ViewError {
			// Submit refused without recording a failure (not idle, already running).
			view = internal.ResultView{Kind: internal.ViewError, Message: internal.UserMessage(submitErr, internal.ConversionFailedMessage), Retry: true}
		}
		fmt.Fprintln(out, presenter.Format(view))
		if view.Kind != internal.ViewSuccess {
			return fmt.Errorf("conversion failed")
		}

		if convertDownload != "" {
			dest, err := downloadResult(ctx, client, result, convertDownload)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  Saved: %s\n", dest)
		}
		if convertCopyLink {
			link, err := presenter.CopyLink(result)
			if err != nil {
				internal.PrintWarning(err.Error())
			} else {
				fmt.Fprintln(out, presenter.FormatNotification(internal.Notification{Level: internal.NotifySuccess, Text: "Link copied: " + link}))
			}
		}
		if convertShare != "" {
			note := presenter.Share(ctx, result, convertShare, convertMessage)
			fmt.Fprintln(out, presenter.FormatNotification(note))
		}
		return nil
	},
}

// downloadResult saves the converted file under dir and returns its path.
func downloadResult(ctx context.Context, client *internal.Client, result *internal.ConversionResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	dest := filepath.Join(dir, result.FileName())
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := client.Download(ctx, result.DownloadURL, f); err != nil {
		f.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("download failed: %s", internal.UserMessage(err, err.Error()))
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target format (e.g. pdf, png, mp3)")
	convertCmd.Flags().StringVar(&convertDownload, "download", "", "Download the converted file into this directory")
	convertCmd.Flags().BoolVar(&convertCopyLink, "copy-link", false, "Copy the download link to the clipboard")
	convertCmd.Flags().StringVar(&convertShare, "share", "", "Email the converted file to this address")
	convertCmd.Flags().StringVar(&convertMessage, "message", "", "Message to include when sharing")
	convertCmd.Flags().BoolVar(&convertRefresh, "refresh", false, "Bypass the local catalog cache")
}
