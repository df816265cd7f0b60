package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/fileconv/internal"
	"github.com/iksnae/fileconv/internal/export"
	"github.com/spf13/cobra"
)

var (
	chatModelName   string
	chatTemperature float64
	chatOnce        bool
	chatFile        string
	chatTranscript  string
)

// chatCmd talks to the conversion assistant
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the conversion assistant",
	Long: `Chat with the multilingual conversion assistant.

Without --once an interactive session starts. When the assistant proposes a
conversion, attach a file with /upload PATH to run it, or /cancel to drop it.

Commands inside the chat:
  /upload PATH    attach a file to the proposed conversion
  /cancel         drop the proposed conversion
  /lang CODE      switch language (clears the conversation)
  /model NAME     switch chat model
  /models         list available models
  /starters       show conversation starters
  /copy           copy the last download link
  /share EMAIL    email the last converted file
  /save PATH      save the transcript (.md, .json, .jsonl, .yaml)
  /quit           leave

Examples:
  fileconv chat
  fileconv chat --lang fr
  fileconv chat --once "convert this to pdf" --file notes.docx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		settings := cfg.ChatSettings()
		if chatModelName != "" {
			settings.Model = chatModelName
		}
		bridge := internal.NewChatBridge(client, settings)
		if cmd.Flags().Changed("temperature") {
			if err := bridge.SetTemperature(chatTemperature); err != nil {
				return err
			}
		}
		presenter := newPresenter(client)

		if chatOnce {
			if len(args) == 0 {
				return &internal.ValidationError{Field: "message", Message: "Please enter a message"}
			}
			err := runChatOnce(commandContext(cmd), cmd.OutOrStdout(), bridge, presenter, strings.Join(args, " "), chatFile)
			if chatTranscript != "" {
				if saveErr := saveTranscript(bridge.Transcript(), chatTranscript); saveErr != nil {
					return saveErr
				}
			}
			return err
		}

		internal.SetLogOutput(io.Discard)
		defer internal.SetLogOutput(os.Stderr)

		model := newChatModel(bridge, client, presenter, internal.ThemeByName(cfg.Theme))
		model.transcriptPath = chatTranscript
		if len(args) > 0 {
			model.pending = strings.Join(args, " ")
		}
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(commandContext(cmd)))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("chat session failed: %w", err)
		}
		if chatTranscript != "" {
			if err := saveTranscript(bridge.Transcript(), chatTranscript); err != nil {
				return err
			}
			internal.PrintInfo("Transcript saved to " + chatTranscript)
		}
		return nil
	},
}

// runChatOnce sends one message and, when the assistant proposes a
// conversion and file is set, runs it.
func runChatOnce(ctx context.Context, out io.Writer, bridge *internal.ChatBridge, presenter *internal.Presenter, text, file string) error {
	var reply internal.ChatReply
	err := internal.ShowProgress(ctx, "Waiting for the assistant", func() error {
		var sendErr error
		reply, sendErr = bridge.SendMessage(ctx, text)
		return sendErr
	})
	if reply.Message.Content != "" {
		fmt.Fprintln(out, reply.Message.Content)
	}
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	if reply.Intent == nil {
		return nil
	}

	if file == "" {
		fmt.Fprintf(out, "\nThe assistant proposed a %s conversion to %s. Re-run with --file to convert a file.\n",
			reply.Intent.ConversionType, strings.ToUpper(reply.Intent.TargetFormat))
		bridge.CancelUpload()
		return nil
	}

	selected, err := internal.NewSelectedFile(file)
	if err != nil {
		return err
	}
	if err := bridge.AttachFile(selected); err != nil {
		return err
	}
	label := fmt.Sprintf("Converting %s to %s", selected.Name, reply.Intent.TargetFormat)
	convErr := internal.ShowProgress(ctx, label, func() error {
		_, err := bridge.ConvertWithIntent(ctx)
		return err
	})
	if session := bridge.Session(); session != nil {
		fmt.Fprintln(out, presenter.Format(presenter.Render(session.Snapshot())))
	}
	if convErr != nil {
		return errors.New(internal.ConversionFailedMessage)
	}
	return nil
}

// saveTranscript writes transcript to path in the format its extension names.
func saveTranscript(transcript *internal.ChatTranscript, path string) error {
	exporter, err := export.ForPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	if err := exporter.Export(transcript, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	internal.LogInfo("Saved transcript to %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatModelName, "model", "", "Chat model (see `fileconv models`)")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", internal.DefaultChatTemperature, "Sampling temperature between 0 and 2")
	chatCmd.Flags().BoolVar(&chatOnce, "once", false, "Send a single message and print the reply")
	chatCmd.Flags().StringVar(&chatFile, "file", "", "File to convert if the assistant proposes a conversion (with --once)")
	chatCmd.Flags().StringVar(&chatTranscript, "transcript", "", "Save the transcript to this path when done")
}
