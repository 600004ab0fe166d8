package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bnema/clipmind/internal/adapters/export"
	"github.com/bnema/clipmind/internal/adapters/render/chat"
	"github.com/bnema/clipmind/internal/application"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *app, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and reset stored conversations",
	}

	cmd.AddCommand(
		newSessionListCmd(app),
		newSessionShowCmd(app, flags),
		newSessionClearCmd(app),
		newSessionExportCmd(app),
	)

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := app.sessions.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				payload, err := json.MarshalIndent(summaries, "", "  ")
				if err != nil {
					return fmt.Errorf("encode sessions json: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return err
			}

			output, err := chat.RenderSessionList(summaries, app.now())
			if err != nil {
				return fmt.Errorf("render sessions: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newSessionShowCmd(app *app, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session's conversation history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSessionID(app, firstArg(args))
			if err != nil {
				return err
			}

			session, err := app.sessions.Show(cmd.Context(), id)
			if err != nil {
				return err
			}

			output, err := chat.RenderSession(session, chat.RenderOptions{Verbose: flags.verbose})
			if err != nil {
				return fmt.Errorf("render session: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}

func newSessionClearCmd(app *app) *cobra.Command {
	var all bool
	var opts application.ClearOptions

	cmd := &cobra.Command{
		Use:   "clear [session-id]",
		Short: "Forget a session's history and video context",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) > 0 {
					return errors.New("--all does not take a session id")
				}
				cleared, err := app.sessions.ClearAll(cmd.Context(), opts)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d sessions\n", len(cleared))
				return err
			}

			id, err := resolveSessionID(app, firstArg(args))
			if err != nil {
				return err
			}

			if err := app.sessions.Clear(cmd.Context(), id, opts); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared session %s\n", id)
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear every stored session")
	cmd.Flags().BoolVar(&opts.Documents, "documents", false, "Also delete the documents generated in the session")

	return cmd
}

func newSessionExportCmd(app *app) *cobra.Command {
	var rawFormat string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Export a session's full history as JSON or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(rawFormat)
			if err != nil {
				return err
			}

			id, err := resolveSessionID(app, firstArg(args))
			if err != nil {
				return err
			}

			session, err := app.sessions.Show(cmd.Context(), id)
			if err != nil {
				return err
			}

			if outputPath == "" {
				return export.Write(cmd.OutOrStdout(), session, format)
			}

			return writeExportFile(outputPath, func(w io.Writer) error {
				return export.Write(w, session, format)
			})
		},
	}

	cmd.Flags().StringVar(&rawFormat, "format", string(export.FormatJSON), "Export format: json or yaml")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func writeExportFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close export file: %w", closeErr))
		}
	}()

	return write(file)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}
