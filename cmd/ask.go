package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bnema/clipmind/internal/adapters/render/chat"
	"github.com/bnema/clipmind/internal/application"
	"github.com/bnema/clipmind/internal/domain"
	"github.com/spf13/cobra"
)

type askOptions struct {
	sessionID string
	videoPath string
	asJSON    bool
	quiet     bool
}

func newAskCmd(app *app, flags *rootFlags) *cobra.Command {
	opts := askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [flags] <request>",
		Short: "Ask something about the session's video",
		Long:  "Ask transcribes, describes or summarizes the session's video depending on the request. Every call is recorded as one turn of the session.",
		Example: strings.Join([]string{
			`  clipmind ask --video clip.mp4 "Transcribe the video"`,
			`  clipmind ask "Create a PDF summary"`,
		}, "\n"),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, app, flags, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&opts.sessionID, "session", "", "Session ID (default: derived from the working directory)")
	cmd.Flags().StringVar(&opts.videoPath, "video", "", "Attach a video to the session, replacing the previous one")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Print only the reply text")

	return cmd
}

func runAsk(cmd *cobra.Command, app *app, flags *rootFlags, opts askOptions, utterance string) error {
	sessionID, err := resolveSessionID(app, opts.sessionID)
	if err != nil {
		return err
	}

	video, err := resolveVideo(opts.videoPath)
	if err != nil {
		return err
	}

	req := application.HandleRequest{SessionID: sessionID, Utterance: utterance, Video: video}
	handle := func(ctx context.Context) (application.Reply, error) {
		return app.router.Handle(ctx, req)
	}

	var reply application.Reply
	if opts.asJSON || opts.quiet {
		reply, err = handle(cmd.Context())
	} else {
		reply, err = runTurnSpinner(cmd.Context(), cmd.ErrOrStderr(), app.now, handle)
	}
	if err != nil {
		return err
	}

	switch {
	case opts.asJSON:
		payload, err := json.MarshalIndent(reply, "", "  ")
		if err != nil {
			return fmt.Errorf("encode reply json: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return err
	case opts.quiet:
		_, err = fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
		return err
	default:
		output, err := app.replyRender(reply, chat.RenderOptions{
			MaxAttempts: app.router.MaxGenerationRetries() + 1,
			Verbose:     flags.verbose,
		})
		if err != nil {
			return fmt.Errorf("render reply: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
		return err
	}
}

func resolveSessionID(app *app, raw string) (domain.SessionID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		dir, err := workingDir()
		if err != nil {
			return "", err
		}
		return app.sessions.ResolveSessionID(dir), nil
	}

	id := domain.SessionID(raw)
	if err := domain.ValidateSessionID(id); err != nil {
		return "", fmt.Errorf("%w: %q", err, raw)
	}

	return id, nil
}

func resolveVideo(path string) (domain.VideoRef, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if !utf8.ValidString(path) {
		return "", fmt.Errorf("video path %q is not valid UTF-8", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve video path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("video %s does not exist", path)
		}
		return "", fmt.Errorf("stat video: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("video %s is a directory", path)
	}

	return domain.VideoRef(absPath), nil
}
