package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "clipmind",
		Short:         "clipmind: ask questions about a short video",
		Long:          "clipmind routes natural-language requests about a short video to transcription, vision and document-generation agents, and remembers each conversation across runs.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output and show the agent trace under each turn")

	app, err := wireApp(&cmdErrWriter{cmd: rootCmd})
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if flags.verbose {
			app.logger.SetLevel(log.DebugLevel)
		}
	}
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.Close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAskCmd(app, flags),
		newSessionCmd(app, flags),
	)

	return rootCmd
}

// cmdErrWriter resolves the command's error stream at write time so SetErr after
// construction applies. It is a pointer type because the logger keys writers in a map.
type cmdErrWriter struct {
	cmd *cobra.Command
}

func (w *cmdErrWriter) Write(p []byte) (int, error) {
	return w.cmd.ErrOrStderr().Write(p)
}
