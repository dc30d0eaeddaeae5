package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediamirror <targetDir> [outputDir]",
		Short: "Mirror a media tree with videos re-encoded and subtitles converted",
		Long: `mediamirror copies targetDir into outputDir/<name of targetDir>.
Videos are encoded to WebM (VP9/Vorbis), subtitle files are converted to
WebVTT, text subtitle tracks inside videos are extracted next to them, and
every other file is copied unchanged. Outputs that already exist are left
alone, so rerunning only finishes what is missing.

Every video is probed before anything is written; if any file has an
unsupported stream layout the run stops and lists all of them.

Omit outputDir for a dry run.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(cmd, ctx, args)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	ctx.bindFlags(rootCmd)

	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
