package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/slidecut/internal/domain/presence"
	"github.com/forPelevin/slidecut/internal/domain/similarity"
)

// Exit codes.
const (
	exitFailure      = 1
	exitInvalidInput = 2
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "slidecut <input> [output]",
		Short:        "Cut the spans where a lecture video shows a reference slide",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := ""
			if len(args) > 1 {
				output = args[1]
			}
			return run(cmd, args[0], output)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("config", "", "YAML config file (default $SLIDECUT_CONFIG or ./slidecut.yaml)")
	root.Flags().String("reference", "ex1.png", "Reference image to cut out")
	root.Flags().String("matcher", "ssim", "Similarity matcher: "+strings.Join(similarity.Names(), ", "))
	root.Flags().Float64("threshold", 0, "Match threshold, 0 picks the matcher default")
	root.Flags().String("leading-zero", presence.LeadingZeroDropAppend.String(), "Handling of a match at 0s: drop-append or anchor")
	root.Flags().String("report", "", "Report JSON path (default <output>.json)")
	root.Flags().Bool("dry-run", false, "Analyse only, do not write a video")
	root.Flags().BoolP("verbose", "v", false, "Debug logging")

	// Hidden tuning flags (internal)
	root.Flags().Int("width", 320, "Analysis frame width")
	root.Flags().String("cache", ".cache", "Work directory for rendered parts")
	root.Flags().Bool("keep-cache", false, "Keep rendered parts after the run")
	_ = root.Flags().MarkHidden("width")
	_ = root.Flags().MarkHidden("cache")
	_ = root.Flags().MarkHidden("keep-cache")

	return root
}

func exitCode(err error) int {
	var in *presence.InvalidInputError
	if errors.As(err, &in) {
		return exitInvalidInput
	}
	return exitFailure
}
