package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rdti-cli/internal/review"
)

var reviewFile string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Score generated registration content",
}

var reviewScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a review result JSON document (file or stdin)",
	Long:  "Reads a review result document holding the generated H-E-C block, uncertainty statements, classification reasoning, and dominant purpose narrative, and prints the blended success score.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if reviewFile == "" || reviewFile == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return eris.Wrap(err, "read stdin")
			}
		} else {
			raw, err = os.ReadFile(reviewFile)
			if err != nil {
				return eris.Wrap(err, "read review file")
			}
		}

		var result review.ReviewResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return eris.Wrap(err, "decode review result")
		}

		scorer, err := initScorer()
		if err != nil {
			return err
		}

		score := scorer.Score(cmd.Context(), result)
		return printJSON(cmd, score)
	},
}

func init() {
	reviewScoreCmd.Flags().StringVarP(&reviewFile, "file", "f", "", "review result JSON file (default stdin)")

	reviewCmd.AddCommand(reviewScoreCmd)
	rootCmd.AddCommand(reviewCmd)
}
