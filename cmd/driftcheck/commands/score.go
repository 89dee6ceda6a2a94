// ABOUTME: Score command: semantic similarity of two texts
// ABOUTME: Prints a score in [0, 1] under the configured embedding model
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewScoreCmd creates the score command
func NewScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <text_a> <text_b>",
		Short: "Score the semantic similarity of two texts",
		Long: `Score the semantic similarity of two texts.

The score is the cosine similarity of their embeddings clamped to [0, 1].
Identical texts score 1.

Examples:
  driftcheck score "The cat sat on the mat" "A cat was sitting on the mat"
  DRIFTCHECK_EMBEDDER=openai driftcheck score "hello" "hi there"`,
		Args: cobra.ExactArgs(2),
		RunE: runScore,
	}
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scorer, closeFn, err := openScorer(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	score, err := scorer.Similarity(args[0], args[1])
	if err != nil {
		return err
	}

	if wantJSON(cmd) {
		return printJSON(cmd, map[string]any{
			"similarity": score,
			"model":      scorer.Model(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Similarity: %.4f (model %s)\n", score, scorer.Model())
	return nil
}
