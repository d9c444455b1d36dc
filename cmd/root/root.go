// Package root assembles the markovjunior command tree.
package root

import (
	"github.com/spf13/cobra"

	"github.com/mtrimolet/markovjunior/cmd/run"
	"github.com/mtrimolet/markovjunior/cmd/validate"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "markovjunior",
		Short: "An interpreter for pattern-rewrite rules over a 3-D grid of symbols",
		Long: `markovjunior runs programs written as pattern-rewrite rules over a
3-D grid of symbols: a match scanner, rule symmetry, ONE/ALL/PRL scheduling,
distance-field inference, goal observation, and best-first trajectory search.`,
	}

	rootCmd.AddCommand(run.NewRunCommand())
	rootCmd.AddCommand(validate.NewValidateCommand())

	return rootCmd
}
