// Package validate implements the "validate" subcommand: parse a
// program document and report structural errors without running it.
package validate

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtrimolet/markovjunior/internal/program"
)

func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <program.xml>",
		Short: "Parses a program document and reports structural errors",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("program file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return validate(cmd.OutOrStdout(), args[0])
		},
	}
}

func validate(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening program file (%s): %w", path, err)
	}
	defer f.Close()

	if _, err := program.ParseModel(f, rand.New(rand.NewSource(1))); err != nil {
		return fmt.Errorf("parsing program file (%s): %w", path, err)
	}

	fmt.Fprintf(out, "%s: ok\n", path)
	return nil
}
