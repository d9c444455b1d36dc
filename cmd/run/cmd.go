// Package run implements the "run" subcommand: parse a program
// document, execute its tree to convergence or a tick bound, and print
// the final grid.
package run

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtrimolet/markovjunior/internal/controls"
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/program"
	"github.com/mtrimolet/markovjunior/internal/symbol"
	"github.com/mtrimolet/markovjunior/internal/tracer"
	"github.com/mtrimolet/markovjunior/internal/tree"
)

func NewRunCommand() *cobra.Command {
	var (
		extent   string
		seed     int64
		ticks    int
		tickrate int
		gui      bool
	)

	cmd := &cobra.Command{
		Use:   "run <program.xml>",
		Short: "Runs a program document to convergence and prints the final grid",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("program file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if gui {
				return errors.New("--gui is not supported in this build: only the console backend is available")
			}
			size, err := parseExtent(extent)
			if err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), args[0], size, seed, ticks, tickrate)
		},
	}

	cmd.Flags().StringVar(&extent, "extent", "1x59x59", "grid extent, DxHxW")
	cmd.Flags().Int64Var(&seed, "seed", 1, "RNG seed")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "maximum tick count (0 = run to convergence)")
	cmd.Flags().IntVar(&tickrate, "tickrate", 60, "ticks per second cap (0 = unbounded)")
	cmd.Flags().BoolVar(&gui, "gui", false, "use the graphical backend (not supported in this build)")

	return cmd
}

func parseExtent(s string) (grid.Size, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 3 {
		return grid.Size{}, fmt.Errorf("extent %q must have the form DxHxW", s)
	}
	var size grid.Size
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return grid.Size{}, fmt.Errorf("extent %q must have three positive integers", s)
		}
		size[i] = n
	}
	return size, nil
}

func run(out io.Writer, path string, size grid.Size, seed int64, ticks, tickrate int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening program file (%s): %w", path, err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(seed))
	model, err := program.ParseModel(f, rng)
	if err != nil {
		return fmt.Errorf("parsing program file (%s): %w", path, err)
	}

	tg := grid.Traced[symbol.Symbol]{Grid: grid.Fill[symbol.Symbol](size, model.Alphabet[0])}
	if model.Origin && len(model.Alphabet) > 1 {
		tg.Set(tg.Area().Center(), model.Alphabet[1])
	}

	wireTracer(model.Root, tracer.LoggingTracer{Writer: os.Stderr})

	ctrl := controls.New(tickrate, nil)
	ctrl.RateLimitEnabled = tickrate > 0

	count := 0
	last := time.Now()
	for (ticks == 0 || count < ticks) && model.Root.Step(&tg) {
		ctrl.RateLimit(last)
		last = time.Now()
		count++
	}

	fmt.Fprintln(out, dumpString(tg.Grid))
	return nil
}

// wireTracer walks a parsed model's tree and sets every leaf RuleNode's
// Tracer, since program.ParseModel itself has no notion of where
// tracing should go.
func wireTracer(n tree.NodeRunner, t tracer.Tracer) {
	switch v := n.(type) {
	case *tree.RuleRunner:
		v.Node.Tracer = t
	case *tree.TreeRunner:
		for _, c := range v.Nodes {
			wireTracer(c, t)
		}
	}
}

// dumpString renders g in the same literal form grid.ParseString reads:
// '/' between z-layers, ' ' between y-rows, one byte per x-cell.
func dumpString(g grid.Grid[symbol.Symbol]) string {
	layers := make([]string, g.Extents[0])
	for z := 0; z < g.Extents[0]; z++ {
		rows := make([]string, g.Extents[1])
		for y := 0; y < g.Extents[1]; y++ {
			row := make([]byte, g.Extents[2])
			for x := 0; x < g.Extents[2]; x++ {
				row[x] = g.At(grid.Offset{z, y, x})
			}
			rows[y] = string(row)
		}
		layers[z] = strings.Join(rows, " ")
	}
	return strings.Join(layers, "/")
}
