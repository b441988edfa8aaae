// penknot-bench is a benchmark and stress test for the penknot editor.
// It builds long latched chains and measures edits, grouping and history
// replay over them.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/phroun/penknot"
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Microsecond))
}

func main() {
	var (
		chainLen    int
		sampleCount int
	)

	rootCmd := &cobra.Command{
		Use:   "penknot-bench",
		Short: "Benchmark and stress test for the penknot editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), chainLen, sampleCount)
		},
	}
	rootCmd.Flags().IntVarP(&chainLen, "chain", "n", 2000, "number of curves in the benchmark chain")
	rootCmd.Flags().IntVar(&sampleCount, "samples", penknot.DefaultSampleCount, "samples per curve table")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(out io.Writer, n, sampleCount int) error {
	fmt.Fprintln(out, "Penknot Benchmark and Stress Test")
	fmt.Fprintln(out, "=================================")
	fmt.Fprintf(out, "Chain length: %d curves\n", n)
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Fprintln(out)

	e := penknot.New(penknot.Options{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		SampleCount: sampleCount,
	})

	var results []BenchResult
	var failed error

	// Helper to run and print each benchmark
	runBench := func(name string, fn func() (BenchResult, error)) {
		if failed != nil {
			return
		}
		fmt.Fprintf(out, "  %-40s ", name+"...")
		result, err := fn()
		if err != nil {
			fmt.Fprintf(out, "FAILED: %v\n", err)
			failed = fmt.Errorf("%s: %w", name, err)
			return
		}
		fmt.Fprintf(out, "%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
	}

	var ids []penknot.BezierID
	var gid penknot.GroupID

	fmt.Fprintln(out, "Running benchmarks...")
	runBench("Spawn curves", func() (BenchResult, error) {
		var r BenchResult
		var err error
		ids, r, err = benchSpawn(e, n)
		return r, err
	})
	runBench("Latch into one chain", func() (BenchResult, error) {
		return benchLatchChain(e, ids)
	})
	runBench("Connected component", func() (BenchResult, error) {
		return benchConnectedComponent(e, ids)
	})
	runBench("Move latched anchors", func() (BenchResult, error) {
		return benchMoves(e, ids)
	})
	runBench("Drag whole chain", func() (BenchResult, error) {
		return benchDrag(e, ids)
	})
	runBench("Form group", func() (BenchResult, error) {
		var r BenchResult
		var err error
		gid, r, err = benchGroup(e, ids)
		return r, err
	})
	runBench("Group table", func() (BenchResult, error) {
		return benchGroupTable(e, gid)
	})
	runBench("Batch of moves", func() (BenchResult, error) {
		return benchBatch(e, ids)
	})
	runBench("Delete half the chain", func() (BenchResult, error) {
		return benchDelete(e, ids)
	})
	runBench("Undo everything", func() (BenchResult, error) {
		return benchUndoAll(e)
	})
	runBench("Redo everything", func() (BenchResult, error) {
		return benchRedoAll(e)
	})
	runBench("Snapshot round trip", func() (BenchResult, error) {
		return benchSnapshot(e)
	})

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Results")
	fmt.Fprintln(out, "=======")
	for _, r := range results {
		fmt.Fprintln(out, r)
	}

	if failed != nil {
		return failed
	}
	if err := e.CheckLatches(); err != nil {
		return fmt.Errorf("latch invariant broken after run: %w", err)
	}
	fmt.Fprintln(out, "\nLatch invariant holds.")
	return nil
}

func segment(i int) penknot.Positions {
	x := float64(i * 10)
	return penknot.Positions{
		Start:        penknot.Point{X: x, Y: 0},
		ControlStart: penknot.Point{X: x + 3, Y: 5},
		ControlEnd:   penknot.Point{X: x + 7, Y: -5},
		End:          penknot.Point{X: x + 10, Y: 0},
	}
}

func benchSpawn(e *penknot.Editor, n int) ([]penknot.BezierID, BenchResult, error) {
	ids := make([]penknot.BezierID, 0, n)
	start := time.Now()
	for i := 0; i < n; i++ {
		id, _, err := e.Spawn(segment(i), "")
		if err != nil {
			return nil, BenchResult{}, err
		}
		ids = append(ids, id)
	}
	return ids, BenchResult{Name: "Spawn curves", Duration: time.Since(start), Ops: n}, nil
}

func benchLatchChain(e *penknot.Editor, ids []penknot.BezierID) (BenchResult, error) {
	start := time.Now()
	for i := 1; i < len(ids); i++ {
		a := penknot.CurveEdge{ID: ids[i-1], Edge: penknot.EdgeEnd}
		b := penknot.CurveEdge{ID: ids[i], Edge: penknot.EdgeStart}
		if _, err := e.Latch(a, b); err != nil {
			return BenchResult{}, err
		}
	}
	return BenchResult{Name: "Latch into one chain", Duration: time.Since(start), Ops: len(ids) - 1}, nil
}

func benchConnectedComponent(e *penknot.Editor, ids []penknot.BezierID) (BenchResult, error) {
	const ops = 50
	start := time.Now()
	for i := 0; i < ops; i++ {
		comp, err := e.ConnectedComponent(ids[i%len(ids)])
		if err != nil {
			return BenchResult{}, err
		}
		if len(comp) != len(ids)-1 {
			return BenchResult{}, fmt.Errorf("component has %d curves, want %d", len(comp), len(ids)-1)
		}
	}
	return BenchResult{Name: "Connected component", Duration: time.Since(start), Ops: ops}, nil
}

func benchMoves(e *penknot.Editor, ids []penknot.BezierID) (BenchResult, error) {
	start := time.Now()
	for i, id := range ids {
		c, err := e.Curve(id)
		if err != nil {
			return BenchResult{}, err
		}
		p := c.Positions.End
		p.Y = float64(i % 7)
		if _, err := e.MoveAnchor(id, penknot.AnchorEnd, p); err != nil {
			return BenchResult{}, err
		}
	}
	return BenchResult{Name: "Move latched anchors", Duration: time.Since(start), Ops: len(ids)}, nil
}

func benchDrag(e *penknot.Editor, ids []penknot.BezierID) (BenchResult, error) {
	const ops = 20
	start := time.Now()
	for i := 0; i < ops; i++ {
		if _, err := e.MoveChain(ids[0], penknot.Point{X: float64(i), Y: float64(i)}); err != nil {
			return BenchResult{}, err
		}
	}
	return BenchResult{Name: "Drag whole chain", Duration: time.Since(start), Ops: ops}, nil
}

func benchGroup(e *penknot.Editor, ids []penknot.BezierID) (penknot.GroupID, BenchResult, error) {
	start := time.Now()
	gid, _, err := e.FormGroup(ids)
	if err != nil {
		return "", BenchResult{}, err
	}
	return gid, BenchResult{Name: "Form group", Duration: time.Since(start), Extra: string(gid)}, nil
}

func benchGroupTable(e *penknot.Editor, gid penknot.GroupID) (BenchResult, error) {
	start := time.Now()
	table, err := e.GroupTable(gid)
	if err != nil {
		return BenchResult{}, err
	}
	return BenchResult{
		Name:     "Group table",
		Duration: time.Since(start),
		Extra:    fmt.Sprintf("%d points, length %.1f", len(table.Points), table.Length),
	}, nil
}

func benchBatch(e *penknot.Editor, ids []penknot.BezierID) (BenchResult, error) {
	start := time.Now()
	if err := e.BatchStart("bench"); err != nil {
		return BenchResult{}, err
	}
	for _, id := range ids {
		c, err := e.Curve(id)
		if err != nil {
			return BenchResult{}, err
		}
		p := c.Positions.ControlStart
		p.Y++
		if _, err := e.MoveAnchor(id, penknot.AnchorControlStart, p); err != nil {
			return BenchResult{}, err
		}
	}
	if _, err := e.BatchCommit(); err != nil {
		return BenchResult{}, err
	}
	return BenchResult{Name: "Batch of moves", Duration: time.Since(start), Ops: len(ids)}, nil
}

func benchDelete(e *penknot.Editor, ids []penknot.BezierID) (BenchResult, error) {
	var victims []penknot.BezierID
	for i := 0; i < len(ids); i += 2 {
		victims = append(victims, ids[i])
	}
	start := time.Now()
	if _, err := e.Delete(victims); err != nil {
		return BenchResult{}, err
	}
	return BenchResult{Name: "Delete half the chain", Duration: time.Since(start), Ops: len(victims)}, nil
}

func benchUndoAll(e *penknot.Editor) (BenchResult, error) {
	start := time.Now()
	ops := 0
	for {
		_, err := e.Undo()
		if errors.Is(err, penknot.ErrHistoryAtBottom) {
			break
		}
		if err != nil {
			return BenchResult{}, err
		}
		ops++
	}
	if n := len(e.Curves()); n != 0 {
		return BenchResult{}, fmt.Errorf("%d curves left after undoing everything", n)
	}
	return BenchResult{Name: "Undo everything", Duration: time.Since(start), Ops: ops}, nil
}

func benchRedoAll(e *penknot.Editor) (BenchResult, error) {
	start := time.Now()
	ops := 0
	for {
		_, err := e.Redo()
		if errors.Is(err, penknot.ErrHistoryAtTop) {
			break
		}
		if err != nil {
			return BenchResult{}, err
		}
		ops++
	}
	return BenchResult{Name: "Redo everything", Duration: time.Since(start), Ops: ops}, nil
}

func benchSnapshot(e *penknot.Editor) (BenchResult, error) {
	start := time.Now()
	doc, err := e.Snapshot()
	if err != nil {
		return BenchResult{}, err
	}
	data, err := doc.Encode()
	if err != nil {
		return BenchResult{}, err
	}
	back, err := penknot.DecodeDocument(data)
	if err != nil {
		return BenchResult{}, err
	}
	fresh := penknot.New(penknot.Options{})
	if err := fresh.Restore(back); err != nil {
		return BenchResult{}, err
	}
	return BenchResult{
		Name:     "Snapshot round trip",
		Duration: time.Since(start),
		Extra:    fmt.Sprintf("%d bytes", len(data)),
	}, nil
}
