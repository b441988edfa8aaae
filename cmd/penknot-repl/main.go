package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phroun/penknot"
)

// REPL holds the state of the interactive session
type REPL struct {
	lib    *penknot.Library
	editor *penknot.Editor
	reader *bufio.Reader
	out    io.Writer
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "penknot-repl",
		Short: "Interactive curve editor shell",
		Long:  `Drives one penknot editor from the command line: spawn curves, latch them into chains, group, undo and redo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, in io.Reader, out io.Writer) error {
	cfg := penknot.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = penknot.LoadConfig(configPath); err != nil {
			return err
		}
	}

	lib, closeStore, err := cfg.OpenLibrary(cfg.Logger(os.Stderr))
	if err != nil {
		return fmt.Errorf("initializing library: %w", err)
	}
	defer closeStore()

	r := &REPL{
		lib:    lib,
		editor: lib.Open(),
		reader: bufio.NewReader(in),
		out:    out,
	}
	defer func() { r.editor.Close() }()

	fmt.Fprintln(out, "Penknot REPL - Curve Editor Demo")
	fmt.Fprintln(out, "Type 'help' for available commands, 'quit' to exit")
	fmt.Fprintf(out, "Document %s\n\n", r.editor.ID())

	for {
		fmt.Fprint(out, "penknot> ")
		input, err := r.reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !r.handleCommand(input) {
			return nil
		}
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return false

	case "spawn":
		r.cmdSpawn(args)

	case "move":
		r.cmdMove(args)

	case "chain":
		r.cmdChain(args)

	case "latch":
		r.cmdLatch(args, true)

	case "unlatch":
		r.cmdLatch(args, false)

	case "delete":
		r.cmdDelete(args)

	case "group":
		r.cmdGroup(args)

	case "ungroup":
		r.cmdUngroup(args)

	case "undo":
		r.report(r.editor.Dispatch(context.Background(), penknot.UndoCommand{}))

	case "redo":
		r.report(r.editor.Dispatch(context.Background(), penknot.RedoCommand{}))

	case "history":
		r.cmdHistory()

	case "show":
		r.cmdShow(args)

	case "chain-of":
		r.cmdChainOf(args)

	case "events":
		r.cmdEvents()

	case "save":
		r.cmdSave()

	case "load":
		r.cmdLoad(args)

	case "tx", "batch":
		r.cmdBatch(args)

	default:
		fmt.Fprintf(r.out, "Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `Commands:
  spawn x1 y1 x2 y2 [cx1 cy1 cx2 cy2] [color]   create a curve
  move <id> <anchor> <x> <y>     anchor: start|end|control-start|control-end|all
  chain <id> <x> <y>             drag the whole latched chain
  latch <id> <edge> <id> <edge>  edge: start|end
  unlatch <id> <edge> <id> <edge>
  delete <id>...
  group <id>...
  ungroup <id>...
  undo | redo
  history                        list recorded actions
  show [id]                      show one or all curves
  chain-of <id>                  curves latched to id
  events                         drain entity events
  save | load <document-id>
  tx start [name] | tx commit | tx rollback
  quit
`)
}

func (r *REPL) report(res penknot.ChangeResult, err error) {
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "ok: curves=%v groups=%v cursor=%d\n", res.Curves, res.Groups, res.Cursor)
}

func (r *REPL) cmdSpawn(args []string) {
	if len(args) < 4 {
		fmt.Fprintln(r.out, "Usage: spawn x1 y1 x2 y2 [cx1 cy1 cx2 cy2] [color]")
		return
	}
	var nums []float64
	color := ""
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			color = a
			break
		}
		nums = append(nums, v)
	}
	if len(nums) != 4 && len(nums) != 8 {
		fmt.Fprintln(r.out, "Error: expected 4 or 8 coordinates")
		return
	}
	start := penknot.Point{X: nums[0], Y: nums[1]}
	end := penknot.Point{X: nums[2], Y: nums[3]}
	pos := penknot.Positions{Start: start, End: end}
	if len(nums) == 8 {
		pos.ControlStart = penknot.Point{X: nums[4], Y: nums[5]}
		pos.ControlEnd = penknot.Point{X: nums[6], Y: nums[7]}
	} else {
		d := end.Sub(start)
		pos.ControlStart = penknot.Point{X: start.X + d.X/3, Y: start.Y + d.Y/3}
		pos.ControlEnd = penknot.Point{X: start.X + 2*d.X/3, Y: start.Y + 2*d.Y/3}
	}
	id, _, err := r.editor.Spawn(pos, color)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "spawned %s\n", id)
}

func (r *REPL) cmdMove(args []string) {
	if len(args) != 4 {
		fmt.Fprintln(r.out, "Usage: move <id> <anchor> <x> <y>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	anchor, err := parseAnchor(args[1])
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	pos, err := parsePoint(args[2], args[3])
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	r.report(r.editor.Dispatch(context.Background(), penknot.MoveAnchorCommand{Curve: id, Anchor: anchor, Position: pos}))
}

func (r *REPL) cmdChain(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(r.out, "Usage: chain <id> <x> <y>")
		return
	}
	r.cmdMove([]string{args[0], "all", args[1], args[2]})
}

func (r *REPL) cmdLatch(args []string, latch bool) {
	if len(args) != 4 {
		fmt.Fprintln(r.out, "Usage: latch|unlatch <id> <edge> <id> <edge>")
		return
	}
	a, err := parseCurveEdge(args[0], args[1])
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	b, err := parseCurveEdge(args[2], args[3])
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	var cmd penknot.Command = penknot.LatchCommand{A: a, B: b}
	if !latch {
		cmd = penknot.UnlatchCommand{A: a, B: b}
	}
	r.report(r.editor.Dispatch(context.Background(), cmd))
}

func (r *REPL) cmdDelete(args []string) {
	ids, err := parseIDs(args)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	r.report(r.editor.Dispatch(context.Background(), penknot.DeleteCommand{Curves: ids}))
}

func (r *REPL) cmdGroup(args []string) {
	ids, err := parseIDs(args)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	gid, res, err := r.editor.FormGroup(ids)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	table, err := r.editor.GroupTable(gid)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "group %s: %d curves, length %.3f, cursor=%d\n", gid, len(res.Curves), table.Length, res.Cursor)
}

func (r *REPL) cmdUngroup(args []string) {
	ids, err := parseIDs(args)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	freed, _, err := r.editor.DissolveSelection(ids)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "ungrouped %v\n", freed)
}

func (r *REPL) cmdHistory() {
	actions := r.editor.HistoryActions()
	cursor := r.editor.HistoryCursor()
	if len(actions) == 0 {
		fmt.Fprintln(r.out, "History is empty")
		return
	}
	for i, a := range actions {
		marker := "  "
		if i == cursor {
			marker = "->"
		}
		fmt.Fprintf(r.out, "%s %3d  %s\n", marker, i, describeAction(a))
	}
	if cursor == -1 {
		fmt.Fprintln(r.out, "-> cursor at -1 (everything undone)")
	}
}

func describeAction(a penknot.HistoryAction) string {
	switch v := a.(type) {
	case penknot.MovedAnchor:
		return fmt.Sprintf("moved %s.%s (%g,%g) -> (%g,%g)", v.Curve, v.Anchor,
			v.PreviousPosition.X, v.PreviousPosition.Y, v.NewPosition.X, v.NewPosition.Y)
	case penknot.SpawnedCurve:
		return fmt.Sprintf("spawned %s", v.Curve)
	case penknot.DeletedCurve:
		return fmt.Sprintf("deleted %s", v.Curve)
	case penknot.Latched:
		return fmt.Sprintf("latched %s <-> %s", v.A, v.B)
	case penknot.Unlatched:
		return fmt.Sprintf("unlatched %s <-> %s", v.A, v.B)
	default:
		return string(a.Kind())
	}
}

func (r *REPL) cmdShow(args []string) {
	ids := r.editor.Curves()
	if len(args) > 0 {
		var err error
		if ids, err = parseIDs(args); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
	}
	if len(ids) == 0 {
		fmt.Fprintln(r.out, "No curves")
		return
	}
	for _, id := range ids {
		c, err := r.editor.Curve(id)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			continue
		}
		p := c.Positions
		fmt.Fprintf(r.out, "%s  (%g,%g) [%g,%g] [%g,%g] (%g,%g)", c.ID,
			p.Start.X, p.Start.Y, p.ControlStart.X, p.ControlStart.Y,
			p.ControlEnd.X, p.ControlEnd.Y, p.End.X, p.End.Y)
		for _, edge := range []penknot.AnchorEdge{penknot.EdgeStart, penknot.EdgeEnd} {
			if l, ok := c.Latches[edge]; ok {
				fmt.Fprintf(r.out, "  %s->%s.%s", edge, l.LatchedToID, l.PartnersEdge)
			}
		}
		if gid, ok := c.GroupID(); ok {
			fmt.Fprintf(r.out, "  group=%s", gid)
		}
		if c.Color != "" {
			fmt.Fprintf(r.out, "  color=%s", c.Color)
		}
		fmt.Fprintln(r.out)
	}
}

func (r *REPL) cmdChainOf(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: chain-of <id>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	ids, err := r.editor.ConnectedComponent(id)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "%s is latched to %v\n", id, ids)
}

func (r *REPL) cmdEvents() {
	for _, ev := range r.editor.DrainEvents() {
		fmt.Fprintln(r.out, ev)
	}
}

func (r *REPL) cmdSave() {
	if err := r.lib.Save(r.editor); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "saved %s\n", r.editor.ID())
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: load <document-id>")
		return
	}
	e, err := r.lib.Load(args[0])
	if err != nil {
		if errors.Is(err, penknot.ErrDocumentNotFound) {
			fmt.Fprintf(r.out, "No saved document %s\n", args[0])
			return
		}
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if r.editor.ID() != e.ID() {
		r.editor.Close()
	}
	r.editor = e
	fmt.Fprintf(r.out, "loaded %s: %d curves, cursor=%d\n", e.ID(), len(e.Curves()), e.HistoryCursor())
}

func (r *REPL) cmdBatch(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Usage: tx start [name] | tx commit | tx rollback")
		return
	}
	switch args[0] {
	case "start", "begin":
		name := strings.Join(args[1:], " ")
		if err := r.editor.BatchStart(name); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(r.out, "batch depth %d\n", r.editor.BatchDepth())
	case "commit":
		r.report(r.editor.BatchCommit())
	case "rollback":
		r.report(r.editor.BatchRollback())
	default:
		fmt.Fprintf(r.out, "Unknown tx subcommand: %s\n", args[0])
	}
}

func parseID(s string) (penknot.BezierID, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "b"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid curve id %q", s)
	}
	return penknot.BezierID(n), nil
}

func parseIDs(args []string) ([]penknot.BezierID, error) {
	ids := make([]penknot.BezierID, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseEdge(s string) (penknot.AnchorEdge, error) {
	switch strings.ToLower(s) {
	case "start", "s":
		return penknot.EdgeStart, nil
	case "end", "e":
		return penknot.EdgeEnd, nil
	}
	return 0, fmt.Errorf("invalid edge %q", s)
}

func parseCurveEdge(id, edge string) (penknot.CurveEdge, error) {
	cid, err := parseID(id)
	if err != nil {
		return penknot.CurveEdge{}, err
	}
	e, err := parseEdge(edge)
	if err != nil {
		return penknot.CurveEdge{}, err
	}
	return penknot.CurveEdge{ID: cid, Edge: e}, nil
}

func parseAnchor(s string) (penknot.Anchor, error) {
	switch strings.ToLower(s) {
	case "start":
		return penknot.AnchorStart, nil
	case "end":
		return penknot.AnchorEnd, nil
	case "control-start", "cs":
		return penknot.AnchorControlStart, nil
	case "control-end", "ce":
		return penknot.AnchorControlEnd, nil
	case "all":
		return penknot.AnchorAll, nil
	}
	return 0, fmt.Errorf("invalid anchor %q", s)
}

func parsePoint(xs, ys string) (penknot.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return penknot.Point{}, fmt.Errorf("invalid x %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return penknot.Point{}, fmt.Errorf("invalid y %q", ys)
	}
	return penknot.Point{X: x, Y: y}, nil
}
