// Command replay plays a recorded Connect6 game through a live session and
// prints every rejected move, the final board and the outcome.
//
// A script is JSON:
//
//	{
//	  "players": {"alice": 1, "bob": 2},
//	  "moves": [{"player": "alice", "x": 9, "y": 9}, ...]
//	}
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/session"
)

// Script is a recorded game
type Script struct {
	Players map[string]engine.Player `json:"players"`
	Moves   []ScriptMove             `json:"moves"`
}

type ScriptMove struct {
	Player string `json:"player"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// Report is the outcome of a replay
type Report struct {
	Final    engine.Snapshot
	Applied  int
	Rejected []string
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay a Connect6 move script",
		ArgsUsage: "<script.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail on the first rejected move",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the final snapshot as JSON instead of a board",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected one script file, got %d arguments", cmd.Args().Len())
			}

			f, err := os.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			script, err := readScript(f)
			if err != nil {
				return err
			}

			report, err := replay(script, cmd.Bool("strict"))
			if err != nil {
				return err
			}
			return printReport(cmd.Root().Writer, report, cmd.Bool("json"))
		},
	}
}

func readScript(r io.Reader) (*Script, error) {
	var script Script
	if err := json.NewDecoder(r).Decode(&script); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return &script, nil
}

// replay seats the players in order of color and applies every move
func replay(script *Script, strict bool) (*Report, error) {
	sess := session.New(nil, zap.NewNop())
	report := &Report{}

	for _, color := range []engine.Player{engine.Player1, engine.Player2} {
		for id, c := range script.Players {
			if c != color {
				continue
			}
			if _, outcome := sess.ChooseColor(id, c); !outcome.Accepted {
				return nil, fmt.Errorf("seat %s as %s: %w", id, c, outcome.Reason)
			}
		}
	}

	for i, m := range script.Moves {
		_, outcome := sess.MakeMove(m.Player, m.X, m.Y)
		if outcome.Accepted {
			report.Applied++
			continue
		}
		msg := fmt.Sprintf("move %d: %s at (%d,%d): %v", i+1, m.Player, m.X, m.Y, outcome.Reason)
		if strict {
			return nil, fmt.Errorf("%s", msg)
		}
		report.Rejected = append(report.Rejected, msg)
	}

	report.Final = sess.QueryState()
	return report, nil
}

func printReport(w io.Writer, report *Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report.Final)
	}

	for _, r := range report.Rejected {
		fmt.Fprintf(w, "rejected %s\n", r)
	}
	fmt.Fprint(w, report.Final.Board.Render())
	fmt.Fprintf(w, "\n%d moves applied, %d rejected, status %s\n", report.Applied, len(report.Rejected), report.Final.Status)
	if report.Final.Message != nil {
		fmt.Fprintln(w, *report.Final.Message)
	}
	return nil
}
