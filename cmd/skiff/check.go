package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"skiff/internal/inspect"
	"skiff/internal/snapshot"
)

type checkResult struct {
	path     string
	loadErr  error
	problems []inspect.Problem
}

var checkCmd = &cobra.Command{
	Use:   "check [images...]",
	Short: "Verify heap invariants across one or more snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			path, err := resolveImagePath(nil)
			if err != nil {
				return err
			}
			paths = []string{path}
		}

		results := make([]checkResult, len(paths))
		var g errgroup.Group
		g.SetLimit(runtime.NumCPU())
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				results[i] = checkOne(path)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		broken := 0
		for _, res := range results {
			switch {
			case res.loadErr != nil:
				broken++
				fmt.Fprintf(out, "%s: %v\n", res.path, res.loadErr)
			case len(res.problems) > 0:
				broken++
				fmt.Fprintf(out, "%s: %d problem(s)\n", res.path, len(res.problems))
				for _, p := range res.problems {
					fmt.Fprintf(out, "  %s\n", p)
				}
			default:
				fmt.Fprintf(out, "%s: ok\n", res.path)
			}
		}
		if broken > 0 {
			return fmt.Errorf("%d of %d snapshot(s) failed verification", broken, len(paths))
		}
		return nil
	},
}

func checkOne(path string) checkResult {
	img, err := snapshot.Load(path)
	if err != nil {
		return checkResult{path: path, loadErr: err}
	}
	return checkResult{path: path, problems: inspect.Check(img)}
}
