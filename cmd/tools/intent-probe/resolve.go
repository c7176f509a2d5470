package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"intent-engine/internal/engine/resolver"
	"intent-engine/internal/models"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [question]",
	Short: "Resolve a single question",
	Long: `Resolve runs one question through the tier pipeline without dispatching it
and prints the decision. With --fixture the question is also handled, so the
printed result shows what the context would cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		comp, err := buildComponents(ctx)
		if err != nil {
			return err
		}
		defer comp.Close()

		question := strings.Join(args, " ")
		if fixturePath != "" {
			resp, err := comp.Engine.Handle(ctx, question, userID)
			if err != nil && resp == nil {
				return err
			}
			printResponse(cmd.OutOrStdout(), resp, err)
			return nil
		}

		rq, err := comp.Engine.Resolve(ctx, question, userID)
		if err != nil {
			return err
		}
		printResponse(cmd.OutOrStdout(), &resolver.Response{Query: rq}, nil)
		return nil
	},
}

// handleLine runs one question through Handle and prints the outcome. Dispatch
// failures are printed next to the decision instead of aborting.
func handleLine(ctx context.Context, engine *resolver.Engine, out io.Writer, question, user string) {
	resp, err := engine.Handle(ctx, question, user)
	if resp == nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	printResponse(out, resp, err)
}

func printResponse(out io.Writer, resp *resolver.Response, err error) {
	if asJSON {
		doc := map[string]interface{}{"query": resp.Query}
		if resp.Result != nil {
			doc["result"] = resp.Result
		}
		if err != nil {
			doc["error"] = err.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.Encode(doc)
		return
	}

	rq := resp.Query
	fmt.Fprintf(out, "intent:   %s\n", rq.Intent)
	fmt.Fprintf(out, "outcome:  %s (tier %s)\n", rq.Outcome, rq.Tier)
	if !rq.Params.IsEmpty() {
		fmt.Fprintf(out, "params:   %s\n", rq.Params)
	}
	if !rq.Filters.IsZero() {
		fmt.Fprintf(out, "filters:  %s\n", formatFilters(rq.Filters))
	}
	if rq.ViewMode != "" {
		fmt.Fprintf(out, "view:     %s\n", rq.ViewMode)
	}
	if len(rq.Columns) > 0 {
		fmt.Fprintf(out, "columns:  %s\n", strings.Join(rq.Columns, ", "))
	}
	if rq.Reason != "" {
		fmt.Fprintf(out, "reason:   %s\n", rq.Reason)
	}
	if resp.Result != nil {
		fmt.Fprintf(out, "result:   %s\n", resp.Result.Description)
	}
	if err != nil {
		fmt.Fprintf(out, "error:    %v\n", err)
	}
	fmt.Fprintf(out, "trace:    %s\n", strings.Join(rq.Trace, " -> "))
}

func formatFilters(f models.FilterRequest) string {
	parts := make([]string, 0, len(f.Clauses)+2)
	for _, c := range f.Clauses {
		switch c.Op {
		case models.OpEmpty, models.OpNotEmpty:
			parts = append(parts, fmt.Sprintf("%s %s", c.Field, c.Op))
		default:
			parts = append(parts, fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value))
		}
	}
	if f.SortField != "" {
		dir := "asc"
		if f.SortDesc {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", f.SortField, dir))
	}
	if f.TopN > 0 {
		parts = append(parts, fmt.Sprintf("top %d", f.TopN))
	}
	return strings.Join(parts, "; ")
}
