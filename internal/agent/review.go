package agent

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"coursesynth.app/api/internal/validator"
)

// Repair is the code-review loop. Given an
// initial candidate component source, it resubmits to the validator and, on
// rejection, re-prompts the model with the previous source and the
// validator's errors verbatim, up to maxIterations total submissions. It
// returns the last source that passed validation and true, or the last
// candidate and false if no iteration validated.
func Repair(ctx context.Context, a *StandardAgent, v *validator.Client, session Session, initialSource string, maxIterations int) (string, bool) {
	source := initialSource

	for iteration := 1; iteration <= maxIterations; iteration++ {
		report, err := v.Validate(ctx, source)
		if err != nil {
			// Validator failures are fixable-by-prompt; treat
			// like a rejection with a single synthetic error and keep
			// iterating rather than aborting the loop early.
			report = validator.Report{Valid: false, Errors: []validator.Issue{{Message: err.Error()}}}
		}
		if report.Valid {
			return source, true
		}

		if iteration == maxIterations {
			break
		}

		repairPrompt := buildRepairPrompt(source, report.Errors)
		result := a.Run(ctx, session, repairPrompt, nil, nil)
		if result.Status != StatusSuccess || strings.TrimSpace(result.Explanation) == "" {
			// Could not even get a new candidate; keep the previous one and
			// let the next validation attempt (if any) fail it again.
			continue
		}
		source = result.Explanation
	}

	return source, false
}

func buildRepairPrompt(previousSource string, errs []validator.Issue) string {
	var b strings.Builder
	b.WriteString("The following component source failed validation.\n\n")
	b.WriteString("Previous source:\n")
	b.WriteString(previousSource)
	b.WriteString("\n\nValidator errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Message)
		if e.Line != nil {
			fmt.Fprintf(&b, " (line %d)", *e.Line)
		}
		if e.Rule != nil {
			fmt.Fprintf(&b, " [%s]", *e.Rule)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRewrite the full source to fix every error above. Output only the source, no explanation. It must start with \"() =>\" and end with \"}\".")
	return b.String()
}

// RepairItem is one unit of work for RepairMany: a candidate source keyed by
// an opaque id (e.g. a question's index) that the caller uses to correlate
// results back to its own collection.
type RepairItem struct {
	ID     string
	Source string
}

// RepairResult is the outcome of repairing one RepairItem.
type RepairResult struct {
	ID     string
	Source string
	OK     bool
}

// RepairMany runs Repair over a batch of candidates with bounded
// concurrency, used by the Tester's per-question repair: "each question's component source is repaired in parallel (bounded
// fan-out)". Items that fail to validate within maxIterations come back
// with OK=false; callers drop them rather than persisting malformed source.
func RepairMany(ctx context.Context, a *StandardAgent, v *validator.Client, session Session, items []RepairItem, maxIterations, concurrency int) []RepairResult {
	results := make([]RepairResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			source, ok := Repair(gctx, a, v, session, item.Source, maxIterations)
			results[i] = RepairResult{ID: item.ID, Source: source, OK: ok}
			return nil
		})
	}
	// Errors are captured per-item above; Wait only propagates ctx
	// cancellation, which callers observe via the unset/zero-value results.
	_ = g.Wait()

	return results
}
