package analyzer

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// Result is the outcome of checking one call site.
type Result struct {
	Call   *ast.CallSite
	Type   typesystem.Type
	Errors []*diagnostics.DiagnosticError
}

// Diagnostics lazily checks calls in order and yields every diagnostic.
// An empty sequence means every call type-checks.
func (a *Analyzer) Diagnostics(calls []*ast.CallSite) iter.Seq[*diagnostics.DiagnosticError] {
	return func(yield func(*diagnostics.DiagnosticError) bool) {
		for _, call := range calls {
			_, errs := a.Check(call)
			for _, err := range errs {
				if !yield(err) {
					return
				}
			}
		}
	}
}

// CheckAll checks every call and returns the unique diagnostics sorted by
// position.
func (a *Analyzer) CheckAll(calls []*ast.CallSite) []*diagnostics.DiagnosticError {
	var errs []*diagnostics.DiagnosticError
	for err := range a.Diagnostics(calls) {
		errs = append(errs, err)
	}
	return finalize(errs)
}

// CheckParallel checks calls on up to workers goroutines. Results come
// back in input order, so the output matches a sequential pass.
func (a *Analyzer) CheckParallel(ctx context.Context, calls []*ast.CallSite, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(calls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, call := range calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			typ, errs := a.Check(call)
			results[i] = Result{Call: call, Type: typ, Errors: errs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Collect flattens results into the same form CheckAll returns.
func Collect(results []Result) []*diagnostics.DiagnosticError {
	var errs []*diagnostics.DiagnosticError
	for _, r := range results {
		errs = append(errs, r.Errors...)
	}
	return finalize(errs)
}

func finalize(errs []*diagnostics.DiagnosticError) []*diagnostics.DiagnosticError {
	errs = diagnostics.Dedup(errs)
	diagnostics.Sort(errs)
	return errs
}
