package analyzer

import (
	"context"

	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/pipeline"
	"github.com/funvibe/sigcheck/internal/token"
)

// SemanticAnalyzerProcessor checks every call site of the program in the
// context and records result types in ctx.TypeMap.
type SemanticAnalyzerProcessor struct {
	Context context.Context // Cancels a parallel check; nil means never
}

func (sap *SemanticAnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program == nil || ctx.SymbolTable == nil {
		return ctx
	}
	runCtx := sap.Context
	if runCtx == nil {
		runCtx = context.Background()
	}

	analyzer := New(ctx.SymbolTable, ctx.Config.Policy)
	results, err := analyzer.CheckParallel(runCtx, ctx.Program.Calls, ctx.Config.Workers)
	if err != nil {
		ctx.AddErrors(diagnostics.NewErrorf(diagnostics.ErrI001, token.Token{}, "check interrupted: %v", err))
		return ctx
	}
	for _, r := range results {
		ctx.TypeMap[r.Call] = r.Type
	}
	ctx.AddErrors(Collect(results)...)
	return ctx
}
