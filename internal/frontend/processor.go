package frontend

import (
	"context"

	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/pipeline"
	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/utils"
)

// FrontendProcessor extracts definitions and calls from Python input.
// Other inputs, and contexts another stage already filled, pass through.
type FrontendProcessor struct {
	Context context.Context
}

func (fp *FrontendProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program != nil || utils.KindOf(ctx.FilePath) != utils.PythonInput {
		return ctx
	}
	runCtx := fp.Context
	if runCtx == nil {
		runCtx = context.Background()
	}

	unit, err := New(ctx.Config.Policy).Extract(runCtx, ctx.FilePath, ctx.Source)
	if err != nil {
		ctx.AddErrors(diagnostics.NewError(diagnostics.ErrP001, token.Token{Line: 1, Column: 1}, err.Error()))
		return ctx
	}
	ctx.SymbolTable = unit.SymbolTable
	ctx.Program = unit.Program
	ctx.AddErrors(unit.Errors...)
	return ctx
}
