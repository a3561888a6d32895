package loader

import (
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/pipeline"
	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/utils"
)

// ManifestProcessor fills the context from a YAML manifest. Other inputs
// pass through.
type ManifestProcessor struct{}

func (mp *ManifestProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program != nil || utils.KindOf(ctx.FilePath) != utils.ManifestInput {
		return ctx
	}
	m, err := ParseManifest(ctx.Source, ctx.FilePath)
	if err != nil {
		ctx.AddErrors(diagnostics.NewError(diagnostics.ErrL001, token.Token{Line: 1, Column: 1}, err.Error()))
		return ctx
	}
	st, program, errs := Build(m, ctx.FilePath)
	ctx.SymbolTable, ctx.Program = st, program
	ctx.AddErrors(errs...)
	return ctx
}
