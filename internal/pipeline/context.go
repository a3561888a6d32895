package pipeline

import (
	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/symbols"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to a Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// PipelineContext carries one input file through the stages.
type PipelineContext struct {
	FilePath    string
	Source      []byte
	Config      *config.Config
	SymbolTable *symbols.SymbolTable
	Program     *ast.Program
	TypeMap     map[*ast.CallSite]typesystem.Type // Resolved result type of each call
	Errors      []*diagnostics.DiagnosticError
	Cached      bool // Errors came from the result cache
}

func NewPipelineContext(path string, source []byte, cfg *config.Config) *PipelineContext {
	if cfg == nil {
		cfg = config.Default()
	}
	return &PipelineContext{
		FilePath: path,
		Source:   source,
		Config:   cfg,
		TypeMap:  make(map[*ast.CallSite]typesystem.Type),
	}
}

// AddErrors records diagnostics, stamping the file path on those without one.
func (ctx *PipelineContext) AddErrors(errs ...*diagnostics.DiagnosticError) {
	for _, err := range errs {
		if err.File == "" {
			err.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, err)
	}
}
