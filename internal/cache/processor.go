package cache

import (
	"context"
	"log"

	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/pipeline"
)

// LookupProcessor ends the pipeline early with the stored diagnostics
// when the file was checked before under the same policy. Cache failures
// are logged and the file is checked normally.
type LookupProcessor struct {
	Store   *Store
	Context context.Context
}

func (lp *LookupProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if lp.Store == nil {
		return ctx
	}
	hash := HashSource(ctx.FilePath, ctx.Source)
	errs, ok, err := lp.Store.Lookup(background(lp.Context), hash, ctx.Config.Policy.String())
	if err != nil {
		log.Printf("cache lookup for %s failed: %v", ctx.FilePath, err)
		return ctx
	}
	if ok {
		ctx.Errors = errs
		ctx.Cached = true
	}
	return ctx
}

// SaveProcessor stores the diagnostics of a completed check. Interrupted
// checks are not stored.
type SaveProcessor struct {
	Store   *Store
	Context context.Context
}

func (sp *SaveProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if sp.Store == nil || ctx.Cached {
		return ctx
	}
	for _, err := range ctx.Errors {
		if err.Code == diagnostics.ErrI001 {
			return ctx
		}
	}
	hash := HashSource(ctx.FilePath, ctx.Source)
	if _, err := sp.Store.Save(background(sp.Context), hash, ctx.Config.Policy.String(), ctx.Errors); err != nil {
		log.Printf("cache store for %s failed: %v", ctx.FilePath, err)
	}
	return ctx
}

func background(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
