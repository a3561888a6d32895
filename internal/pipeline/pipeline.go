package pipeline

// Pipeline runs its processors in order over one file.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Append returns a new pipeline with more stages at the end.
func (p *Pipeline) Append(processors ...Processor) *Pipeline {
	all := append(append([]Processor(nil), p.processors...), processors...)
	return &Pipeline{processors: all}
}

// Run executes the pipeline. Stages keep running after diagnostics so every
// problem in the file is reported; only a cache hit ends the run early.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		if ctx.Cached {
			break
		}
		ctx = processor.Process(ctx)
	}
	return ctx
}
