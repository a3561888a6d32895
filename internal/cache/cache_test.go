package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/pipeline"
	"github.com/funvibe/sigcheck/internal/token"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mismatch(line int) *diagnostics.DiagnosticError {
	err := diagnostics.NewError(diagnostics.ErrT002, token.Token{Line: line, Column: 8},
		`Argument 1 to "square" has incompatible type "str"; expected "int"`)
	err.File = "square.py"
	err.Callee = "square"
	err.ArgIndex = 1
	err.Expected = "int"
	err.Actual = "str"
	return err
}

func TestStore_SaveAndLookup(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	policy := config.DefaultPolicy().String()
	hash := HashSource("square.py", []byte("square('x')\n"))

	_, ok, err := store.Lookup(ctx, hash, policy)
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := store.Save(ctx, hash, policy, []*diagnostics.DiagnosticError{mismatch(10)})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "run ids are UUIDs")

	errs, ok, err := store.Lookup(ctx, hash, policy)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrT002, errs[0].Code)
	assert.Equal(t, "square.py", errs[0].File)
	assert.Equal(t, 10, errs[0].Token.Line, "positions survive the round trip")
	assert.Equal(t, 8, errs[0].Token.Column)
	assert.Equal(t, mismatch(10).Message, errs[0].Message)

	_, ok, err = store.Lookup(ctx, hash, "bool_is_int=false,int_is_float=true")
	require.NoError(t, err)
	assert.False(t, ok, "a different policy is a different key")
}

func TestStore_SaveReplacesAndStoresCleanRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	hash := HashSource("a.py", []byte("x"))

	_, err := store.Save(ctx, hash, "p", []*diagnostics.DiagnosticError{mismatch(1)})
	require.NoError(t, err)
	_, err = store.Save(ctx, hash, "p", nil)
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	errs, ok, err := store.Lookup(ctx, hash, "p")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestStore_Prune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	_, err := store.Save(ctx, "h1", "p", nil)
	require.NoError(t, err)

	removed, err := store.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestHashSource(t *testing.T) {
	a := HashSource("a.py", []byte("square(3)"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashSource("a.py", []byte("square(3)")))
	assert.NotEqual(t, a, HashSource("b.py", []byte("square(3)")))
	assert.NotEqual(t, a, HashSource("a.py", []byte("square(4)")))
}

func TestProcessors(t *testing.T) {
	store := openStore(t)
	src := []byte("square('x')\n")

	check := pipeline.ProcessorFunc(func(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
		ctx.AddErrors(mismatch(1))
		return ctx
	})
	p := pipeline.New(&LookupProcessor{Store: store}, check, &SaveProcessor{Store: store})

	first := p.Run(pipeline.NewPipelineContext("square.py", src, nil))
	assert.False(t, first.Cached)
	require.Len(t, first.Errors, 1)

	second := p.Run(pipeline.NewPipelineContext("square.py", src, nil))
	assert.True(t, second.Cached)
	require.Len(t, second.Errors, 1)
	assert.Equal(t, first.Errors[0].Message, second.Errors[0].Message)

	interrupted := pipeline.New(pipeline.ProcessorFunc(func(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
		ctx.AddErrors(diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "check interrupted"))
		return ctx
	}), &SaveProcessor{Store: store})
	interrupted.Run(pipeline.NewPipelineContext("other.py", src, nil))
	_, ok, err := store.Lookup(context.Background(), HashSource("other.py", src), config.DefaultPolicy().String())
	require.NoError(t, err)
	assert.False(t, ok, "interrupted runs are not cached")
}

func TestProcessorsWithoutStore(t *testing.T) {
	ctx := pipeline.NewPipelineContext("a.py", nil, nil)
	ctx = (&LookupProcessor{}).Process(ctx)
	ctx = (&SaveProcessor{}).Process(ctx)
	assert.False(t, ctx.Cached)
}
