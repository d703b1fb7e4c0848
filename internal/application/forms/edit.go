package forms

import (
	"context"
	"sync"

	"stock-admin/internal/infrastructure/cache"
	"stock-admin/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// EditForm loads a record by id, then calls Accessor.Update on submit.
type EditForm[T, D any] struct {
	cfg   Config[T, D]
	id    string
	store cache.Store

	mu         sync.Mutex
	started    bool
	done       chan struct{}
	stale      bool
	record     *T
	draft      D
	loadErr    error
	decodeErrs validation.Errors
	fields     validation.Errors
	submitErr  error
	inFlight   bool
}

// NewEditForm returns a form for the record id. store may be nil.
func NewEditForm[T, D any](cfg Config[T, D], store cache.Store, id string) *EditForm[T, D] {
	return &EditForm[T, D]{cfg: cfg, id: id, store: store, done: make(chan struct{})}
}

func (f *EditForm[T, D]) ID() string {
	return f.id
}

func (f *EditForm[T, D]) cacheKey() string {
	return cache.Key(f.cfg.Entity, f.id)
}

// Start shows any cached copy and fetches the record in the background.
// Calling Start again has no effect.
func (f *EditForm[T, D]) Start(ctx context.Context) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.mu.Unlock()

	if f.store != nil {
		var cached T
		if ok, err := f.store.Get(ctx, f.cacheKey(), &cached); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("key", f.cacheKey()).Msg("cache read failed")
		} else if ok {
			f.mu.Lock()
			if f.record == nil {
				f.record = &cached
				f.draft = f.cfg.ToDraft(&cached)
				f.stale = true
			}
			f.mu.Unlock()
		}
	}

	go func() {
		defer close(f.done)
		rec, err := f.cfg.Accessor.Fetch(ctx, f.id)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.stale = false
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("entity", f.cfg.Entity).Str("id", f.id).Msg("fetch failed")
			f.loadErr = err
			return
		}
		f.record = rec
		f.draft = f.cfg.ToDraft(rec)
	}()
}

// Wait blocks until the fetch started by Start settles or ctx ends.
func (f *EditForm[T, D]) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load starts the fetch and waits for it. It returns the fetch error, if any.
func (f *EditForm[T, D]) Load(ctx context.Context) error {
	f.Start(ctx)
	if err := f.Wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadErr
}

// Bind decodes submitted fields into the draft. Decode failures surface on the next Submit.
func (f *EditForm[T, D]) Bind(fields validation.Fields) {
	d, errs := f.cfg.Decode(fields)
	f.mu.Lock()
	f.draft, f.decodeErrs = d, errs
	f.mu.Unlock()
}

// SetDraft replaces the draft.
func (f *EditForm[T, D]) SetDraft(d D) {
	f.mu.Lock()
	f.draft, f.decodeErrs = d, nil
	f.mu.Unlock()
}

// Submit validates the draft and updates the record. On success the returned record
// replaces the cache entry for the id and the draft is cleared. On failure the loaded
// record stays in place.
func (f *EditForm[T, D]) Submit(ctx context.Context) Result[T] {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return Result[T]{Err: ErrSubmitInFlight}
	}
	if f.record == nil {
		f.mu.Unlock()
		return Result[T]{Err: ErrNotLoaded}
	}
	draft := f.draft
	errs := validate(f.cfg, draft, f.decodeErrs)
	if len(errs) > 0 {
		f.fields, f.submitErr = errs, nil
		f.mu.Unlock()
		return Result[T]{Fields: errs}
	}
	f.inFlight = true
	f.mu.Unlock()

	rec, err := f.cfg.Accessor.Update(ctx, f.id, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("entity", f.cfg.Entity).Str("id", f.id).Msg("update failed")
		if fe := remoteFieldErrors(err); len(fe) > 0 {
			f.fields, f.submitErr = fe, nil
			return Result[T]{Fields: fe}
		}
		f.fields, f.submitErr = nil, err
		return Result[T]{Err: err}
	}

	if f.store != nil {
		if cerr := f.store.Set(ctx, f.cacheKey(), rec); cerr != nil {
			log.Ctx(ctx).Warn().Err(cerr).Str("key", f.cacheKey()).Msg("cache write failed")
		}
	}
	f.record = rec
	f.fields, f.submitErr = nil, nil
	if f.cfg.Blank != nil {
		f.draft = f.cfg.Blank()
	}
	return Result[T]{Redirect: f.cfg.listPath(), Record: rec}
}

// View reports the render state. A failed fetch shows only the error; a pending fetch
// with nothing cached shows the loading state.
func (f *EditForm[T, D]) View() View[T, D] {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View[T, D]{
		Draft:  f.draft,
		Record: f.record,
		Stale:  f.stale,
		Fields: f.fields,
	}
	switch {
	case f.loadErr != nil:
		v.Err = f.loadErr
	case f.record == nil:
		v.Loading = true
	default:
		v.ShowForm = true
		v.Err = f.submitErr
	}
	return v
}
