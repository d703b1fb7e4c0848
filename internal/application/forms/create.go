package forms

import (
	"context"
	"sync"

	"stock-admin/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// CreateForm starts from a blank draft and calls Accessor.Create on submit.
type CreateForm[T, D any] struct {
	cfg Config[T, D]

	mu         sync.Mutex
	draft      D
	decodeErrs validation.Errors
	fields     validation.Errors
	err        error
	inFlight   bool
}

// NewCreateForm returns a form seeded with initial.
func NewCreateForm[T, D any](cfg Config[T, D], initial D) *CreateForm[T, D] {
	return &CreateForm[T, D]{cfg: cfg, draft: initial}
}

// Bind decodes submitted fields into the draft. Decode failures surface on the next Submit.
func (f *CreateForm[T, D]) Bind(fields validation.Fields) {
	d, errs := f.cfg.Decode(fields)
	f.mu.Lock()
	f.draft, f.decodeErrs = d, errs
	f.mu.Unlock()
}

// SetDraft replaces the draft.
func (f *CreateForm[T, D]) SetDraft(d D) {
	f.mu.Lock()
	f.draft, f.decodeErrs = d, nil
	f.mu.Unlock()
}

// Submit validates the draft and, when it is valid, creates the record.
// Invalid drafts never reach the network. A failed create keeps the draft.
func (f *CreateForm[T, D]) Submit(ctx context.Context) Result[T] {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return Result[T]{Err: ErrSubmitInFlight}
	}
	draft := f.draft
	errs := validate(f.cfg, draft, f.decodeErrs)
	if len(errs) > 0 {
		f.fields, f.err = errs, nil
		f.mu.Unlock()
		return Result[T]{Fields: errs}
	}
	f.inFlight = true
	f.mu.Unlock()

	rec, err := f.cfg.Accessor.Create(ctx, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("entity", f.cfg.Entity).Msg("create failed")
		if fe := remoteFieldErrors(err); len(fe) > 0 {
			f.fields, f.err = fe, nil
			return Result[T]{Fields: fe}
		}
		f.fields, f.err = nil, err
		return Result[T]{Err: err}
	}
	f.fields, f.err = nil, nil
	if f.cfg.Blank != nil {
		f.draft = f.cfg.Blank()
	}
	return Result[T]{Redirect: f.cfg.listPath(), Record: rec}
}

// View returns the current draft and messages. Create forms always render.
func (f *CreateForm[T, D]) View() View[T, D] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View[T, D]{
		Draft:    f.draft,
		ShowForm: true,
		Fields:   f.fields,
		Err:      f.err,
	}
}
