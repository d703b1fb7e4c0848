// Package forms drives record create and edit pages: it holds the draft, validates it
// against the entity schema, submits it through an Accessor and reports where to go next.
package forms

import (
	"context"
	"errors"

	"stock-admin/internal/client"
	"stock-admin/internal/pkg/entity"
	"stock-admin/internal/pkg/validation"
)

var (
	// ErrSubmitInFlight is returned when a submit starts while another is still pending.
	ErrSubmitInFlight = errors.New("forms: a submit is already in flight")
	// ErrNotLoaded is returned when an edit form is submitted before its record loaded.
	ErrNotLoaded = errors.New("forms: record not loaded")
)

// Accessor performs the network calls behind a form. T is the record, D its draft.
type Accessor[T, D any] interface {
	Create(ctx context.Context, draft D) (*T, error)
	Fetch(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, draft D) (*T, error)
}

// Config describes one entity's form.
type Config[T, D any] struct {
	// Entity is the singular entity name ("stock").
	Entity   string
	Schema   validation.Schema
	Accessor Accessor[T, D]
	// Decode turns submitted fields into a draft, reporting type failures per field.
	Decode func(validation.Fields) (D, validation.Errors)
	// Blank is the draft a form is reset to after a successful submit.
	Blank func() D
	// ToDraft copies the editable fields of a loaded record.
	ToDraft func(*T) D
	// ListPath is the redirect target after success. Defaults to the collection listing.
	ListPath string
}

func (c Config[T, D]) listPath() string {
	if c.ListPath != "" {
		return c.ListPath
	}
	return "/" + entity.Collection(c.Entity)
}

// Result is the outcome of Submit. Exactly one of Fields, Err or Redirect is set.
type Result[T any] struct {
	Fields   validation.Errors
	Err      error
	Redirect string
	Record   *T
}

// OK reports whether the submit succeeded.
func (r Result[T]) OK() bool {
	return r.Redirect != ""
}

// View is what a page renders.
type View[T, D any] struct {
	Draft D
	// Record is the loaded record (edit only).
	Record *T
	// Loading is true while the first fetch is pending with nothing to show.
	Loading bool
	// Stale is true when Record came from the cache and a fetch is still pending.
	Stale    bool
	ShowForm bool
	Fields   validation.Errors
	Err      error
}

// validate merges decode failures with schema failures, decode messages first.
func validate[T, D any](cfg Config[T, D], draft D, decodeErrs validation.Errors) validation.Errors {
	errs := validation.Errors{}.Merge(decodeErrs)
	if cfg.Schema != nil {
		errs = errs.Merge(cfg.Schema.Validate(draft))
	}
	return errs
}

// remoteFieldErrors pulls server-side field messages out of a 422.
func remoteFieldErrors(err error) validation.Errors {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.FieldErrors()
	}
	return nil
}
