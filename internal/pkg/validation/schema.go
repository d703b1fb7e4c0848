package validation

import (
	"fmt"

	"stock-admin/internal/pkg/entity"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

// Schema validates drafts of one entity. Validate never mutates the draft.
type Schema interface {
	Entity() string
	Validate(draft interface{}) Errors
}

type structSchema[T any] struct {
	entity string
	rules  func(d *T) []*ozzo.FieldRules
}

func (s structSchema[T]) Entity() string {
	return s.entity
}

func (s structSchema[T]) Validate(draft interface{}) Errors {
	var d *T
	switch v := draft.(type) {
	case *T:
		d = v
	case T:
		d = &v
	default:
		return Errors{"_": fmt.Sprintf("%s schema cannot validate %T", s.entity, draft)}
	}
	if d == nil {
		return Errors{"_": s.entity + " draft is nil"}
	}
	return fromOzzo(ozzo.ValidateStruct(d, s.rules(d)...))
}

// Registry looks schemas up by entity name.
type Registry struct {
	schemas map[string]Schema
}

func NewRegistry(schemas ...Schema) *Registry {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.Entity()] = s
	}
	return r
}

// Lookup accepts a singular entity name or its collection segment ("stocks").
func (r *Registry) Lookup(name string) (Schema, bool) {
	s, ok := r.schemas[entity.FromRoute(name)]
	return s, ok
}

// Validate runs the schema registered for name against draft.
func (r *Registry) Validate(name string, draft interface{}) (Errors, error) {
	s, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	return s.Validate(draft), nil
}

// Default holds the schemas of every admin entity.
var Default = NewRegistry(StockSchema, OrganizationSchema, UserSchema)
