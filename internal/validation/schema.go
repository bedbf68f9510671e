// Package validation checks partial user input against the canonical shape
// of each entity and reports field-keyed issues.
package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Issue is one validation failure. Path uses json field names, with nested
// elements written as images[0].uri.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error is the failure half of a Result.
type Error struct {
	Issues []Issue `json:"issues"`
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Result is either Success with Data or a non-nil Error.
type Result[T any] struct {
	Success bool
	Data    T
	Error   *Error
}

func failed[T any](issues ...Issue) Result[T] {
	return Result[T]{Error: &Error{Issues: issues}}
}

// Schema validates map input into T. Its field keys and date fields are
// read from T's struct tags once, when the schema is built.
type Schema[T any] struct {
	keys       map[string]struct{}
	dateFields []string
	defaults   map[string]any
}

// NewSchema derives a schema from T's json and validate tags.
func NewSchema[T any](defaults map[string]any) *Schema[T] {
	s := &Schema[T]{keys: make(map[string]struct{}), defaults: defaults}
	s.collect(reflect.TypeOf((*T)(nil)).Elem())
	return s
}

func (s *Schema[T]) collect(t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			s.collect(f.Type)
			continue
		}
		name := jsonName(f)
		if name == "" || !f.IsExported() {
			continue
		}
		s.keys[name] = struct{}{}
		if strings.Contains(f.Tag.Get("validate"), "datetime=") {
			s.dateFields = append(s.dateFields, name)
		}
	}
}

// IsFieldKey reports whether key names a top-level field of T.
func (s *Schema[T]) IsFieldKey(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Keys returns the field keys in sorted order.
func (s *Schema[T]) Keys() []string {
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks input without mutating it. Unknown keys are dropped,
// defaults fill absent keys and date fields are normalised to ISO-8601
// before the tag rules run. Fields with a bad date or a wrong JSON type are
// reported and left out, and the tag rules still run on everything else.
func (s *Schema[T]) Validate(input map[string]any) Result[T] {
	clean := make(map[string]any, len(input)+len(s.defaults))
	for k, v := range input {
		if s.IsFieldKey(k) && v != nil {
			clean[k] = v
		}
	}
	for k, v := range s.defaults {
		if cur, ok := clean[k]; !ok || cur == "" {
			clean[k] = v
		}
	}

	var issues []Issue
	for _, field := range s.dateFields {
		v, ok := clean[field]
		if !ok {
			continue
		}
		normalised, ok := normaliseDate(v)
		switch {
		case !ok:
			issues = append(issues, Issue{Path: field, Message: field + " must be a valid date", Code: "invalid_date"})
			delete(clean, field)
		case normalised == "":
			delete(clean, field)
		default:
			clean[field] = normalised
		}
	}
	for _, key := range s.Keys() {
		v, ok := clean[key]
		if !ok {
			continue
		}
		var single T
		if issue, ok := decode(map[string]any{key: v}, &single); !ok {
			if issue.Path == "" {
				issue.Path = key
			}
			issues = append(issues, issue)
			delete(clean, key)
		}
	}

	var out T
	if issue, ok := decode(clean, &out); !ok {
		return failed[T](append(issues, issue)...)
	}

	rejected := make(map[string]struct{}, len(issues))
	for _, is := range issues {
		rejected[topLevelKey(is.Path)] = struct{}{}
	}
	if err := validate.Struct(&out); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return failed[T](append(issues, Issue{Message: err.Error(), Code: "invalid"})...)
		}
		for _, fe := range fieldErrs {
			path := issuePath(fe.Namespace())
			if _, skip := rejected[topLevelKey(path)]; skip {
				continue
			}
			issues = append(issues, Issue{
				Path:    path,
				Message: message(fe),
				Code:    "validation_" + fe.Tag(),
			})
		}
	}

	if len(issues) > 0 {
		return failed[T](issues...)
	}
	return Result[T]{Success: true, Data: out}
}

// ErrorMap keeps the first message per recognised top-level field.
func (s *Schema[T]) ErrorMap(issues []Issue) map[string]string {
	out := make(map[string]string, len(issues))
	for _, is := range issues {
		key := topLevelKey(is.Path)
		if !s.IsFieldKey(key) {
			continue
		}
		if _, seen := out[key]; !seen {
			out[key] = is.Message
		}
	}
	return out
}

func decode[T any](in map[string]any, out *T) (Issue, bool) {
	raw, err := json.Marshal(in)
	if err != nil {
		return Issue{Message: "input is not serialisable", Code: "invalid_type"}, false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Issue{
				Path:    typeErr.Field,
				Message: typeErr.Field + " must be a " + typeErr.Type.Kind().String(),
				Code:    "invalid_type",
			}, false
		}
		return Issue{Message: err.Error(), Code: "invalid_type"}, false
	}
	return Issue{}, true
}

// issuePath drops the root struct name validator prefixes namespaces with.
func issuePath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func topLevelKey(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// normaliseDate accepts time values or date strings and returns an RFC 3339
// UTC string. An empty string means "no date".
func normaliseDate(v any) (string, bool) {
	switch d := v.(type) {
	case time.Time:
		return formatDate(d), true
	case *time.Time:
		if d == nil {
			return "", true
		}
		return formatDate(*d), true
	case string:
		d = strings.TrimSpace(d)
		if d == "" {
			return "", true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return formatDate(t), true
			}
		}
		return "", false
	default:
		return "", false
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
