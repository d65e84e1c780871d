package target

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE []byte

// ValidationError reports a target that does not satisfy the schema.
type ValidationError struct {
	Source string   // file path or "<inline>"
	Issues []string // one entry per CUE error, with its field path
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid target %s: %s", e.Source, e.Issues[0])
	}
	return fmt.Sprintf("invalid target %s: %d issues, first: %s", e.Source, len(e.Issues), e.Issues[0])
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validator checks target values against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling target schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate unifies t with #Target and reports every violation.
func (v *Validator) Validate(source string, t *Target) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling target: %w", err)
	}

	value := v.ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return fmt.Errorf("compiling target as CUE: %w", err)
	}

	def := v.schema.LookupPath(cue.ParsePath("#Target"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("looking up #Target: %w", err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		ve := &ValidationError{Source: source}
		for _, e := range cueerrors.Errors(err) {
			ve.Issues = append(ve.Issues, formatIssue(e))
		}
		if len(ve.Issues) == 0 {
			ve.Issues = []string{err.Error()}
		}
		return ve
	}
	return nil
}

// formatIssue renders a CUE error as "field.path: message".
func formatIssue(e cueerrors.Error) string {
	format, args := e.Msg()
	msg := fmt.Sprintf(format, args...)
	if path := e.Path(); len(path) > 0 {
		return strings.Join(path, ".") + ": " + msg
	}
	return msg
}

// Parse decodes a YAML target and validates it.
// Unknown fields are rejected by both the YAML decoder and the schema.
func Parse(source string, data []byte) (*Target, error) {
	var t Target
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse target %s: %w", source, err)
	}

	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if err := v.Validate(source, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads and validates a YAML target file.
func LoadFile(path string) (*Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}
	return Parse(path, data)
}

// Resolve returns the target from a file when path is set, otherwise the
// named preset (the default preset when name is empty).
func Resolve(name, path string) (*Target, error) {
	if path != "" {
		return LoadFile(path)
	}
	if name == "" {
		name = DefaultName
	}
	return Preset(name)
}
