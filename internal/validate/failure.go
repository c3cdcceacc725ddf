package validate

import (
	"errors"
	"fmt"

	"github.com/spigell/talentscout/internal/candidate"
)

// Reason classifies why a field was rejected.
type Reason string

const (
	ReasonFormat   Reason = "format"
	ReasonRange    Reason = "range"
	ReasonSemantic Reason = "semantic"
	ReasonExternal Reason = "external-lookup-failed"
)

// Failure is returned for rejected input. Hint is safe to show to the
// candidate, Err is for logs only.
type Failure struct {
	Field  candidate.Field
	Reason Reason
	Hint   string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Field, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(field candidate.Field, reason Reason, err error) *Failure {
	return &Failure{Field: field, Reason: reason, Err: err}
}

func failf(field candidate.Field, reason Reason, format string, args ...any) *Failure {
	return fail(field, reason, fmt.Errorf(format, args...))
}

// AsFailure unwraps err into a *Failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
