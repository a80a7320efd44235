package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{"validation code", ErrCodeMissingPath, CategoryValidation, SeverityError},
		{"schema version is fatal", ErrCodeSchemaVersion, CategoryValidation, SeverityFatal},
		{"unknown relation is warning", ErrCodeUnknownRelation, CategoryValidation, SeverityWarning},
		{"internal code", ErrCodeInternal, CategoryInternal, SeverityError},
		{"garbage code falls back to internal", "bogus", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestError_FormatAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := New(ErrCodeInvalidReference, "bad reference", cause)

	assert.Equal(t, "[ERR_401_INVALID_REFERENCE] bad reference", err.Error())
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := ValidationError("missing path", nil)
	target := &Error{Code: ErrCodeInvalidReference}

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, &Error{Code: ErrCodeInternal}))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))

	wrapped := Wrap(ErrCodeIndexFailed, fmt.Errorf("downstream"))
	require.NotNil(t, wrapped)
	assert.Equal(t, "downstream", wrapped.Message)
	assert.Equal(t, ErrCodeIndexFailed, GetCode(wrapped))
}

func TestWithDetail(t *testing.T) {
	err := InternalError("boom", nil).
		WithDetail("reference_id", "function:a.ts:f:1").
		WithDetail("stage", "indexing-metadata")

	assert.Equal(t, "function:a.ts:f:1", err.Details["reference_id"])
	assert.Equal(t, "indexing-metadata", err.Details["stage"])
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(fmt.Errorf("plain")))
	assert.False(t, IsFatal(ValidationError("x", nil)))
	assert.True(t, IsFatal(New(ErrCodeSchemaVersion, "mismatch", nil)))
}

func TestGetCategory(t *testing.T) {
	assert.Equal(t, CategoryValidation, GetCategory(ValidationError("x", nil)))
	assert.Equal(t, Category(""), GetCategory(fmt.Errorf("plain")))
}
