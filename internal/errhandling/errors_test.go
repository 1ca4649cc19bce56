package errhandling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"
)

func TestClassifyError_Nil(t *testing.T) {
	if got := ClassifyError(nil); got != nil {
		t.Errorf("expected nil for nil error, got %v", got)
	}
}

func TestClassifyError_Categories(t *testing.T) {
	jsonErr := func() error {
		var v interface{}
		return json.Unmarshal([]byte("{not json"), &v)
	}()

	tests := []struct {
		name          string
		err           error
		wantCategory  ErrorCategory
		wantRetryable bool
	}{
		{
			name:          "context canceled",
			err:           context.Canceled,
			wantCategory:  CategoryCanceled,
			wantRetryable: false,
		},
		{
			name:          "deadline exceeded",
			err:           context.DeadlineExceeded,
			wantCategory:  CategoryCanceled,
			wantRetryable: false,
		},
		{
			name:          "missing file",
			err:           &os.PathError{Op: "open", Path: "x.root", Err: fs.ErrNotExist},
			wantCategory:  CategoryIO,
			wantRetryable: false,
		},
		{
			name:          "permission denied",
			err:           &os.PathError{Op: "open", Path: "x.root", Err: fs.ErrPermission},
			wantCategory:  CategoryIO,
			wantRetryable: false,
		},
		{
			name:          "transient path error",
			err:           &os.PathError{Op: "read", Path: "x.root", Err: errors.New("input/output error")},
			wantCategory:  CategoryIO,
			wantRetryable: true,
		},
		{
			name:          "json syntax error",
			err:           jsonErr,
			wantCategory:  CategoryDecode,
			wantRetryable: false,
		},
		{
			name:          "unknown error",
			err:           errors.New("something odd"),
			wantCategory:  CategoryUnknown,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Category != tt.wantCategory {
				t.Errorf("category = %v, want %v", got.Category, tt.wantCategory)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestClassifyError_AlreadyClassified(t *testing.T) {
	orig := NewValidationError("bad config")
	wrapped := fmt.Errorf("creating module: %w", orig)

	got := ClassifyError(wrapped)
	if got.Category != CategoryValidation {
		t.Errorf("expected wrapped validation error to keep category, got %v", got.Category)
	}
	if got.Retryable {
		t.Error("expected validation error to stay fatal")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("field %q is bad", "minPt")

	if err.Category != CategoryValidation {
		t.Errorf("expected validation category, got %v", err.Category)
	}
	if err.Retryable {
		t.Error("expected validation error to be fatal")
	}
	if err.Error() != `validation error: field "minPt" is bad` {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestIsRetryableAndIsFatal(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error must not be retryable")
	}
	if IsFatal(nil) {
		t.Error("nil error must not be fatal")
	}

	transient := errors.New("transient")
	if !IsRetryable(transient) {
		t.Error("unknown error should be retryable")
	}
	if IsFatal(transient) {
		t.Error("unknown error should not be fatal")
	}

	fatal := NewValidationError("nope")
	if IsRetryable(fatal) {
		t.Error("validation error should not be retryable")
	}
	if !IsFatal(fatal) {
		t.Error("validation error should be fatal")
	}
}

func TestClassifiedError_Unwrap(t *testing.T) {
	underlying := fs.ErrNotExist
	classified := ClassifyError(&os.PathError{Op: "open", Path: "x", Err: underlying})

	if !errors.Is(classified, fs.ErrNotExist) {
		t.Error("expected classified error to unwrap to the original")
	}
}
