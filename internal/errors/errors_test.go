package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/KirkDiggler/headsteal/internal/errors"
)

func TestWrap_KeepsInnerCode(t *testing.T) {
	inner := apperr.ResourceExhaustedf("too many abilities running").WithMeta("limit", 10)

	wrapped := apperr.Wrap(inner, "ability rejected")
	assert.True(t, apperr.IsResourceExhausted(wrapped))
	assert.Equal(t, "ability rejected", apperr.GetMessage(wrapped))
	assert.Equal(t, 10, apperr.GetMeta(wrapped)["limit"])
	assert.Equal(t, "ability rejected: too many abilities running", wrapped.Error())

	wrapped.WithMeta("player_id", "p1")
	assert.NotContains(t, apperr.GetMeta(inner), "player_id")
}

func TestWrap_PlainErrorIsUnknown(t *testing.T) {
	wrapped := apperr.Wrap(errors.New("disk full"), "failed to persist")
	assert.Equal(t, apperr.CodeUnknown, apperr.GetCode(wrapped))
	assert.True(t, errors.Is(wrapped, wrapped.Cause))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, apperr.Wrap(nil, "x"))
	assert.Nil(t, apperr.WrapWithCode(nil, apperr.CodeInternal, "x"))
}

func TestWrapWithCode_OverridesCode(t *testing.T) {
	cause := apperr.FailedPreconditionf("No valid target found!")
	failed := apperr.WrapWithCode(cause, apperr.CodeInternal, "ability failed")

	assert.True(t, apperr.Is(failed, apperr.CodeInternal))
	assert.False(t, apperr.Is(failed, apperr.CodeFailedPrecondition))
	assert.Equal(t, "No valid target found!", apperr.GetMessage(failed.Cause))

	var inner *apperr.Error
	require.True(t, errors.As(failed.Cause, &inner))
	assert.Equal(t, apperr.CodeFailedPrecondition, inner.Code)
}

func TestIs_ThroughStdlibWrapping(t *testing.T) {
	err := fmt.Errorf("loading: %w", apperr.NotFoundf("record %s", "p1"))
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "record p1", apperr.GetMessage(err))
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperr.Code
	}{
		{"invalid argument", apperr.InvalidArgument("bad"), apperr.CodeInvalidArgument},
		{"invalid argument f", apperr.InvalidArgumentf("bad %s", "frame"), apperr.CodeInvalidArgument},
		{"permission denied", apperr.PermissionDeniedf("no %s", "access"), apperr.CodePermissionDenied},
		{"unavailable", apperr.Unavailable("not ready"), apperr.CodeUnavailable},
		{"internal", apperr.Internalf("boom"), apperr.CodeInternal},
		{"validation", apperr.Validationf("bad %d", 1), apperr.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, apperr.GetCode(tt.err))
		})
	}

	assert.True(t, apperr.IsPermissionDenied(apperr.PermissionDeniedf("x")))
	assert.True(t, apperr.IsValidation(apperr.Validationf("x")))
}

func TestPlainErrors(t *testing.T) {
	plain := errors.New("plain")
	assert.Equal(t, apperr.CodeUnknown, apperr.GetCode(plain))
	assert.Equal(t, "plain", apperr.GetMessage(plain))
	assert.Nil(t, apperr.GetMeta(plain))
	assert.Empty(t, apperr.GetMessage(nil))
	assert.False(t, apperr.Is(nil, apperr.CodeInternal))
}
