package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := OKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestValidationError(t *testing.T) {
	type TestStruct struct {
		Email  string `validate:"required,email"`
		Code   string `validate:"len=6"`
		Status string `validate:"oneof=active inactive"`
	}

	err := validator.New().Struct(TestStruct{Email: "nope", Code: "123", Status: "gone"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Code must be 6 characters long")
	assert.Contains(t, resp.Error, "field Status must be one of [active inactive]")
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
		wantRetry  bool
	}{
		{
			name:       "business error keeps its status and message",
			err:        fmt.Errorf("session.StartSession: %w", apperrors.ErrAtCapacity),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "at_capacity",
			wantError:  apperrors.ErrAtCapacity.Message,
		},
		{
			name:       "already redeemed",
			err:        apperrors.ErrVoucherAlreadyRedeemed,
			wantStatus: http.StatusConflict,
			wantCode:   "voucher_already_redeemed",
			wantError:  apperrors.ErrVoucherAlreadyRedeemed.Message,
		},
		{
			name:       "store failure is retryable",
			err:        apperrors.Unavailable("voucher.RedeemVoucher", errors.New("conn reset")),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  retryMessage,
			wantRetry:  true,
		},
		{
			name:       "unknown error hides details",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			FromError(rec, req, newNoopLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantError, got.Error)
			assert.Equal(t, tt.wantRetry, rec.Header().Get("Retry-After") != "")
		})
	}
}
