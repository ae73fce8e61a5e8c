package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "api error",
			err:        NewInternalError("Error processing settlement data", errors.New("db down")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"Error processing settlement data","error":"db down"}`,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("handler: %w", NewNotFoundError("job", "j1")),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"job not found","error":"j1"}`,
		},
		{
			name:       "echo http error",
			err:        echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `{"message":"Request Entity Too Large"}`,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"An unexpected error occurred","error":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "Error uploading file: bad boundary", NewInternalError("Error uploading file", errors.New("bad boundary")).Error())
	assert.Equal(t, "bad input", NewBadRequestError("bad input", nil).Error())
}
