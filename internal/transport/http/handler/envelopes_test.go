package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-auth-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		errType string
	}{
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("x: %w", domain.ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("x: %w", domain.ErrUnauthorized), http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("x: %w", domain.ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("x: %w", domain.ErrBadRequest), http.StatusBadRequest, "BAD_REQUEST"},
		{fmt.Errorf("x: %w", domain.ErrRequestTimeout), http.StatusRequestTimeout, "REQUEST_TIMEOUT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, c := range cases {
		status, errType := classify(c.err)
		assert.Equal(t, c.status, status, c.err.Error())
		assert.Equal(t, c.errType, errType, c.err.Error())
	}
}

func TestWriteError_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, fmt.Errorf("verification code expired: %w", domain.ErrRequestTimeout))

	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "REQUEST_TIMEOUT", env.Error.Type)
	assert.Contains(t, env.Message, "verification code expired")
	assert.NotEmpty(t, env.ErrorID)
	assert.NotEmpty(t, env.Timestamp)
}

func TestWriteError_ProductionMasksInternals(t *testing.T) {
	SetProduction(true)
	defer SetProduction(false)

	rr := httptest.NewRecorder()
	writeError(rr, errors.New("dynamodb endpoint leaked secret"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.NotContains(t, env.Message, "secret")
	assert.Equal(t, "INTERNAL", env.Error.Type)
}

func TestWriteError_ProductionKeepsClientErrors(t *testing.T) {
	SetProduction(true)
	defer SetProduction(false)

	rr := httptest.NewRecorder()
	writeError(rr, fmt.Errorf("no account with this email: %w", domain.ErrNotFound))

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Contains(t, env.Message, "no account with this email")
}
