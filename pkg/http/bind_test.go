package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type windowRequest struct {
	Horizon string `query:"horizon" default:"all" validate:"oneof=all primary extended"`
	Limit   int    `query:"limit" default:"10" validate:"gte=1,lte=100"`
}

func contextFor(target string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestBindQueryDefaults(t *testing.T) {
	c, _ := contextFor("/")
	req := &windowRequest{}
	require.Nil(t, BindQuery(c, req))
	assert.Equal(t, "all", req.Horizon)
	assert.Equal(t, 10, req.Limit)
}

func TestBindQueryValidation(t *testing.T) {
	c, _ := contextFor("/?horizon=weekly&limit=500")
	errs := BindQuery(c, &windowRequest{})
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_ONEOF", errs[0].Code)
	assert.Equal(t, []string{"all", "primary", "extended"}, errs[0].Params["options"])
	assert.Equal(t, "ERR_LTE", errs[1].Code)
}

func TestBindQueryTypeMismatch(t *testing.T) {
	c, _ := contextFor("/?limit=many")
	errs := BindQuery(c, &windowRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := contextFor("/")
	require.NoError(t, AppErrorResponse(c, ServiceUnavailableError("not ready")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var env APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)

	c, rec = contextFor("/")
	require.NoError(t, AppErrorResponse(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
