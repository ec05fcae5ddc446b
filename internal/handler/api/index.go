package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"TrendPull/internal/domain/models"
	xhttp "TrendPull/pkg/http"
	applogger "TrendPull/pkg/logger"
)

// ArtifactProvider exposes the artifact of the most recent successful run.
type ArtifactProvider interface {
	Latest() *models.Artifact
}

// IndexRequest is the query of GET /api/index.
type IndexRequest struct {
	Horizon string `query:"horizon" default:"all" validate:"oneof=all primary extended"`
}

// HorizonView is one horizon of the artifact as parallel arrays.
type HorizonView struct {
	Horizon     string    `json:"horizon"`
	Dates       []string  `json:"dates"`
	Prices      []float64 `json:"btc_prices"`
	TrendIndex  []float64 `json:"trend_index"`
	LastUpdated string    `json:"last_updated"`
	Keywords    []string  `json:"keywords"`
}

// HealthView is the body of GET /api/health.
type HealthView struct {
	Status      string `json:"status"`
	Ready       bool   `json:"ready"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// IndexHandler serves the latest trend index over Echo.
type IndexHandler struct {
	logger   *applogger.Logger
	provider ArtifactProvider
}

func NewIndexHandler(logger *applogger.Logger, provider ArtifactProvider) *IndexHandler {
	return &IndexHandler{logger: logger, provider: provider}
}

func (h *IndexHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/index", h.Index)
	g.GET("/health", h.Health)
}

// Index returns the whole artifact, or a single horizon when asked for one.
func (h *IndexHandler) Index(c echo.Context) error {
	req := &IndexRequest{}
	if verr := xhttp.BindQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	a := h.provider.Latest()
	if a == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("trend index not computed yet"))
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")

	switch req.Horizon {
	case "primary":
		return xhttp.SuccessResponse(c, HorizonView{
			Horizon:     "primary",
			Dates:       a.Dates,
			Prices:      a.Prices,
			TrendIndex:  a.TrendIndex,
			LastUpdated: a.LastUpdated,
			Keywords:    a.Keywords,
		})
	case "extended":
		if !a.HasExtended() {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("extended horizon is disabled"))
		}
		return xhttp.SuccessResponse(c, HorizonView{
			Horizon:     "extended",
			Dates:       a.Dates12m,
			Prices:      a.Prices12m,
			TrendIndex:  a.TrendIndex12m,
			LastUpdated: a.LastUpdated,
			Keywords:    a.Keywords,
		})
	default:
		return xhttp.SuccessResponse(c, a)
	}
}

func (h *IndexHandler) Health(c echo.Context) error {
	a := h.provider.Latest()
	if a == nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, HealthView{Status: "starting"})
	}
	return xhttp.SuccessResponse(c, HealthView{Status: "ok", Ready: true, LastUpdated: a.LastUpdated})
}
