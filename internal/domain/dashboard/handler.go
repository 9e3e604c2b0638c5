package dashboard

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.Stats)
	api.GET("/dashboard/recent-activity", h.RecentActivity)
}

func (h *Handler) Stats(c echo.Context) error {
	stats := h.svc.Stats(c.Request().Context(), auth.ActorID(c.Request().Context()))
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) RecentActivity(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	doctorID := auth.ActorID(c.Request().Context())

	feed, err := h.svc.RecentActivity(c.Request().Context(), doctorID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("recent activity failed")
		return c.JSON(http.StatusOK, []*Activity{})
	}
	return c.JSON(http.StatusOK, feed)
}
