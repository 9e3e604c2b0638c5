package search

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/prontuario/prontuario/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/search/global", h.Global)
}

func (h *Handler) Global(c echo.Context) error {
	res := h.svc.SearchAll(c.Request().Context(), auth.ActorID(c.Request().Context()), c.QueryParam("q"))
	return c.JSON(http.StatusOK, res)
}
