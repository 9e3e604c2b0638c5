package anamnesis

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/auth"
	"github.com/prontuario/prontuario/internal/platform/httpx"
	"github.com/prontuario/prontuario/internal/platform/listing"
	"github.com/prontuario/prontuario/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/anamneses", h.List)
	api.POST("/anamneses", h.Create)
	api.GET("/anamneses/search/quick", h.QuickSearch)
	api.GET("/anamneses/template/:patientId", h.Template)
	api.GET("/anamneses/:id", h.Get)
	api.PUT("/anamneses/:id", h.Update)
	api.PATCH("/anamneses/:id", h.Update)
	api.DELETE("/anamneses/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	doctorID := auth.ActorID(c.Request().Context())
	pg := pagination.FromContext(c)
	params := listing.ExtractParams(c)

	items, total, stats, err := h.svc.List(c.Request().Context(), doctorID, params, pg.PerPage, pg.Offset())
	if err != nil {
		h.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("anamnesis listing failed")
		return c.JSON(http.StatusOK, httpx.ListResponse{
			Data:  []*Anamnesis{},
			Meta:  httpx.Meta{Total: 0, Page: pg.Page, PerPage: pg.PerPage},
			Stats: EmptyStats(),
			Error: "Não foi possível carregar as anamneses",
		})
	}
	if items == nil {
		items = []*Anamnesis{}
	}
	return c.JSON(http.StatusOK, httpx.ListResponse{
		Data:  items,
		Meta:  httpx.Meta{Total: total, Page: pg.Page, PerPage: pg.PerPage},
		Stats: stats,
	})
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Create(c.Request().Context(), auth.ActorID(c.Request().Context()), &in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.Created(c, "Anamnese registrada com sucesso", "anamnesis", a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	a, err := h.svc.Get(c.Request().Context(), auth.ActorID(c.Request().Context()), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), auth.ActorID(c.Request().Context()), id, &in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, "Anamnese atualizada com sucesso", "anamnesis", a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	if err := h.svc.Delete(c.Request().Context(), auth.ActorID(c.Request().Context()), id); err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.Deleted(c, "Anamnese removida com sucesso")
}

func (h *Handler) Template(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	tpl, err := h.svc.TemplateFor(c.Request().Context(), auth.ActorID(c.Request().Context()), patientID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(http.StatusOK, tpl)
}

func (h *Handler) QuickSearch(c echo.Context) error {
	items, err := h.svc.QuickSearch(c.Request().Context(), auth.ActorID(c.Request().Context()), c.QueryParam("q"), 10)
	if err != nil {
		h.logger.Error().Err(err).Msg("anamnesis quick search failed")
		return c.JSON(http.StatusOK, []*Summary{})
	}
	if items == nil {
		items = []*Summary{}
	}
	return c.JSON(http.StatusOK, items)
}
