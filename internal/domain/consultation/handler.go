package consultation

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
	api.GET("/consultations", h.List)
	api.POST("/consultations", h.Create)
	api.GET("/consultations/search/quick", h.QuickSearch)
	api.GET("/consultations/filter/today", h.Today)
	api.GET("/consultations/filter/upcoming", h.Upcoming)
	api.GET("/consultations/:id", h.Get)
	api.PUT("/consultations/:id", h.Update)
	api.PATCH("/consultations/:id", h.Update)
	api.DELETE("/consultations/:id", h.Delete)
	api.PATCH("/consultations/:id/status", h.UpdateStatus)
}

func (h *Handler) List(c echo.Context) error {
	doctorID := auth.ActorID(c.Request().Context())
	pg := pagination.FromContext(c)
	params := listing.ExtractParams(c)

	items, total, stats, err := h.svc.List(c.Request().Context(), doctorID, params, pg.PerPage, pg.Offset())
	if err != nil {
		h.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("consultation listing failed")
		return c.JSON(http.StatusOK, httpx.ListResponse{
			Data:  []*Consultation{},
			Meta:  httpx.Meta{Total: 0, Page: pg.Page, PerPage: pg.PerPage},
			Stats: EmptyStats(),
			Error: "Não foi possível carregar as consultas",
		})
	}
	if items == nil {
		items = []*Consultation{}
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
	cons, err := h.svc.Create(c.Request().Context(), auth.ActorID(c.Request().Context()), &in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.Created(c, "Consulta agendada com sucesso", "consultation", cons)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	cons, err := h.svc.Get(c.Request().Context(), auth.ActorID(c.Request().Context()), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(http.StatusOK, cons)
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
	cons, err := h.svc.Update(c.Request().Context(), auth.ActorID(c.Request().Context()), id, &in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, "Consulta atualizada com sucesso", "consultation", cons)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cons, err := h.svc.UpdateStatus(c.Request().Context(), auth.ActorID(c.Request().Context()), id, body.Status)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, "Status atualizado com sucesso", "consultation", cons)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	if err := h.svc.Delete(c.Request().Context(), auth.ActorID(c.Request().Context()), id); err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.Deleted(c, "Consulta removida com sucesso")
}

func (h *Handler) Today(c echo.Context) error {
	items, err := h.svc.Today(c.Request().Context(), auth.ActorID(c.Request().Context()))
	if err != nil {
		h.logger.Error().Err(err).Msg("today listing failed")
		return c.JSON(http.StatusOK, []*Consultation{})
	}
	if items == nil {
		items = []*Consultation{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Upcoming(c echo.Context) error {
	items, err := h.svc.Upcoming(c.Request().Context(), auth.ActorID(c.Request().Context()), 10)
	if err != nil {
		h.logger.Error().Err(err).Msg("upcoming listing failed")
		return c.JSON(http.StatusOK, []*Consultation{})
	}
	if items == nil {
		items = []*Consultation{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) QuickSearch(c echo.Context) error {
	items, err := h.svc.QuickSearch(c.Request().Context(), auth.ActorID(c.Request().Context()), c.QueryParam("q"), 10)
	if err != nil {
		h.logger.Error().Err(err).Msg("consultation quick search failed")
		return c.JSON(http.StatusOK, []*Summary{})
	}
	if items == nil {
		items = []*Summary{}
	}
	return c.JSON(http.StatusOK, items)
}
