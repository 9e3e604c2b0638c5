package patient

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
	api.GET("/patients", h.List)
	api.POST("/patients", h.Create)
	api.GET("/patients/search/quick", h.QuickSearch)
	api.GET("/patients/:id", h.Get)
	api.PUT("/patients/:id", h.Update)
	api.PATCH("/patients/:id", h.Update)
	api.DELETE("/patients/:id", h.Delete)
	api.PATCH("/patients/:id/favorite", h.ToggleFavorite)
}

func (h *Handler) List(c echo.Context) error {
	doctorID := auth.ActorID(c.Request().Context())
	pg := pagination.FromContext(c)
	params := listing.ExtractParams(c)

	items, total, stats, err := h.svc.List(c.Request().Context(), doctorID, params, pg.PerPage, pg.Offset())
	if err != nil {
		// Listing fails open: the page stays renderable with an empty
		// result set and zeroed statistics.
		h.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("patient listing failed")
		return c.JSON(http.StatusOK, httpx.ListResponse{
			Data:  []*Patient{},
			Meta:  httpx.Meta{Total: 0, Page: pg.Page, PerPage: pg.PerPage},
			Stats: EmptyStats(),
			Error: "Não foi possível carregar os pacientes",
		})
	}
	if items == nil {
		items = []*Patient{}
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
	p, err := h.svc.Create(c.Request().Context(), auth.ActorID(c.Request().Context()), &in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.Created(c, "Paciente cadastrado com sucesso", "patient", p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	p, err := h.svc.Get(c.Request().Context(), auth.ActorID(c.Request().Context()), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
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
	p, err := h.svc.Update(c.Request().Context(), auth.ActorID(c.Request().Context()), id, &in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, "Paciente atualizado com sucesso", "patient", p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	if err := h.svc.Delete(c.Request().Context(), auth.ActorID(c.Request().Context()), id); err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.Deleted(c, "Paciente removido com sucesso")
}

func (h *Handler) ToggleFavorite(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.Fail(c, httpx.ErrNotFound)
	}
	p, err := h.svc.ToggleFavorite(c.Request().Context(), auth.ActorID(c.Request().Context()), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return httpx.OK(c, "Favorito atualizado", "patient", p)
}

func (h *Handler) QuickSearch(c echo.Context) error {
	items, err := h.svc.QuickSearch(c.Request().Context(), auth.ActorID(c.Request().Context()), c.QueryParam("q"), 10)
	if err != nil {
		h.logger.Error().Err(err).Msg("patient quick search failed")
		return c.JSON(http.StatusOK, []*Summary{})
	}
	if items == nil {
		items = []*Summary{}
	}
	return c.JSON(http.StatusOK, items)
}
