package httpx

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Meta is the pagination envelope echoed back on every listing.
type Meta struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// ListResponse is the standard listing payload: rows, page metadata and the
// statistics block computed alongside the query. Error carries the generic
// user-facing message when the listing failed open to an empty page.
type ListResponse struct {
	Data  interface{}            `json:"data"`
	Meta  Meta                   `json:"meta"`
	Stats map[string]interface{} `json:"stats"`
	Error string                 `json:"error,omitempty"`
}

// Created writes the 201 envelope with the resource under its singular key.
func Created(c echo.Context, message, key string, resource interface{}) error {
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": message,
		key:       resource,
	})
}

// OK writes the 200 envelope with the resource under its singular key.
func OK(c echo.Context, message, key string, resource interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		key:       resource,
	})
}

// Deleted writes the soft-delete acknowledgement.
func Deleted(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// Fail translates a domain error into the wire taxonomy: 422 with the
// field->messages map, 404 for missing/foreign-owned rows, 500 with a
// generic message for everything else.
func Fail(c echo.Context, err error) error {
	if ve, ok := AsValidation(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"errors":  ve.Fields,
		})
	}
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Registro não encontrado",
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"success": false,
		"message": "Erro interno. Tente novamente.",
	})
}
