package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightdeals/internal/likes"
	"github.com/dharmasatrya/flightdeals/internal/models"
)

type LikesHandler struct {
	likes *likes.Service
}

func NewLikesHandler(svc *likes.Service) *LikesHandler {
	return &LikesHandler{likes: svc}
}

func (h *LikesHandler) List(c echo.Context) error {
	flights, err := h.likes.List(c.Request().Context(), c.Param("client"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, flights)
}

// Like stores the flight in the body. The :flightId path segment must match
// the flight's own id.
func (h *LikesHandler) Like(c echo.Context) error {
	var f models.Flight
	if err := c.Bind(&f); err != nil {
		return bindError(c, err)
	}
	if f.ID() != flightIDParam(c) {
		return respondError(c, http.StatusBadRequest, "validation_error", "flight id does not match body")
	}

	if err := h.likes.Like(c.Request().Context(), c.Param("client"), f); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type likedResponse struct {
	Liked bool `json:"liked"`
}

func (h *LikesHandler) IsLiked(c echo.Context) error {
	liked, err := h.likes.IsLiked(c.Request().Context(), c.Param("client"), flightIDParam(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, likedResponse{Liked: liked})
}

func (h *LikesHandler) Unlike(c echo.Context) error {
	if err := h.likes.Unlike(c.Request().Context(), c.Param("client"), flightIDParam(c)); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LikesHandler) GetPreferences(c echo.Context) error {
	p, err := h.likes.Preferences(c.Request().Context(), c.Param("client"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *LikesHandler) SavePreferences(c echo.Context) error {
	var p models.SearchParams
	if err := c.Bind(&p); err != nil {
		return bindError(c, err)
	}
	if err := h.likes.SavePreferences(c.Request().Context(), c.Param("client"), p); err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// flightIDParam unescapes the flight id, which carries a timestamp with ':'
// and '+'.
func flightIDParam(c echo.Context) string {
	raw := c.Param("flightId")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
