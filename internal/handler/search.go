package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightdeals/internal/filter"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/presentation"
	"github.com/dharmasatrya/flightdeals/internal/search"
)

var filterKinds = []filter.Kind{filter.DepartTime, filter.ReturnTime, filter.DepartDays, filter.ReturnDays}

type SearchHandler struct {
	manager *search.Manager
}

func NewSearchHandler(m *search.Manager) *SearchHandler {
	return &SearchHandler{manager: m}
}

type filterState struct {
	Applied filter.Filters       `json:"applied"`
	Active  map[filter.Kind]bool `json:"active"`
	Visible map[filter.Kind]bool `json:"visible"`
	Sort    models.SortKey       `json:"sort"`
}

type SessionResponse struct {
	search.Status
	View         models.ViewModel   `json:"view"`
	Filters      filterState        `json:"filters"`
	Presentation presentation.State `json:"presentation"`
}

func buildResponse(s *search.Session, sortKey models.SortKey) SessionResponse {
	fc := s.Filters()
	fs := filterState{
		Applied: fc.Filters(),
		Active:  make(map[filter.Kind]bool, len(filterKinds)),
		Visible: make(map[filter.Kind]bool, len(filterKinds)),
		Sort:    fc.Sort(),
	}
	for _, k := range filterKinds {
		fs.Active[k] = fc.Active(k)
		fs.Visible[k] = fc.Visible(k)
	}

	return SessionResponse{
		Status:       s.Status(),
		View:         s.View(sortKey),
		Filters:      fs,
		Presentation: s.Presentation().Snapshot(),
	}
}

// Create submits a new search and returns its session.
func (h *SearchHandler) Create(c echo.Context) error {
	var params models.SearchParams
	if err := c.Bind(&params); err != nil {
		return bindError(c, err)
	}

	s, err := h.manager.Create(params)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, buildResponse(s, ""))
}

// Restart replaces the session's search with new params.
func (h *SearchHandler) Restart(c echo.Context) error {
	var params models.SearchParams
	if err := c.Bind(&params); err != nil {
		return bindError(c, err)
	}

	s, err := h.manager.Restart(c.Param("id"), params)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, buildResponse(s, ""))
}

// Get returns the current results. ?sort= overrides the session sort for
// this response only.
func (h *SearchHandler) Get(c echo.Context) error {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}

	var sortKey models.SortKey
	if q := c.QueryParam("sort"); q != "" {
		sortKey = filter.ParseSortKey(q)
	}
	return c.JSON(http.StatusOK, buildResponse(s, sortKey))
}

func (h *SearchHandler) Delete(c echo.Context) error {
	if err := h.manager.Delete(c.Param("id")); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type filterRequest struct {
	Enabled *bool             `json:"enabled"`
	Range   *filter.HourRange `json:"range"`
	Days    filter.Weekdays   `json:"days"`
}

// SetFilter updates the value and/or the enabled state of one filter.
func (h *SearchHandler) SetFilter(c echo.Context) error {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	kind, err := filter.ParseKind(c.Param("kind"))
	if err != nil {
		return handleError(c, err)
	}

	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}

	fc := s.Filters()
	switch {
	case req.Range != nil:
		err = fc.SetRange(kind, *req.Range)
	case req.Days != nil:
		err = fc.SetDays(kind, req.Days)
	}
	if err != nil {
		return handleError(c, err)
	}
	if req.Enabled != nil {
		if err := fc.Toggle(kind, *req.Enabled); err != nil {
			return handleError(c, err)
		}
	}
	return c.JSON(http.StatusOK, buildResponse(s, ""))
}

type sortRequest struct {
	Sort string `json:"sort"`
}

func (h *SearchHandler) SetSort(c echo.Context) error {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req sortRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	s.Filters().SetSort(filter.ParseSortKey(req.Sort))
	return c.JSON(http.StatusOK, buildResponse(s, ""))
}

type revealRequest struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	FlightID string `json:"flightId"`
}

func (h *SearchHandler) Reveal(c echo.Context) error {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req revealRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if req.Country == "" {
		return respondError(c, http.StatusBadRequest, "validation_error", "country is required")
	}
	s.Presentation().Reveal(req.Country, req.City, req.FlightID)
	return c.JSON(http.StatusOK, s.Presentation().Snapshot())
}

type toggleRequest struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// Toggle expands or collapses a country or a city.
func (h *SearchHandler) Toggle(c echo.Context) error {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	switch {
	case req.City != "":
		s.Presentation().ToggleCity(req.City)
	case req.Country != "":
		s.Presentation().ToggleCountry(req.Country)
	default:
		return respondError(c, http.StatusBadRequest, "validation_error", "country or city is required")
	}
	return c.JSON(http.StatusOK, s.Presentation().Snapshot())
}

type viewportRequest struct {
	Width int `json:"width"`
}

func (h *SearchHandler) Viewport(c echo.Context) error {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req viewportRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	s.Presentation().Resize(req.Width)
	return c.JSON(http.StatusOK, s.Presentation().Snapshot())
}
