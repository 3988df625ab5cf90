package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/share"
)

type shareRequest struct {
	Flight     models.Flight     `json:"flight"`
	Passengers models.Passengers `json:"passengers"`
	MinPrice   float64           `json:"minPrice"`
	MaxPrice   float64           `json:"maxPrice"`
}

type shareResponse struct {
	Token string `json:"token"`
}

func CreateShareHandler(c echo.Context) error {
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if req.Flight.Outbound.Origin == "" || req.Flight.Outbound.DepartureTime == "" {
		return respondError(c, http.StatusBadRequest, "validation_error", "flight outbound leg is required")
	}

	token, err := share.Encode(req.Flight, req.Passengers, req.MinPrice, req.MaxPrice)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	}
	return c.JSON(http.StatusCreated, shareResponse{Token: token})
}

func GetShareHandler(c echo.Context) error {
	ticket, err := share.Decode(c.Param("token"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}
