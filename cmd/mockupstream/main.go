package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/flightdeals/internal/providers"
)

// mockupstream serves the upstream search API from the bundled timetable so
// the deals server can run without the real flight service.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	port := os.Getenv("MOCK_UPSTREAM_PORT")
	if port == "" {
		port = "3001"
	}

	timetable, err := providers.NewDefaultProvider()
	if err != nil {
		slog.Error("failed to load timetable", "error", err)
		os.Exit(1)
	}

	server := providers.NewServer([]providers.Provider{timetable})
	server.Pace = 50 * time.Millisecond
	if pace, err := time.ParseDuration(os.Getenv("MOCK_UPSTREAM_PACE")); err == nil {
		server.Pace = pace
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	server.Register(e)

	slog.Info("starting mock upstream", "port", port)
	if err := e.Start(":" + port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
