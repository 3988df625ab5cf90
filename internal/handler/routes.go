package handler

import (
	"github.com/labstack/echo/v4"
)

type Routes struct {
	Search      *SearchHandler
	Likes       *LikesHandler
	Upstream    HealthChecker
	SearchLimit echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", HealthHandler)
	if r.Upstream != nil {
		e.GET("/health/upstream", UpstreamHealthHandler(r.Upstream))
	}

	api := e.Group("/api/v1")

	searchMiddleware := []echo.MiddlewareFunc{}
	if r.SearchLimit != nil {
		searchMiddleware = append(searchMiddleware, r.SearchLimit)
	}
	api.POST("/searches", r.Search.Create, searchMiddleware...)
	api.PUT("/searches/:id", r.Search.Restart, searchMiddleware...)
	api.GET("/searches/:id", r.Search.Get)
	api.DELETE("/searches/:id", r.Search.Delete)
	api.PUT("/searches/:id/filters/:kind", r.Search.SetFilter)
	api.PUT("/searches/:id/sort", r.Search.SetSort)
	api.POST("/searches/:id/reveal", r.Search.Reveal)
	api.POST("/searches/:id/toggle", r.Search.Toggle)
	api.POST("/searches/:id/viewport", r.Search.Viewport)

	api.GET("/clients/:client/likes", r.Likes.List)
	api.GET("/clients/:client/likes/:flightId", r.Likes.IsLiked)
	api.PUT("/clients/:client/likes/:flightId", r.Likes.Like)
	api.DELETE("/clients/:client/likes/:flightId", r.Likes.Unlike)
	api.GET("/clients/:client/preferences", r.Likes.GetPreferences)
	api.PUT("/clients/:client/preferences", r.Likes.SavePreferences)

	api.POST("/share", CreateShareHandler)
	api.GET("/share/:token", GetShareHandler)
}
