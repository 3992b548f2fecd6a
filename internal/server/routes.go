package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appmiddleware "github.com/nfrund/shellbus/internal/middleware"
	"github.com/nfrund/shellbus/internal/topicmgr"
)

// RegisterRoutes sets up all the hub routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/ws", s.handleWebSocket, appmiddleware.RateLimiter(s.rate))

	s.E.GET("/topics", s.listTopics)
	s.E.GET("/topics/conflicts", s.listConflicts)
	s.E.GET("/topics/:name/:version", s.getTopic)

	if s.gatherer != nil {
		s.E.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.E.GET("/healthz", func(c echo.Context) error {
		select {
		case <-s.hub.Done():
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "stopped"})
		default:
		}
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "hub": s.hub.Stats()})
	})
}

func (s *Server) listTopics(c echo.Context) error {
	var list []topicmgr.Topic
	if module := c.QueryParam("module"); module != "" {
		list = s.catalog.ListByModule(module)
	} else if pattern := c.QueryParam("match"); pattern != "" {
		list = s.catalog.FindTopics(pattern)
	} else {
		list = s.catalog.List()
	}

	defs := make([]topicmgr.Definition, 0, len(list))
	for _, t := range list {
		defs = append(defs, topicmgr.Describe(t))
	}
	return c.JSON(http.StatusOK, defs)
}

func (s *Server) getTopic(c echo.Context) error {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "version must be an integer")
	}
	t, err := s.catalog.Require(c.Param("name"), version)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, topicmgr.Describe(t))
}

func (s *Server) listConflicts(c echo.Context) error {
	conflicts := s.catalog.Conflicts()
	if conflicts == nil {
		conflicts = []topicmgr.Conflict{}
	}
	return c.JSON(http.StatusOK, conflicts)
}
