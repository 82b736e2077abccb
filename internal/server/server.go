// Package server exposes evaluation reports over HTTP for browsing.
package server

import (
	"bytes"
	_ "embed"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/report"
)

//go:embed static/index.html
var indexHTML []byte

type Server struct {
	store *ReportStore
	log   logger.Logger
}

func NewServer(store *ReportStore, log logger.Logger) *Server {
	if store == nil {
		store = NewReportStore()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{store: store, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/", s.handleIndex)
	e.GET("/healthz", s.handleHealth)
	e.GET("/api/reports", s.handleListReports)
	e.GET("/api/reports/:id", s.handleGetReport)
	e.GET("/api/reports/:id/plot.svg", s.handlePlot)
}

func (s *Server) handleIndex(c *echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"reports": s.store.Len(),
	})
}

func (s *Server) handleListReports(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   s.store.List(),
	})
}

func (s *Server) handleGetReport(c *echo.Context) error {
	r, err := s.lookup(c)
	if err != nil || r == nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) handlePlot(c *echo.Context) error {
	r, err := s.lookup(c)
	if err != nil || r == nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.WriteSVG(&buf, r); err != nil {
		s.log.Error("render plot", "id", r.ID, "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", "failed to render plot")
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// lookup resolves the :id parameter. When it returns a nil report the
// error response has already been written.
func (s *Server) lookup(c *echo.Context) (*report.Report, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, writeBadRequest(c, "invalid report id")
	}
	r, ok := s.store.Get(id)
	if !ok {
		return nil, writeNotFound(c, "report not found")
	}
	return r, nil
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": apiError{Message: msg, Type: errType},
	})
}
