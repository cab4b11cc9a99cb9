// Package server exposes one open archive over HTTP.
package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/hapi/internal/logger"
	"github.com/samcharles93/hapi/pkg/hapi"
)

type Server struct {
	archive *hapi.Archive
	name    string
	id      string
	files   int
	log     logger.Logger
}

// NewServer serves a. name is reported to clients and is usually the
// archive's file name.
func NewServer(a *hapi.Archive, name string, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	var files int
	_ = a.Walk(func(e hapi.Entry) error {
		if _, ok := e.(*hapi.File); ok {
			files++
		}
		return nil
	})
	return &Server{
		archive: a,
		name:    name,
		id:      "archive_" + uuid.NewString(),
		files:   files,
		log:     log,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/archive", s.handleArchive)
	e.GET("/v1/entries", s.handleEntry)
	e.GET("/v1/entries/*", s.handleEntry)
	e.GET("/v1/files/*", s.handleFile)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleArchive(c *echo.Context) error {
	depth, err := depthParam(c, -1)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	}
	return c.JSON(http.StatusOK, ArchiveInfo{
		ID:     s.id,
		Object: "archive",
		Name:   s.name,
		Header: NewHeaderInfo(s.archive.Header()),
		Files:  s.files,
		Root:   NewEntryInfo(s.archive.Root(), depth),
	})
}

func (s *Server) handleEntry(c *echo.Context) error {
	depth, err := depthParam(c, 1)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	}
	e, err := s.archive.Lookup(c.Param("*"))
	if err != nil {
		return writeArchiveError(c, err)
	}
	return c.JSON(http.StatusOK, NewEntryInfo(e, depth))
}

func (s *Server) handleFile(c *echo.Context) error {
	p := c.Param("*")
	e, err := s.archive.Lookup(p)
	if err != nil {
		return writeArchiveError(c, err)
	}
	f, ok := e.(*hapi.File)
	if !ok {
		return writeArchiveError(c, fmt.Errorf("%w: %s", ErrNotAFile, e.Path()))
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Name()))

	w := &deferredWriter{w: res}
	if err := s.archive.WriteFile(f, w); err != nil {
		if !w.started {
			res.Header().Del(echo.HeaderContentDisposition)
			return writeArchiveError(c, err)
		}
		// Headers are gone; all that is left is to cut the body short.
		s.log.Error("file stream failed", "path", f.Path(), "error", err)
		return nil
	}
	if !w.started {
		res.WriteHeader(http.StatusOK)
	}
	return nil
}

func depthParam(c *echo.Context, def int) (int, error) {
	q := c.QueryParam("depth")
	if q == "" {
		return def, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return 0, fmt.Errorf("depth must be an integer, got %q", q)
	}
	return n, nil
}

// deferredWriter sends the status line with the first body byte, so a file
// that fails before producing output can still get a JSON error.
type deferredWriter struct {
	w       http.ResponseWriter
	started bool
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	if !d.started {
		d.started = true
		d.w.WriteHeader(http.StatusOK)
	}
	return d.w.Write(p)
}
