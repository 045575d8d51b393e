package httpapi

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/docsmithlabs/docsmith/internal/sections"
	"github.com/docsmithlabs/docsmith/internal/service"
	"github.com/docsmithlabs/docsmith/pkg/types"
)

// uploadChunkSize bounds memory while spooling multipart zip uploads.
const uploadChunkSize = 1 << 20

// PrepareBody is the JSON request body for POST /prepare.
type PrepareBody struct {
	Input    types.Input `json:"input"`
	Include  []string    `json:"include,omitempty"`
	Exclude  []string    `json:"exclude,omitempty"`
	MaxFiles int         `json:"max_files,omitempty"`
	MaxBytes int64       `json:"max_bytes,omitempty"`
}

// SummarizeBody is the JSON request body for POST /summarize.
type SummarizeBody struct {
	SessionID     string              `json:"session_id"`
	SelectedPaths []string            `json:"selected_paths"`
	Sections      []types.SectionSpec `json:"sections"`
	Constraints   types.Constraints   `json:"constraints"`
	Cleanup       bool                `json:"cleanup,omitempty"`
}

// SessionResponse is the response body for GET /sessions/:id.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Root      string `json:"root"`
}

// handlePrepare accepts either a JSON body describing the input, or a
// multipart/form-data zip upload under the "file" field.
func (s *Server) handlePrepare(c echo.Context) error {
	req, cleanup, err := s.decodePrepare(c)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return err
	}

	result, err := s.service.Prepare(c.Request().Context(), *req)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) decodePrepare(c echo.Context) (*service.PrepareRequest, func(), error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		return s.decodeUpload(c)
	}

	var body PrepareBody
	if err := c.Bind(&body); err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req := s.capRequest(service.PrepareRequest{
		Input:    body.Input,
		Include:  body.Include,
		Exclude:  body.Exclude,
		MaxFiles: body.MaxFiles,
		MaxBytes: body.MaxBytes,
	})
	return &req, nil, nil
}

// decodeUpload spools the uploaded zip to a temp file in bounded chunks and
// presents it as a local zip input. The temp file is removed after the
// request completes.
func (s *Server) decodeUpload(c echo.Context) (*service.PrepareRequest, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "docsmith-upload-*.zip")
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot spool upload")
	}
	cleanup := func() {
		_ = os.Remove(tmp.Name())
	}

	buf := make([]byte, uploadChunkSize)
	if _, err := io.CopyBuffer(tmp, src, buf); err != nil {
		_ = tmp.Close()
		cleanup()
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "upload truncated")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot spool upload")
	}

	req := s.capRequest(service.PrepareRequest{
		Input: types.Input{
			Kind:      types.InputLocalZip,
			LocalPath: filepath.Clean(tmp.Name()),
		},
		Include:  formList(c, "include"),
		Exclude:  formList(c, "exclude"),
		MaxFiles: formInt(c, "max_files"),
		MaxBytes: int64(formInt(c, "max_bytes")),
	})
	return &req, cleanup, nil
}

// capRequest clamps client-requested caps to the server's configured limits.
func (s *Server) capRequest(req service.PrepareRequest) service.PrepareRequest {
	if s.config.MaxFiles > 0 && (req.MaxFiles <= 0 || req.MaxFiles > s.config.MaxFiles) {
		req.MaxFiles = s.config.MaxFiles
	}
	if s.config.MaxBytes > 0 && (req.MaxBytes <= 0 || req.MaxBytes > s.config.MaxBytes) {
		req.MaxBytes = s.config.MaxBytes
	}
	return req
}

func (s *Server) handleSummarize(c echo.Context) error {
	var body SummarizeBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.service.Summarize(c.Request().Context(), service.SummarizeRequest{
		SessionID:   body.SessionID,
		Selected:    body.SelectedPaths,
		Sections:    body.Sections,
		Constraints: body.Constraints,
		Cleanup:     body.Cleanup,
	})
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetSession(c echo.Context) error {
	id := c.Param("id")
	root, err := s.service.Resolve(c.Request().Context(), id)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, SessionResponse{SessionID: id, Root: root})
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	if err := s.service.Cleanup(c.Request().Context(), c.Param("id")); err != nil {
		return s.mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// mapError translates pipeline errors into HTTP status codes. Caller
// mistakes are 400s, unknown sessions 404, generator trouble 502, and
// anything unexpected a logged 500.
func (s *Server) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidInput),
		errors.Is(err, types.ErrBadPattern),
		errors.Is(err, types.ErrMissingSelection),
		errors.Is(err, types.ErrMaterialization):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrUnknownSession):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, sections.ErrProviderFailed),
		errors.Is(err, sections.ErrNoProviderEnabled):
		return echo.NewHTTPError(http.StatusBadGateway, "section generation failed")
	default:
		s.logger.Error("unhandled request error",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func formList(c echo.Context, field string) []string {
	values, _ := c.FormParams()
	if values == nil {
		return nil
	}
	return values[field]
}

func formInt(c echo.Context, field string) int {
	v := c.FormValue(field)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
