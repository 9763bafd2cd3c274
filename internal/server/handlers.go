package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/matzehuels/justified/pkg/breakpoint"
	"github.com/matzehuels/justified/pkg/cache"
	"github.com/matzehuels/justified/pkg/errors"
	"github.com/matzehuels/justified/pkg/gallery"
	"github.com/matzehuels/justified/pkg/observability"
	"github.com/matzehuels/justified/pkg/pipeline"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// LayoutRequest is the body of POST /v1/layout. Zero-valued overrides keep
// the server's configuration.
type LayoutRequest struct {
	Title string          `json:"title,omitempty"`
	Width float64         `json:"width"`
	Items []gallery.Entry `json:"items"`

	Breakpoints   breakpoint.Table `json:"breakpoints,omitempty"`
	RowHeight     float64          `json:"row_height,omitempty"`
	Gap           float64          `json:"gap,omitempty"`
	MaxPerRow     int              `json:"max_per_row,omitempty"`
	Policy        string           `json:"policy,omitempty"`
	GrowthCap     float64          `json:"growth_cap,omitempty"`
	FallbackRatio float64          `json:"fallback_ratio,omitempty"`

	// Format selects the response body: json (default), svg, html or png.
	Format string `json:"format,omitempty"`
	Labels bool   `json:"labels,omitempty"`
	Images bool   `json:"images,omitempty"`
}

// BreakpointsResponse is the body of GET /v1/breakpoints.
type BreakpointsResponse struct {
	Breakpoints breakpoint.Table `json:"breakpoints"`
	// Active is the entry that applies to the requested width, if any.
	Active *breakpoint.Breakpoint `json:"active,omitempty"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatHTML: "text/html; charset=utf-8",
	pipeline.FormatPNG:  "image/png",
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBreakpoints(w http.ResponseWriter, r *http.Request) {
	table, err := s.cfg.Table()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := BreakpointsResponse{Breakpoints: table}

	if q := r.URL.Query().Get("width"); q != "" {
		width, err := strconv.ParseFloat(q, 64)
		if err == nil {
			err = errors.ValidateNonNegative("width", width)
		}
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid width %q", q))
			return
		}
		active := table.Lookup(width)
		resp.Active = &active
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := s.decodeLayoutRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key, err := s.responseKey(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if data, ok := s.cachedResponse(ctx, key); ok {
		w.Header().Set("X-Cache", "HIT")
		s.writeBody(w, r, req.Format, data)
		return
	}

	opts := s.options(ctx, req)
	result, err := s.runner.Execute(ctx, gallery.Manifest{Title: req.Title, Items: req.Items}, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data := result.Artifacts[req.Format]

	if key != "" {
		if err := s.responses.Set(ctx, key, data, cache.TTLResponse); err != nil {
			s.loggerFrom(ctx).Debug("response cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "response", len(data))
		}
	}

	w.Header().Set("X-Cache", "MISS")
	s.writeBody(w, r, req.Format, data)
}

// decodeLayoutRequest parses and checks a layout request. Entries must carry
// their size: the server never reads files on behalf of a client.
func (s *Server) decodeLayoutRequest(w http.ResponseWriter, r *http.Request) (LayoutRequest, error) {
	var req LayoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return req, errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return req, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}

	if req.Format == "" {
		req.Format = pipeline.FormatJSON
	}
	if _, ok := contentTypes[req.Format]; !ok {
		return req, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (must be one of: json, svg, html, png)", req.Format)
	}
	if err := errors.ValidatePositive("width", req.Width); err != nil {
		return req, err
	}
	if limit := s.cfg.Server.MaxItems; limit > 0 && len(req.Items) > limit {
		return req, errors.New(errors.ErrCodeInvalidInput, "too many items: %d (limit %d)", len(req.Items), limit)
	}
	for _, e := range req.Items {
		if e.Path != "" {
			return req, errors.New(errors.ErrCodeInvalidInput, "item %q: paths are not accepted, send ratio or width and height", e.ID)
		}
	}
	if err := (gallery.Manifest{Items: req.Items}).Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// options layers the request's overrides over the server configuration.
func (s *Server) options(ctx context.Context, req LayoutRequest) pipeline.Options {
	opts := pipeline.FromConfig(s.cfg)
	opts.Width = req.Width
	opts.Formats = []string{req.Format}
	opts.Title = req.Title
	opts.Labels = req.Labels
	opts.Images = req.Images
	opts.Logger = s.loggerFrom(ctx)

	if len(req.Breakpoints) > 0 {
		opts.Breakpoints = req.Breakpoints
		opts.RowHeight, opts.Gap = 0, 0
	}
	if req.RowHeight != 0 {
		opts.RowHeight, opts.Gap = req.RowHeight, req.Gap
	}
	if req.MaxPerRow != 0 {
		opts.MaxPerRow = req.MaxPerRow
	}
	if req.Policy != "" {
		opts.Policy = req.Policy
	}
	if req.GrowthCap != 0 {
		opts.GrowthCap = req.GrowthCap
	}
	if req.FallbackRatio != 0 {
		opts.FallbackRatio = req.FallbackRatio
	}
	return opts
}

// =============================================================================
// Response Cache
// =============================================================================

// responseKey returns the cache key of a request, or "" without a cache.
func (s *Server) responseKey(req LayoutRequest) (string, error) {
	if s.responses == nil {
		return "", nil
	}
	hash, err := cache.HashJSON(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash request")
	}
	return s.runner.Keyer.ResponseKey(hash), nil
}

func (s *Server) cachedResponse(ctx context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}
	data, hit, err := s.responses.Get(ctx, key)
	if err != nil {
		s.loggerFrom(ctx).Debug("response cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "response")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "response")
	return data, true
}

// =============================================================================
// Writers
// =============================================================================

func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.loggerFrom(r.Context()).Debug("write response", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.loggerFrom(r.Context()).Debug("write response", "err", err)
	}
}

// writeError maps err's code to a status code and writes an error body.
// Internal errors are logged and their details withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)

	observability.HTTP().OnError(ctx, r.Method, routePattern(r), err)

	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.loggerFrom(ctx).Error("request failed", "err", err)
		msg = http.StatusText(status)
	}
	s.writeErrorBody(w, r, status, code, msg)
}

func (s *Server) writeErrorBody(w http.ResponseWriter, r *http.Request, status int, code errors.Code, msg string) {
	body, _ := json.Marshal(ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   msg,
		RequestID: RequestID(r.Context()),
	}})
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeErrorBody(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidInput,
		fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
}
