package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vendor-kpi/internal/chart"
	"github.com/sells-group/vendor-kpi/internal/ingest"
	"github.com/sells-group/vendor-kpi/internal/pipeline"
	"github.com/sells-group/vendor-kpi/internal/report"
)

// UploadField is the multipart form field holding the workbook.
const UploadField = "file"

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg, RequestID: requestIDFrom(r.Context())})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	res, ok := s.score(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, res.Document())
}

func (s *Server) handleScoreCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.score(w, r)
	if !ok {
		return
	}
	body, err := report.EncodeCSV(res.Rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.csvName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !slices.Contains(chart.Names, name) {
		renderError(w, r, http.StatusNotFound, "unknown chart: "+name)
		return
	}

	res, ok := s.score(w, r)
	if !ok {
		return
	}
	vendor := r.URL.Query().Get("vendor")
	if name == chart.NameRadar && vendor != "" && res.Normalized.Row(vendor) == nil {
		renderError(w, r, http.StatusNotFound, "unknown vendor: "+vendor)
		return
	}

	c, err := chart.Render(name, res.ChartData(), vendor, s.chartOpts)
	if err != nil {
		renderError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// score reads the uploaded workbook and runs the pipeline. On failure it
// writes the error response and returns false.
func (s *Server) score(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	body, status, err := s.readUpload(w, r)
	if err != nil {
		renderError(w, r, status, err.Error())
		return nil, false
	}

	start := time.Now()
	res, err := s.pipeline.RunBytes(r.Context(), body)
	s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ingest.IsMalformed(err) {
			s.metrics.Runs.WithLabelValues(outcomeMalformed).Inc()
			renderError(w, r, http.StatusUnprocessableEntity, "Error loading or processing data: "+err.Error())
			return nil, false
		}
		s.metrics.Runs.WithLabelValues(outcomeError).Inc()
		s.fail(w, r, err)
		return nil, false
	}

	s.metrics.Runs.WithLabelValues(outcomeOK).Inc()
	s.metrics.VendorsScored.Set(float64(len(res.Rows)))
	zap.L().Info("api: scored upload",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("run_id", res.RunID),
		zap.Int("vendors", len(res.Rows)),
	)
	return res, true
}

// readUpload returns the bytes of the multipart "file" field, capped at the
// configured upload size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	if r.ContentLength > s.maxUpload {
		return nil, http.StatusRequestEntityTooLarge, eris.Errorf("upload exceeds %d bytes", s.maxUpload)
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, eris.Errorf("upload exceeds %d bytes", s.maxUpload)
		}
		return nil, http.StatusBadRequest, eris.Wrap(err, "expected a multipart/form-data upload")
	}

	file, _, err := r.FormFile(UploadField)
	if err != nil {
		return nil, http.StatusBadRequest, eris.Errorf("missing %q form field", UploadField)
	}
	defer file.Close() //nolint:errcheck

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, eris.Wrap(err, "read upload")
	}
	return body, 0, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("api: request failed",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Error(err),
	)
	renderError(w, r, http.StatusInternalServerError, "Error loading or processing data: "+err.Error())
}
