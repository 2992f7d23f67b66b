package server

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
	"github.com/matzehuels/nodeflow/pkg/diagram"
	"github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	g, err := s.readDefinition(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.cfg.Store.Create(r.Context(), g)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("created diagram", "id", id, "nodes", len(g.Nodes))
	w.Header().Set("Location", "/diagrams/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	g, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDiagramID(id); err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := s.readDefinition(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.cfg.Store.Put(r.Context(), id, g); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("stored diagram", "id", id, "nodes", len(g.Nodes))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.pipelineOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.cfg.Runner.Layout(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := s.pipelineOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.cfg.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("X-Cache", strconv.FormatBool(res.CacheInfo.RenderHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// pipelineOptions loads the diagram named in the path and maps query
// parameters onto pipeline options.
func (s *Server) pipelineOptions(r *http.Request) (pipeline.Options, error) {
	g, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return pipeline.Options{}, err
	}
	q := r.URL.Query()
	opts := pipeline.Options{
		Graph:       g,
		Strategy:    q.Get("strategy"),
		Categories:  q.Get("categories"),
		Select:      q.Get("select"),
		Hover:       q.Get("hover"),
		Renderer:    q.Get("renderer"),
		Animate:     true,
		Interactive: true,
		Logger:      s.logger,
	}
	if opts.Width, err = floatParam(q.Get("width")); err != nil {
		return opts, err
	}
	if opts.Height, err = floatParam(q.Get("height")); err != nil {
		return opts, err
	}
	for name, dst := range map[string]*bool{
		"animate":     &opts.Animate,
		"interactive": &opts.Interactive,
		"legend":      &opts.Legend,
		"detail":      &opts.Detail,
		"detailed":    &opts.Detailed,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
		}
		*dst = b
	}
	return opts, nil
}

func floatParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidSize, "invalid size %q", v)
	}
	return f, nil
}

// readDefinition decodes a request body in the encoding named by its
// Content-Type. JSON is the default.
func (s *Server) readDefinition(w http.ResponseWriter, r *http.Request) (*diagram.Graph, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer body.Close()

	format := diagram.FormatJSON
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = diagram.FormatYAML
		case "application/toml":
			format = diagram.FormatTOML
		}
	}
	return diagram.ReadGraph(body, format)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if statusFor(code) >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", code, "error", err)
	}
	writeError(w, err)
}
