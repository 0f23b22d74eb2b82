package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type statusResponse struct {
	Capability *capabilityResponse `json:"capability"`
	Identity   interface{}         `json:"identity"`
}

type capabilityResponse struct {
	Role         string      `json:"role"`
	Discoverable bool        `json:"discoverable"`
	MaxSize      int64       `json:"max_size"`
	Capacity     interface{} `json:"capacity"`
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/status", s.handleStatus)
	r.Get("/status/capability", s.handleCapability)
	r.Get("/status/identity", s.handleIdentity)
	r.Get("/segments", s.handleSegments)
	r.Get("/cluster/members", s.handleMembers)

	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, promhttp.Handler())
	}

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		Capability: s.capability(),
		Identity:   s.rec,
	})
}

func (s *Server) handleCapability(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.capability())
}

func (s *Server) handleIdentity(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.rec)
}

func (s *Server) handleSegments(w http.ResponseWriter, _ *http.Request) {
	if s.inv == nil {
		s.writeError(w, http.StatusNotFound, "no segment cache on this node")
		return
	}
	recs, err := s.inv.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.inv.TotalSize()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments":   recs,
		"count":      len(recs),
		"total_size": total,
	})
}

func (s *Server) handleMembers(w http.ResponseWriter, _ *http.Request) {
	if s.mgr == nil {
		s.writeError(w, http.StatusNotFound, "clustering disabled")
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Members())
}

func (s *Server) capability() *capabilityResponse {
	return &capabilityResponse{
		Role:         s.desc.Role.String(),
		Discoverable: s.desc.Discoverable,
		MaxSize:      s.desc.MaxSize,
		Capacity:     s.desc.Capacity,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
