package main

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ajhb/crm_sdk_go/pkg/crm"
	"github.com/ajhb/crm_sdk_go/pkg/crm/mock"
)

type serverConfig struct {
	latency  time.Duration
	failRate float64
	failCode int
}

type server struct {
	store *mock.Store
	cfg   serverConfig
	rand  *rand.Rand
}

func newServer(store *mock.Store, cfg serverConfig) *server {
	if cfg.failCode == 0 {
		cfg.failCode = http.StatusServiceUnavailable
	}
	return &server{
		store: store,
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.withInjection(s.handleHealth))
	mux.HandleFunc("GET /api/stats/dashboard", s.withInjection(s.handleStats))
	mux.HandleFunc("GET /api/{table}", s.withInjection(s.handleList))
	mux.HandleFunc("POST /api/{table}", s.withInjection(s.handleCreate))
	mux.HandleFunc("GET /api/{table}/{id}", s.withInjection(s.handleGet))
	mux.HandleFunc("PUT /api/{table}/{id}", s.withInjection(s.handleUpdate))
	mux.HandleFunc("DELETE /api/{table}/{id}", s.withInjection(s.handleDelete))
	return mux
}

func (s *server) listenAndServe(addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.handler(),
	}
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// withInjection applies the configured latency and probabilistic failures
// before delegating to the real handler.
func (s *server) withInjection(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.latency > 0 {
			time.Sleep(s.cfg.latency)
		}
		if s.cfg.failRate > 0 && s.rand.Float64() < s.cfg.failRate {
			writeJSON(w, s.cfg.failCode, map[string]any{"error": "fallo inyectado por el sandbox"})
			return
		}
		next(w, r)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.store.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.DashboardStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListAll(r.Context(), r.PathValue("table"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := s.store.GetOne(r.Context(), r.PathValue("table"), id)
	if errors.Is(err, crm.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "No encontrado"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var rec crm.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || len(rec) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No se enviaron datos"})
		return
	}
	id, err := s.store.Insert(r.Context(), r.PathValue("table"), rec)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "message": "Creado exitosamente"})
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var rec crm.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || len(rec) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No se enviaron datos"})
		return
	}
	err := s.store.Replace(r.Context(), r.PathValue("table"), id, rec)
	if errors.Is(err, crm.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Registro no encontrado"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Actualizado exitosamente"})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := s.store.Remove(r.Context(), r.PathValue("table"), id)
	if errors.Is(err, crm.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Registro no encontrado"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Eliminado exitosamente"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Identificador inválido"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
