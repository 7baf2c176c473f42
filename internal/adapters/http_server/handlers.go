package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/devpablofiz/Hotelier/internal/domain"
	"github.com/devpablofiz/Hotelier/internal/registry"
)

// Handlers exposes the read-only catalog surface and user registration over
// HTTP. All ranking mutations stay on the TCP protocol.
type Handlers struct {
	Reg   *registry.Registry
	Users domain.UserStore
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/cities/{city}/hotels", h.listCityHotels)
	s.mux.Post("/v1/users", h.registerUser)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) listCityHotels(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	hotels := h.Reg.ListByCity(city)
	if len(hotels) == 0 {
		writeProblem(w, http.StatusNotFound, "Not Found", "no hotels in city")
		return
	}

	resp := struct {
		City   string             `json:"city"`
		Hotels []domain.HotelView `json:"hotels"`
	}{City: registry.CapitalizeCity(city), Hotels: hotels}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write city hotels body")
	}
}

func (h *Handlers) registerUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected JSON with username and password")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "username and password must be non-empty")
		return
	}

	verdict, err := h.Users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		log.Error().Err(err).Str("user", req.Username).Msg("user registration failed")
		writeProblem(w, http.StatusInternalServerError, "Registration failed", "")
		return
	}
	if verdict == domain.RegisterAlreadyExists {
		writeProblem(w, http.StatusConflict, "Conflict", "username already exists")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"username": req.Username})
}
