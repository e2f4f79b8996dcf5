package aiservice

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/middleware"
)

const maxBodyBytes = 1 << 20

type Server struct {
	svc     *Service
	version string
	log     *zap.Logger
}

func NewServer(svc *Service, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, version: version, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /generate-questions", s.handleGenerateQuestions)
	mux.HandleFunc("POST /transparency-score", s.handleScore)

	var h http.Handler = middleware.Metrics(mux)
	h = middleware.CORS(nil)(h)
	h = middleware.AccessLog(s.log)(h)
	h = middleware.Recover(s.log)(h)
	return middleware.RequestID(h)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"service":        "Clearlabel AI service",
		"llm_configured": s.svc.LLMEnabled(),
		"version":        s.version,
	})
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req QuestionsRequest
	if !decode(w, r, &req, "product_name", "category") {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.GenerateQuestions(r.Context(), req))
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if !decode(w, r, &req, "product_name", "category", "responses") {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Score(r.Context(), req))
}

// decode rejects bodies missing any of the required keys or carrying null
// for them. Empty strings are accepted.
func decode(w http.ResponseWriter, r *http.Request, dst any, required ...string) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	for _, k := range required {
		if v, ok := fields[k]; !ok || string(v) == "null" {
			writeDetail(w, http.StatusUnprocessableEntity, k+": field required")
			return false
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
