package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/metrics"
	"github.com/soaringjerry/Clearlabel/internal/middleware"
	"github.com/soaringjerry/Clearlabel/internal/services"
)

const maxBodyBytes = 1 << 20

// AIGateway is the part of services.Gateway the router exposes.
type AIGateway interface {
	GenerateQuestions(ctx context.Context, req services.GenerateQuestionsRequest) *services.GenerateQuestionsResult
	CalculateScore(ctx context.Context, req services.ScoreRequest) *services.ScoreResult
}

type Options struct {
	Store         Store
	Gateway       AIGateway
	Auth          *middleware.Authenticator
	TokenTTL      time.Duration
	EnrichReports bool
	CORSOrigins   []string
	Version       string
	Logger        *zap.Logger
}

type Router struct {
	store     Store
	auth      *middleware.Authenticator
	users     *services.AuthService
	products  *services.ProductService
	responses *services.ResponseService
	questions *services.QuestionService
	reports   *services.ReportService
	gateway   AIGateway
	cors      []string
	version   string
	log       *zap.Logger
}

func NewRouter(opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var analyzer services.ScoreAnalyzer
	if opts.Gateway != nil {
		analyzer = opts.Gateway
	}
	return &Router{
		store:     opts.Store,
		auth:      opts.Auth,
		users:     services.NewAuthService(opts.Store, opts.Auth.SignToken, opts.TokenTTL),
		products:  services.NewProductService(opts.Store),
		responses: services.NewResponseService(opts.Store),
		questions: services.NewQuestionService(opts.Store, log),
		reports:   services.NewReportService(opts.Store, analyzer, opts.EnrichReports, log),
		gateway:   opts.Gateway,
		cors:      opts.CORSOrigins,
		version:   opts.Version,
		log:       log,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)

	mux.HandleFunc("GET /api/questions", rt.handleListQuestions)
	mux.HandleFunc("POST /api/questions/conditional", rt.handleConditional)

	mux.Handle("POST /api/products", authed(rt.handleCreateProduct))
	mux.Handle("GET /api/products", authed(rt.handleListProducts))
	mux.Handle("GET /api/products/{id}", authed(rt.handleGetProduct))
	mux.Handle("DELETE /api/products/{id}", authed(rt.handleDeleteProduct))
	mux.Handle("PATCH /api/products/{id}/status", authed(rt.handleUpdateStatus))
	mux.Handle("POST /api/products/{id}/responses", authed(rt.handleSubmitResponses))
	mux.Handle("GET /api/products/{id}/responses", authed(rt.handleListResponses))
	mux.Handle("GET /api/products/{id}/responses/export", authed(rt.handleExportResponses))

	mux.Handle("POST /api/reports/{productId}/generate", authed(rt.handleGenerateReport))
	mux.Handle("GET /api/reports/{productId}", authed(rt.handleGetReport))

	mux.Handle("POST /api/ai/generate-questions", authed(rt.handleGenerateQuestions))
	mux.Handle("POST /api/ai/calculate-score", authed(rt.handleCalculateScore))
}

// Handler returns the routes wrapped in the standard middleware chain.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)
	var h http.Handler = middleware.Metrics(mux)
	h = rt.auth.WithAuth(h)
	h = middleware.NoStore(h)
	h = middleware.SecureHeaders(h)
	h = middleware.CORS(rt.cors)(h)
	h = middleware.AccessLog(rt.log)(h)
	h = middleware.Recover(rt.log)(h)
	return middleware.RequestID(h)
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := rt.store.Ping(r.Context()); err != nil {
		rt.log.Warn("health check: store unreachable", zap.Error(err))
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "version": rt.version})
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		CompanyName string `json:"company_name"`
	}
	if !rt.decode(w, r, &req) {
		return
	}
	res, err := rt.users.Register(r.Context(), req.Email, req.Password, req.CompanyName)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !rt.decode(w, r, &req) {
		return
	}
	res, err := rt.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/questions?category=health&include_conditional=true
func (rt *Router) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.QuestionFilter{Category: q.Get("category")}
	if v := q.Get("include_conditional"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			rt.writeError(w, r, services.NewInvalidError("include_conditional must be a boolean"))
			return
		}
		f.IncludeConditional = b
	}
	qs, err := rt.questions.List(r.Context(), f)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs, "count": len(qs)})
}

func (rt *Router) handleConditional(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []services.Answer `json:"answers"`
	}
	if !rt.decode(w, r, &req) {
		return
	}
	res, err := rt.questions.Conditional(r.Context(), req.Answers)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in services.CreateProductInput
	if !rt.decode(w, r, &in) {
		return
	}
	p, err := rt.products.Create(r.Context(), userID(r), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (rt *Router) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := rt.products.List(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps})
}

func (rt *Router) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := rt.products.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (rt *Router) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := rt.products.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !rt.decode(w, r, &req) {
		return
	}
	p, err := rt.products.UpdateStatus(r.Context(), userID(r), r.PathValue("id"), req.Status)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/products/{id}/responses  {"responses":[{"question_id":1,"answer":"..."}]}
func (rt *Router) handleSubmitResponses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Responses []services.Answer `json:"responses"`
	}
	if !rt.decode(w, r, &req) {
		return
	}
	saved, err := rt.responses.Submit(r.Context(), userID(r), r.PathValue("id"), req.Responses)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": saved, "count": len(saved)})
}

func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request) {
	rs, err := rt.responses.List(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": rs})
}

func (rt *Router) handleExportResponses(w http.ResponseWriter, r *http.Request) {
	b, name, err := rt.responses.Export(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (rt *Router) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	rep, err := rt.reports.Generate(r.Context(), userID(r), r.PathValue("productId"), middleware.TokenFromContext(r.Context()))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	metrics.ReportsGenerated.Inc()
	writeJSON(w, http.StatusOK, rep)
}

func (rt *Router) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := rt.reports.Get(r.Context(), userID(r), r.PathValue("productId"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (rt *Router) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateQuestionsRequest
	if !rt.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		rt.writeError(w, r, services.NewInvalidError("category is required"))
		return
	}
	if rt.gateway == nil {
		rt.writeError(w, r, errors.New("ai gateway not configured"))
		return
	}
	req.AuthToken = middleware.TokenFromContext(r.Context())
	writeJSON(w, http.StatusOK, rt.gateway.GenerateQuestions(r.Context(), req))
}

func (rt *Router) handleCalculateScore(w http.ResponseWriter, r *http.Request) {
	var req services.ScoreRequest
	if !rt.decode(w, r, &req) {
		return
	}
	if req.Responses == nil {
		rt.writeError(w, r, services.NewInvalidError("responses must be an array"))
		return
	}
	if rt.gateway == nil {
		rt.writeError(w, r, errors.New("ai gateway not configured"))
		return
	}
	req.AuthToken = middleware.TokenFromContext(r.Context())
	writeJSON(w, http.StatusOK, rt.gateway.CalculateScore(r.Context(), req))
}

func userID(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}

func (rt *Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		rt.writeError(w, r, services.NewInvalidError(msg))
		return false
	}
	return true
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := services.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), map[string]string{"error": se.Message})
		return
	}
	rt.log.Error("request failed",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
