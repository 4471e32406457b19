package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/kit"
)

// Options configure the router.
type Options struct {
	Logger      *zap.Logger
	RateLimit   float64
	Burst       int
	CORSOrigins []string
	// Limiter overrides the limiter built from RateLimit and Burst, so the
	// caller can sweep idle clients.
	Limiter *kit.RateLimiter
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// NewRouter returns an http.Handler with all cleaner API routes.
func NewRouter(svc *Service, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Logging(log, name)(ep)
	}
	h := &handler{
		clean:          wrap("clean_names", cleanEndpoint(svc)),
		listLegalForms: wrap("list_legal_forms", listLegalFormsEndpoint(svc)),
		legalForms:     wrap("legal_forms", legalFormsEndpoint(svc)),
		rules:          wrap("rules", rulesEndpoint(svc)),
		country:        wrap("resolve_country", countryEndpoint(svc)),
		id:             wrap("validate_id", idEndpoint(svc)),
		svc:            svc,
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(kit.RequestID)
	r.Use(kit.AccessLog(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", kit.RequestIDHeader},
		ExposedHeaders: []string{kit.RequestIDHeader},
		MaxAge:         300,
	}))
	limiter := opts.Limiter
	if limiter == nil {
		limiter = kit.NewRateLimiter(opts.RateLimit, opts.Burst)
	}
	r.Use(limiter.Handler)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/names/clean", h.handleClean)
		r.Get("/legal-forms", h.handleListLegalForms)
		r.Get("/legal-forms/{country}", h.handleLegalForms)
		r.Get("/rules", h.handleRules)
		r.Get("/countries/{value}", h.handleCountry)
		r.Get("/ids/{type}/{id}", h.handleID)
		r.Get("/health", h.handleHealth)
	})
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

type handler struct {
	clean          kit.Endpoint
	listLegalForms kit.Endpoint
	legalForms     kit.Endpoint
	rules          kit.Endpoint
	country        kit.Endpoint
	id             kit.Endpoint
	svc            *Service
}

// --- clean names ---

type httpCleanRequest struct {
	Name     string   `json:"name,omitempty"`
	Names    []string `json:"names,omitempty"`
	Country  string   `json:"country,omitempty"`
	Language string   `json:"language,omitempty"`
	Merge    bool     `json:"merge,omitempty"`
}

func (h *handler) handleClean(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB max
	var req httpCleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	all := req.Names
	if req.Name != "" {
		all = append([]string{req.Name}, all...)
	}
	h.serve(w, r, h.clean, &cleanReq{Names: all, Country: req.Country, Language: req.Language, Merge: req.Merge})
}

// --- legal forms ---

func (h *handler) handleListLegalForms(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.listLegalForms, nil)
}

func (h *handler) handleLegalForms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serve(w, r, h.legalForms, &legalFormsReq{
		Country:  chi.URLParam(r, "country"),
		Language: q.Get("language"),
		Merge:    parseBool(q.Get("merge")),
	})
}

// --- rules ---

func (h *handler) handleRules(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.rules, nil)
}

// --- countries and ids ---

func (h *handler) handleCountry(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.country, &countryReq{Value: chi.URLParam(r, "value")})
}

func (h *handler) handleID(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.id, &idReq{Type: chi.URLParam(r, "type"), ID: chi.URLParam(r, "id")})
}

// --- health ---

type healthResponse struct {
	Status     string `json:"status"`
	Countries  int    `json:"countries"`
	ActiveForm string `json:"active_legal_forms"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, sel := h.svc.Normalizer.ActiveLegalForms()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Countries:  len(h.svc.store().Countries()),
		ActiveForm: sel.Country + "/" + sel.Language,
	})
}

// --- helpers ---

func (h *handler) serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any) {
	resp, err := ep(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case isBadRequest(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
