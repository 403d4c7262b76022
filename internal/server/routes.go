package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ideabox/internal/handlers"
	"ideabox/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.RequestID)
	r.Use(middlewares.AccessLog)
	r.Use(middlewares.Instrument)
	r.Use(middlewares.NewCorsMiddleware(s.allowedOrigins))

	ch := handlers.NewCommonHandler(s.db, s.mailConfigured)
	r.HandleFunc("/", ch.IndexHandler).Methods("GET")
	r.HandleFunc("/health", ch.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.NotFoundHandler = middlewares.RequestID(middlewares.AccessLog(http.HandlerFunc(ch.NotFoundHandler)))
	r.MethodNotAllowedHandler = middlewares.RequestID(middlewares.AccessLog(http.HandlerFunc(ch.MethodNotAllowedHandler)))

	s.registerOTPRoutes(r)
	s.registerIdeaRoutes(r)
	s.registerLegacyRoutes(r, ch)

	return r
}

func (s *Server) registerOTPRoutes(r *mux.Router) {
	oh := handlers.NewOTPHandler(s.ideaService)
	r.Handle("/otp", s.limiter.Middleware(http.HandlerFunc(oh.RequestOTP))).Methods("POST", "OPTIONS")
	r.Handle("/otp/verify", s.limiter.Middleware(http.HandlerFunc(oh.VerifyOTP))).Methods("POST", "OPTIONS")
}

func (s *Server) registerIdeaRoutes(r *mux.Router) {
	ih := handlers.NewIdeaHandler(s.ideaService)
	r.Handle("/ideas", s.limiter.Middleware(http.HandlerFunc(ih.SubmitIdea))).Methods("POST", "OPTIONS")
	r.HandleFunc("/ideas", ih.GetIdeas).Methods("GET")
	r.HandleFunc("/stats", ih.GetStats).Methods("GET")
}

// registerLegacyRoutes keeps the older /api/* paths served by existing
// front ends.
func (s *Server) registerLegacyRoutes(r *mux.Router, ch *handlers.CommonHandler) {
	oh := handlers.NewOTPHandler(s.ideaService)
	ih := handlers.NewIdeaHandler(s.ideaService)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/send-otp", s.limiter.Middleware(http.HandlerFunc(oh.RequestOTP))).Methods("POST", "OPTIONS")
	api.Handle("/verify-otp", s.limiter.Middleware(http.HandlerFunc(oh.VerifyOTP))).Methods("POST", "OPTIONS")
	api.Handle("/submit-idea", s.limiter.Middleware(http.HandlerFunc(ih.SubmitIdea))).Methods("POST", "OPTIONS")
	api.HandleFunc("/ideas", ih.GetIdeas).Methods("GET")
	api.HandleFunc("/stats", ih.GetStats).Methods("GET")
	api.HandleFunc("/health", ch.HealthHandler).Methods("GET")
}
