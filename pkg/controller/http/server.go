package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/usecase"
	"github.com/catalpa-lab/dynagent/pkg/utils/errutil"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

type Server struct {
	router   *chi.Mux
	registry *usecase.Registry
}

func New(registry *usecase.Registry) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		registry: registry,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/v1/agents", func(r chi.Router) {
		r.Get("/", agentsHandler(registry))
		r.Post("/{agentID}/turns", turnHandler(registry))
		r.Post("/{agentID}/refresh", refreshHandler(registry))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck // header already committed
}

// agentsHandler returns a handler that serves the registered agent list
func agentsHandler(registry *usecase.Registry) http.HandlerFunc {
	type agentResponse struct {
		ID string `json:"id"`
	}
	type response struct {
		Agents []agentResponse `json:"agents"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		runtimes := registry.List()
		resp := response{
			Agents: make([]agentResponse, len(runtimes)),
		}
		for i, rt := range runtimes {
			resp.Agents[i] = agentResponse{ID: string(rt.ID())}
		}

		data, err := json.Marshal(resp)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal agents response"), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data) //nolint:errcheck // header already committed
	}
}

type turnRequest struct {
	Messages       []model.Message `json:"messages"`
	ConversationID string          `json:"conversation_id,omitempty"`
	RunID          string          `json:"run_id,omitempty"`
	Params         map[string]any  `json:"params,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

type turnResponse struct {
	FinalContent string          `json:"final_content"`
	Messages     []model.Message `json:"messages"`
}

// turnHandler returns a handler that executes one conversational turn
func turnHandler(registry *usecase.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID := types.AgentID(chi.URLParam(r, "agentID"))

		runtime, err := registry.Get(agentID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
			return
		}

		var req turnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to decode turn request"), http.StatusBadRequest)
			return
		}
		if len(req.Messages) == 0 {
			errutil.HandleHTTP(r.Context(), w, goerr.New("messages are required"), http.StatusBadRequest)
			return
		}

		result, err := runtime.Run(r.Context(), &model.TurnContext{
			Messages:       req.Messages,
			ConversationID: types.ConversationID(req.ConversationID),
			RunID:          types.RunID(req.RunID),
			Params:         req.Params,
			Metadata:       req.Metadata,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		data, err := json.Marshal(turnResponse{
			FinalContent: result.FinalContent,
			Messages:     result.Messages,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal turn response"), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data) //nolint:errcheck // header already committed
	}
}

// refreshHandler returns a handler that invalidates an agent's cached
// configuration.
func refreshHandler(registry *usecase.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID := types.AgentID(chi.URLParam(r, "agentID"))

		runtime, err := registry.Get(agentID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
			return
		}

		runtime.Refresh()
		w.WriteHeader(http.StatusNoContent)
	}
}
