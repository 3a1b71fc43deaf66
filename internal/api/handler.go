// Package api is the thin HTTP transport over the conversation machine and
// the lead store: routing, request/response marshaling, CORS, and error
// mapping. No conversation logic lives here.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/omarjafor/voice-chatbot-lead-backend/internal/conversation"
	"github.com/omarjafor/voice-chatbot-lead-backend/internal/session"
	"github.com/omarjafor/voice-chatbot-lead-backend/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// StartResponse is the body returned by POST /api/chat/start.
type StartResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// MessageRequest is the body accepted by POST /api/chat/message.
type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Deps carries the collaborators the handlers need.
type Deps struct {
	Machine  *conversation.Machine
	Leads    *storage.Store
	Sessions *session.Store
	// AllowedOrigins enables CORS for the browser front-end; empty disables it.
	AllowedOrigins []string
}

// NewHandler builds the router for the chat and lead endpoints.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}))
	}

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Post("/api/chat/start", handleStartChat(deps))
	r.Post("/api/chat/message", handleChatMessage(deps))
	r.Get("/api/leads", handleListLeads(deps))
	r.Get("/api/leads/{id}", handleGetLead(deps))
	r.Delete("/api/sessions/{id}", handleDeleteSessionLeads(deps))

	return r
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Lead Collection Chatbot API",
		"status":  "running",
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleStartChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := deps.Machine.Start()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(StartResponse{
			SessionID: reply.SessionID,
			Message:   reply.AgentMessage,
		})
	}
}

func handleChatMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.SessionID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "session_id is required")
			return
		}

		reply, err := deps.Machine.Advance(req.SessionID, req.Message)
		if errors.Is(err, conversation.ErrSessionNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if errors.Is(err, conversation.ErrConversationComplete) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "conversation already complete")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "processing message: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}
}

func handleListLeads(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leads, err := deps.Leads.ListLeads()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list leads: %v", err)
			return
		}
		if leads == nil {
			leads = []storage.Lead{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(leads)
	}
}

func handleGetLead(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		lead, err := deps.Leads.GetLead(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "lead not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get lead: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lead)
	}
}

func handleDeleteSessionLeads(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Leads.DeleteLeadsBySession(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no lead found for this session")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete leads: %v", err)
			return
		}

		// The session's lead is gone; evict the live session with it.
		deps.Sessions.Delete(id)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Lead deleted successfully using session id"})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
