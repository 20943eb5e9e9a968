package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"assistant-api/internal/ai"
	"assistant-api/internal/database"
	"assistant-api/internal/profile"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response  string    `json:"response"`
	Domain    string    `json:"domain"`
	Timestamp time.Time `json:"timestamp"`
}

// handleChat runs one assistant exchange: it builds a system prompt from
// the stored profile and relevant history, asks the completion provider,
// and records the exchange. Nothing is persisted when the provider fails.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	promptCtx := ai.PromptContext{}

	prof, err := s.profiles.Get(ctx)
	switch {
	case err == nil:
		promptCtx.Profile = prof
	case errors.Is(err, profile.ErrNotFound):
		// No profile yet, the assistant answers generically.
	default:
		s.logger.ErrorContext(ctx, "Failed to load profile for chat", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if promptCtx.Relevant, err = s.memory.Relevant(ctx, message); err != nil {
		s.logger.ErrorContext(ctx, "Failed to search conversation history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if promptCtx.Recent, err = s.memory.Recent(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load recent conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	start := time.Now()
	reply, err := s.ai.Reply(ctx, ai.BuildSystemPrompt(promptCtx), message)
	completionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "Completion request failed", "error", err)
		writeError(w, http.StatusBadGateway, "assistant is unavailable")
		return
	}

	conv, err := s.memory.Record(ctx, message, reply)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record conversation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  conv.AssistantReply,
		Domain:    conv.Domain,
		Timestamp: conv.CreatedAt,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.profiles.Get(r.Context())
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no profile set")
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var prof database.Profile
	if err := json.NewDecoder(r.Body).Decode(&prof); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.profiles.Save(r.Context(), &prof); err != nil {
		if errors.Is(err, profile.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to save profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Delete(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to delete profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	history, err := s.memory.History(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load conversation history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if history == nil {
		history = []database.Conversation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": history,
		"count":         len(history),
	})
}

func (s *Server) handleDeleteConversations(w http.ResponseWriter, r *http.Request) {
	if err := s.memory.Reset(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to clear conversation history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.memory.Stats(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to compute memory stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.Statistics(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to compute statistics", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.analytics.Insights(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to compute insights", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleExportConversations(w http.ResponseWriter, r *http.Request) {
	data, err := s.analytics.ConversationsCSV(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to export conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	filename := "conversations_" + time.Now().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExportProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.profiles.Get(r.Context())
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no profile set")
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to export profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func (s *Server) handleExportStats(w http.ResponseWriter, r *http.Request) {
	usage, err := s.analytics.UsageStats(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to export usage stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
