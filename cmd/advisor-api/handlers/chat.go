// Package handlers provides HTTP handlers for the advisor API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phonepilot/advisor-engine/internal/assistant"
	"github.com/phonepilot/advisor-engine/internal/convo"
	"github.com/phonepilot/advisor-engine/internal/observability"
)

// Assistant is the conversational pipeline the chat handler fronts.
type Assistant interface {
	HandleUserQuery(ctx context.Context, userText string, history convo.History) (*assistant.Stream, error)
}

// ChatHandler handles conversational chat requests.
// generationErrorMessage is what clients see when synthesis fails; the
// underlying error never goes on the wire.
const generationErrorMessage = "response generation was interrupted"

type ChatHandler struct {
	logger    *observability.Logger
	assistant Assistant
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, a Assistant) *ChatHandler {
	return &ChatHandler{
		logger:    logger.WithComponent("api"),
		assistant: a,
	}
}

// ChatRequestDTO represents the API request for a chat turn.
type ChatRequestDTO struct {
	Message string       `json:"message"`
	History []MessageDTO `json:"history,omitempty"`
}

// MessageDTO represents a past conversation turn.
type MessageDTO struct {
	ID        string `json:"id,omitempty"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"` // RFC 3339
}

// ChunkDTO is the payload of each streamed chunk event.
type ChunkDTO struct {
	Text string `json:"text"`
}

// MetaDTO is the payload of the trailing meta event.
type MetaDTO struct {
	assistant.Meta
	Error string `json:"error,omitempty"`
}

// ErrorDTO represents an API error response.
type ErrorDTO struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Chat handles POST /api/v1/chat. The response is a Server-Sent Events
// stream: "chunk" events carry response text as it is generated, a single
// "meta" event trails with plan diagnostics (and the generation error, if
// any), then a "done" event closes the stream.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithRequest(chimiddleware.GetReqID(ctx))

	var reqDTO ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(reqDTO.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	history := toHistory(reqDTO.History)

	stream, err := h.assistant.HandleUserQuery(ctx, reqDTO.Message, history)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "query rejected", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for chunk := range stream.Chunks() {
		h.writeEvent(w, "chunk", ChunkDTO{Text: chunk})
		flusher.Flush()
	}

	meta := MetaDTO{Meta: stream.Meta()}
	if err := stream.Err(); err != nil {
		// Detail stays in the logs; clients get a stable message.
		log.Error().Err(err).Msg("chat generation failed")
		meta.Error = generationErrorMessage
	}
	h.writeEvent(w, "meta", meta)

	w.Write([]byte("event: done\ndata: [DONE]\n\n"))
	flusher.Flush()
}

func (h *ChatHandler) writeEvent(w http.ResponseWriter, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode event payload")
		return
	}
	w.Write([]byte("event: " + event + "\ndata: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}

func (h *ChatHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorDTO{Error: message, Detail: detail}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode error response")
	}
}

// toHistory converts wire messages to a deduplicated, ordered history.
// Messages without an ID get one so merge reconciliation stays stable.
func toHistory(msgs []MessageDTO) convo.History {
	var incoming convo.History
	for _, m := range msgs {
		msg := convo.NewMessage(m.Role, m.Content)
		if m.ID != "" {
			msg.ID = m.ID
		}
		if m.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
				msg.Timestamp = ts
			}
		}
		incoming = append(incoming, msg)
	}
	return convo.History(nil).Merge(incoming)
}
