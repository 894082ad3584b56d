package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Stream event names
const (
	EventGenerate = "generate"
	EventStatus   = "status"
	EventPipeline = "pipeline"
	EventResult   = "result"
	EventError    = "error"
)

const streamWriteTimeout = 5 * time.Second

// StreamMessage is the envelope for every websocket frame in both directions
type StreamMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type inboundMessage struct {
	Event string               `json:"event"`
	Data  domain.OutfitRequest `json:"data"`
}

// HandleStream handles GET /api/outfits/stream. Each "generate" message runs
// one generation and emits pipeline steps as they start, then the result.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx := r.Context()
	caller := callerFrom(r)
	if caller.UserID == "" {
		h.emit(ctx, conn, EventError, map[string]string{"message": "Unauthorized WebSocket connection"})
		conn.Close(websocket.StatusPolicyViolation, "unauthorized")
		return
	}
	key := limitKey(caller, r)
	defer h.streamLimit.Forget(key)

	log := h.log.With().Str("user_id", caller.UserID).Logger()
	log.Debug().Msg("Stream connected")
	h.emit(ctx, conn, EventStatus, map[string]string{"message": "Connected to outfit streaming"})

	for {
		var msg inboundMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			log.Debug().Err(err).Msg("Stream read ended")
			return
		}

		if msg.Event != EventGenerate {
			h.emit(ctx, conn, EventError, map[string]string{"message": "unknown event " + msg.Event})
			continue
		}
		if !h.streamLimit.Allow(key) {
			h.emit(ctx, conn, EventError, map[string]string{"message": "Too many websocket requests. Please wait 1 minute."})
			continue
		}

		progress := func(step string) {
			h.emit(ctx, conn, EventPipeline, map[string]string{"step": step, "status": "running"})
		}

		generated, err := h.service.Generate(ctx, caller, msg.Data, progress)
		if err != nil {
			status, body := errorBody(err)
			if status >= http.StatusInternalServerError {
				log.Error().Err(err).Msg("Streamed generation failed")
			}
			body["message"] = body["error"]
			delete(body, "error")
			h.emit(ctx, conn, EventError, body)
			continue
		}

		h.emit(ctx, conn, EventResult, map[string]interface{}{
			"generationId": generated.ID,
			"outfit":       generated.Outfit,
		})
	}
}

func (h *Handler) emit(ctx context.Context, conn *websocket.Conn, event string, data interface{}) {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, StreamMessage{Event: event, Data: data}); err != nil {
		h.log.Debug().Err(err).Str("event", event).Msg("Failed to write stream event")
	}
}
