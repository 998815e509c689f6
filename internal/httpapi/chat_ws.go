package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/policy"
	"github.com/antoniostano/claria/internal/protocol"
)

// handleChatWS serves one chat channel. Every user_message frame runs one
// turn; replies are written in the order the frames arrived.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "assistant not configured")
		return
	}
	owner := ownerKey(r, r.URL.Query().Get("user_key"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	log.WithField("owner", policy.ForLog(owner)).Debug("chat channel opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan protocol.UserMessage, 32)
	outbound := make(chan any, 32)

	turnsDone := make(chan struct{})
	go func() {
		defer close(turnsDone)
		for msg := range inbound {
			var frame any
			reply, err := s.assistant.HandleMessage(ctx, owner, msg.Text)
			if err != nil {
				_, code, detail := turnError(err)
				frame = protocol.NewErrorEvent(msg.RequestID, code, detail, code == "turn_failed")
			} else {
				frame = protocol.NewAssistantReply(msg.RequestID, reply)
			}
			select {
			case <-ctx.Done():
				return
			case outbound <- frame:
			}
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					s.metrics.ObserveWSMessage("outbound", "write_error")
					cancel()
					return
				}
				if t, ok := protocol.TypeOf(msg); ok {
					s.metrics.ObserveWSMessage("outbound", string(t))
				}
			}
		}
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			select {
			case outbound <- protocol.NewErrorEvent("", "invalid_client_message", err.Error(), false):
			default:
				// Writes stay single-threaded; drop if the outbound queue is saturated.
				s.metrics.ObserveWSMessage("outbound", "drop_full")
			}
			continue
		}
		msg := parsed.(protocol.UserMessage)
		s.metrics.ObserveWSMessage("inbound", string(msg.Type))
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- msg:
		}
	}

	close(inbound)
	<-turnsDone
	cancel()
	<-writerDone
	log.WithField("owner", policy.ForLog(owner)).Debug("chat channel closed")
}
