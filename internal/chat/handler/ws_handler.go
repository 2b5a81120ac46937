package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"palchat/internal/chat/service"
	"palchat/internal/common"
	"palchat/internal/presence"
)

// Socket events. Client emits join and send_message; the server pushes
// receive_message to the receiver's sessions and the sender's other
// sessions, message_sent back to the originating session once the write is
// durable, and send_failed only to the originating session.
const (
	EventJoin           = "join"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventMessageSent    = "message_sent"
	EventSendFailed     = "send_failed"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinPayload struct {
	UserID string `json:"userId"`
}

type sendPayload struct {
	ReceiverID string `json:"receiverId"`
	ProductID  string `json:"productId"`
	Text       string `json:"text"`
	Image      string `json:"image"`
}

type failPayload struct {
	Reason string `json:"reason"`
}

// WSHandler owns the persistent-connection side: one read loop per socket,
// join binding into the presence registry, and fan-out of persisted
// messages. It keeps no replay buffer; reconnecting clients refetch history
// over HTTP.
type WSHandler struct {
	chatService service.ChatService
	registry    *presence.Registry
	upgrader    websocket.Upgrader
}

func NewWSHandler(chatService service.ChatService, registry *presence.Registry) *WSHandler {
	return &WSHandler{
		chatService: chatService,
		registry:    registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the reverse proxy in front of
			// this service.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and runs the read loop until the client
// goes away. Transport close, clean or not, unbinds the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	session := presence.NewSession(conn)
	go session.WritePump()

	defer func() {
		h.registry.Unbind(session)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: session %s read error: %v", session.ID, err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			session.Enqueue(encode(EventSendFailed, failPayload{Reason: "malformed event"}))
			continue
		}

		switch env.Event {
		case EventJoin:
			h.handleJoin(session, env.Data)
		case EventSendMessage:
			h.handleSend(r.Context(), session, env.Data)
		default:
			log.Printf("ws: session %s sent unknown event %q", session.ID, env.Event)
		}
	}
}

func (h *WSHandler) handleJoin(session *presence.Session, data json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == "" {
		session.Enqueue(encode(EventSendFailed, failPayload{Reason: "join requires a user id"}))
		return
	}
	h.registry.Bind(p.UserID, session)
}

// handleSend runs the dispatch state machine: validate, persist, fan out,
// ack. Nothing is pushed to anyone before the store write succeeds.
func (h *WSHandler) handleSend(ctx context.Context, session *presence.Session, data json.RawMessage) {
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		session.Enqueue(encode(EventSendFailed, failPayload{Reason: "malformed send payload"}))
		return
	}

	// senderId is whatever identity this connection announced at join;
	// the payload never carries one.
	msg, err := h.chatService.SendMessage(ctx, session.UserID, service.SendRequest{
		ReceiverID:    p.ReceiverID,
		ProductID:     p.ProductID,
		Body:          p.Text,
		AttachmentURL: p.Image,
	})
	if err != nil {
		session.Enqueue(encode(EventSendFailed, failPayload{Reason: failReason(err)}))
		return
	}

	incoming := encode(EventReceiveMessage, msg)
	for _, peer := range h.registry.SessionsFor(msg.ReceiverID) {
		peer.Enqueue(incoming)
	}
	// the sender's other tabs see it as a normal incoming message
	for _, own := range h.registry.SessionsFor(msg.SenderID) {
		if own.ID == session.ID {
			continue
		}
		own.Enqueue(incoming)
	}

	session.Enqueue(encode(EventMessageSent, msg))
}

func failReason(err error) string {
	switch {
	case common.IsAuth(err):
		return "not authorized: join before sending"
	case common.IsValidation(err):
		return err.Error()
	default:
		// storage failure; the client retries the send after backfill
		log.Printf("ws: store append failed: %v", err)
		return "message could not be saved"
	}
}

func encode(event string, data any) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws: encode %s: %v", event, err)
		return nil
	}
	frame, _ := json.Marshal(envelope{Event: event, Data: payload})
	return frame
}
