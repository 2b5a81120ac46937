package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"palchat/internal/chat/service"
	"palchat/internal/common"
)

// HTTPHandler serves the durable-store side of the protocol: history
// backfill, the inbox, soft delete and read marks. Clients hit history on
// every (re)connect instead of trusting buffered socket events.
type HTTPHandler struct {
	chatService service.ChatService
}

func NewHTTPHandler(chatService service.ChatService) *HTTPHandler {
	return &HTTPHandler{chatService: chatService}
}

// Register mounts the chat routes behind the auth middleware.
func (h *HTTPHandler) Register(router *mux.Router) {
	chat := router.NewRoute().Subrouter()
	chat.Use(common.AuthMiddleware)

	chat.HandleFunc("/messages/chat/{otherId}/{productId}", h.history).Methods("GET")
	chat.HandleFunc("/messages/chat/{otherId}/{productId}/read", h.markRead).Methods("POST")
	chat.HandleFunc("/messages/{id:[0-9]+}", h.deleteMessage).Methods("DELETE")
	chat.HandleFunc("/chat/list", h.chatList).Methods("GET")
}

// GET /messages/chat/{otherId}/{productId} — full room history, ascending.
func (h *HTTPHandler) history(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	caller := common.CallerID(r.Context())

	messages, err := h.chatService.History(r.Context(), caller, vars["otherId"], vars["productId"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"messages": messages,
	})
}

// GET /chat/list — inbox entries, newest room first.
func (h *HTTPHandler) chatList(w http.ResponseWriter, r *http.Request) {
	caller := common.CallerID(r.Context())

	entries, err := h.chatService.ListRooms(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"chats": entries,
	})
}

// DELETE /messages/{id} — sender-only soft delete.
func (h *HTTPHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	caller := common.CallerID(r.Context())

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid message id"})
		return
	}

	if err := h.chatService.DeleteMessage(r.Context(), caller, uint(id)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /messages/chat/{otherId}/{productId}/read — clear unread marks for
// the caller's side of the room. Clients call it when the thread opens.
func (h *HTTPHandler) markRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	caller := common.CallerID(r.Context())

	if err := h.chatService.MarkRead(r.Context(), caller, vars["otherId"], vars["productId"]); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case common.IsValidation(err):
		status = http.StatusBadRequest
	case common.IsAuth(err):
		status = http.StatusForbidden
	case common.IsNotFound(err):
		status = http.StatusNotFound
	default:
		log.Printf("http: internal error: %v", err)
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("http: write response: %v", err)
	}
}
