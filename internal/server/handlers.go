package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hay-kot/chatbox/internal/core/chat"
)

// Handler serves the chat API.
type Handler struct {
	store    chat.Store
	hub      *Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a Handler. Stream upgrades are accepted from the same
// origins CORS allows.
func NewHandler(store chat.Store, hub *Hub, origins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// ListMessagesResponse is the body of GET /api/messages.
type ListMessagesResponse struct {
	Messages []chat.Message `json:"messages"`
}

// MessageResponse is the body of a successful POST /api/messages.
type MessageResponse struct {
	Message chat.Message `json:"message"`
}

// ListMessages handles GET /api/messages?since=<id>.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.store.ListSince(parseSince(r.URL.Query().Get("since")))
	if messages == nil {
		messages = []chat.Message{}
	}

	h.JSON(w, http.StatusOK, ListMessagesResponse{Messages: messages})
}

// parseSince treats a missing, unparsable or negative cursor as 0.
func parseSince(raw string) int64 {
	since, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || since < 0 {
		return 0
	}
	return since
}

// PostMessage handles POST /api/messages. The body is a JSON object with
// "user", "text" and an optional "imageDataUrl".
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		h.Error(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}

	fields, ok := decodeObject(body)
	if !ok {
		h.Error(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}

	user := strings.TrimSpace(stringField(fields, "user"))
	if user == "" {
		h.Error(w, http.StatusBadRequest, "Missing user.")
		return
	}

	text := strings.TrimSpace(stringField(fields, "text"))

	var (
		msg       chat.Message
		appendErr error
	)

	if dataURL, _ := fields["imageDataUrl"].(string); dataURL != "" {
		mimeType, data, ok := parseDataURL(dataURL)
		if !ok {
			h.Error(w, http.StatusBadRequest, "Invalid imageDataUrl.")
			return
		}
		msg, appendErr = h.store.AppendImage(user, text, "upload"+extensionForMIME(mimeType), data)
	} else {
		if text == "" {
			h.Error(w, http.StatusBadRequest, "Missing text.")
			return
		}
		msg, appendErr = h.store.AppendText(user, text)
	}

	if appendErr != nil {
		h.appendError(w, appendErr)
		return
	}

	h.hub.Broadcast(msg)
	h.JSON(w, http.StatusCreated, MessageResponse{Message: msg})
}

func (h *Handler) appendError(w http.ResponseWriter, err error) {
	var (
		validationErr *chat.ValidationError
		tooLarge      *chat.PayloadTooLargeError
	)

	switch {
	case errors.As(err, &validationErr):
		h.Error(w, http.StatusBadRequest, fmt.Sprintf("Missing %s.", validationErr.Field))
	case errors.As(err, &tooLarge):
		h.Error(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Image too large (%d bytes). Limit is %d bytes.", tooLarge.Size, tooLarge.Limit))
	default:
		h.logger.Error().Err(err).Msg("failed to append message")
		h.Error(w, http.StatusInternalServerError, "Failed to save message.")
	}
}

// decodeObject parses body as a JSON object. Arrays, scalars and null are
// rejected the same way as malformed JSON.
func decodeObject(body []byte) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}

	return fields, true
}

// stringField returns a scalar field as text; objects, arrays and null read
// as empty.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// Health handles GET /api/health. It does not touch the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, HealthResponse{OK: true})
}

// Stream handles GET /api/stream, upgrading to a websocket that receives
// every message appended after the connection is established.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := h.hub.NewClient(conn)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.ToLower(o)] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return allowed[strings.ToLower(origin)]
	}
}
