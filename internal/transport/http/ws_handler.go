package http

import (
	"encoding/json"
	"net/http"

	"photosynthesis-lab/internal/app"
	"photosynthesis-lab/internal/domain"
	"photosynthesis-lab/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WSHandler struct {
	service  *app.LabService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.LabService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ackPayload struct {
	Name    domain.ActionName `json:"name"`
	Applied bool              `json:"applied"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS opens a workspace for the connection, streams its snapshots and
// applies inbound actions. The workspace is closed when the socket goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	contentID := r.URL.Query().Get("contentId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	opened, err := h.service.Open(r.Context(), contentID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	workspaceID := opened.WorkspaceID
	log = log.WithField("workspace_id", workspaceID)
	defer func() {
		if err := h.service.Close(r.Context(), workspaceID); err != nil {
			log.WithError(err).Warn("close workspace")
		}
	}()

	updates, cancel, err := h.service.Subscribe(r.Context(), workspaceID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				conn.Close()
				return
			}
		}
	}()

	// emit gives up once the writer has stopped so the read loop cannot block
	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	emit(outboundMessage[any]{Type: "opened", Payload: opened})

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "snapshot", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "action":
			var action domain.Action
			if err := json.Unmarshal(inbound.Payload, &action); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid action payload"}})
				continue
			}
			_, applied, err := h.service.Apply(r.Context(), workspaceID, action)
			if err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			log.WithFields(logrus.Fields{"action": action.Name, "applied": applied}).Debug("ws action")
			emit(outboundMessage[any]{Type: "ack", Payload: ackPayload{Name: action.Name, Applied: applied}})
		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
