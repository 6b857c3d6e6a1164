package websocket

import (
	"net/http"
	"time"

	"clinicflow/internal/delivery/dto"
	"clinicflow/internal/delivery/http/handler"
	"clinicflow/internal/delivery/http/middleware"
	"clinicflow/internal/usecase"
	"clinicflow/pkg/response"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	clientBufferSize = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated admin requests to a live tracking feed.
type Handler struct {
	hub             *Hub
	trackingUsecase usecase.TrackingUsecase
	log             *logrus.Logger
}

func NewHandler(hub *Hub, trackingUsecase usecase.TrackingUsecase, log *logrus.Logger) *Handler {
	return &Handler{
		hub:             hub,
		trackingUsecase: trackingUsecase,
		log:             log,
	}
}

// Live serves GET /tracking/live?q=&status=&location=
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	query := r.URL.Query()
	filter, err := h.trackingUsecase.LiveFilter(identity, &dto.TrackingSearchRequest{
		Query:    query.Get("q"),
		Status:   query.Get("status"),
		Location: query.Get("location"),
	})
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.log.Warnf("Failed to upgrade live tracking connection: %+v", err)
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		Filter: filter,
		Send:   make(chan []byte, clientBufferSize),
		conn:   ws,
	}
	h.hub.Register(client)
	h.log.WithField("client_id", client.ID).Info("Live tracking client connected")

	go h.writePump(client, ws)
	go h.readPump(client, ws)
}

// readPump discards inbound frames and unregisters the client when the connection closes.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
		h.log.WithField("client_id", client.ID).Info("Live tracking client disconnected")
	}()

	ws.SetReadLimit(512)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes messages from the Send channel and keeps the connection alive with pings.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
