package chat

import (
	"fmt"
	"net/http"
	"strings"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-server/internal/config"
	"github.com/nguyentranbao-ct/chat-server/internal/models"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
)

// Gateway upgrades HTTP requests into chat sessions. The token is verified
// before the upgrade so an unauthenticated caller never holds a socket.
type Gateway struct {
	hub    *Hub
	typing *TypingTracker

	auth     usecase.AuthUsecase
	messages usecase.MessageUsecase
	rooms    usecase.RoomUsecase
	files    usecase.FileUsecase

	upgrader       websocket.Upgrader
	sendBufferSize int
}

func NewGateway(
	conf *config.Config,
	hub *Hub,
	typing *TypingTracker,
	auth usecase.AuthUsecase,
	messages usecase.MessageUsecase,
	rooms usecase.RoomUsecase,
	files usecase.FileUsecase,
) *Gateway {
	return &Gateway{
		hub:      hub,
		typing:   typing,
		auth:     auth,
		messages: messages,
		rooms:    rooms,
		files:    files,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; token auth is
			// the access control, not the Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBufferSize: conf.Chat.SendBufferSize,
	}
}

// Handle is the GET /ws endpoint.
func (g *Gateway) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := g.auth.Verify(ctx, bearerToken(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	client := &Client{
		id:       uuid.NewString(),
		userID:   user.ID.Hex(),
		userOID:  user.ID,
		username: user.Username,
		hub:      g.hub,
		typing:   g.typing,
		conn:     conn,
		send:     make(chan []byte, g.sendBufferSize),
		messages: g.messages,
		rooms:    g.rooms,
		files:    g.files,
	}

	g.hub.Register(client)
	log.Infow(ctx, "chat session opened", "session_id", client.id, "user_id", client.userID)

	go client.writePump()
	client.readPump()
	return nil
}

// bearerToken pulls the credential from the Authorization header or, for
// browser WebSocket clients that cannot set headers, the token query param.
func bearerToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.QueryParam("token")
}

// NewTypingTrackerFor wires a tracker's expiry broadcasts to the hub. The
// expiring user's own session is excluded, matching an explicit stop.
func NewTypingTrackerFor(conf *config.Config, hub *Hub) *TypingTracker {
	return NewTypingTracker(conf.Chat.TypingExpiry, func(roomID, excludeSessionID string, ev models.TypingEvent) {
		hub.ToRoomExcept(roomID, excludeSessionID, models.EventUserStoppedTyping, ev)
	})
}
