package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	pkgmdw "github.com/nguyentranbao-ct/chat-server/internal/server/middleware"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
)

type RoomController interface {
	CreateRoom(c echo.Context) error
	ListRooms(c echo.Context) error
	GetRoom(c echo.Context) error
}

type roomController struct {
	roomUsecase usecase.RoomUsecase
}

func NewRoomController(roomUsecase usecase.RoomUsecase) RoomController {
	return &roomController{
		roomUsecase: roomUsecase,
	}
}

type CreateRoomRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=60"`
	Description string `json:"description" validate:"max=500"`
}

func (rc *roomController) CreateRoom(c echo.Context) error {
	var req CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user := pkgmdw.CurrentUser(c)
	room, err := rc.roomUsecase.Create(c.Request().Context(), user.ID, req.Name, req.Description)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "room created", room)
}

func (rc *roomController) ListRooms(c echo.Context) error {
	rooms, err := rc.roomUsecase.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, rooms)
}

func (rc *roomController) GetRoom(c echo.Context) error {
	roomID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room ID")
	}

	room, err := rc.roomUsecase.Get(c.Request().Context(), roomID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, room)
}
