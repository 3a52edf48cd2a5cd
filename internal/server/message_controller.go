package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	pkgmdw "github.com/nguyentranbao-ct/chat-server/internal/server/middleware"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
	"github.com/nguyentranbao-ct/chat-server/pkg/util"
)

const maxPageSize = 100

type MessageController interface {
	SendMessage(c echo.Context) error
	ListMessages(c echo.Context) error
	SearchMessages(c echo.Context) error
	EditMessage(c echo.Context) error
	DeleteMessage(c echo.Context) error
	AddReaction(c echo.Context) error
	RemoveReaction(c echo.Context) error
	MarkRead(c echo.Context) error
	TogglePin(c echo.Context) error
	AddFavorite(c echo.Context) error
	RemoveFavorite(c echo.Context) error
	ListFavorites(c echo.Context) error
}

type messageController struct {
	messageUsecase usecase.MessageUsecase
}

func NewMessageController(messageUsecase usecase.MessageUsecase) MessageController {
	return &messageController{
		messageUsecase: messageUsecase,
	}
}

type SendMessageRequest struct {
	Content string `json:"content"`
	ReplyTo string `json:"reply_to"`
	FileID  string `json:"file_id"`
}

func (mc *messageController) SendMessage(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	in := usecase.SendMessageInput{
		Room:    roomID,
		Sender:  pkgmdw.CurrentUser(c).ID,
		Content: req.Content,
	}
	if req.ReplyTo != "" {
		replyTo, err := primitive.ObjectIDFromHex(req.ReplyTo)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid reply_to ID")
		}
		in.ReplyTo = &replyTo
	}
	if req.FileID != "" {
		fileID, err := primitive.ObjectIDFromHex(req.FileID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid file ID")
		}
		in.FileID = &fileID
	}

	message, err := mc.messageUsecase.Send(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "message sent", message)
}

func (mc *messageController) ListMessages(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := queryPage(c)
	includeDeleted, _ := strconv.ParseBool(c.QueryParam("include_deleted"))

	messages, total, err := mc.messageUsecase.List(c.Request().Context(), roomID, page, pageSize, includeDeleted)
	if err != nil {
		return err
	}
	return respondList(c, http.StatusOK, messages, Meta{Page: page, PageSize: pageSize, Total: total})
}

func (mc *messageController) SearchMessages(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := queryPage(c)

	messages, err := mc.messageUsecase.Search(c.Request().Context(), roomID, c.QueryParam("q"), page, pageSize)
	if err != nil {
		return err
	}
	return respondList(c, http.StatusOK, messages, Meta{Page: page, PageSize: pageSize})
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (mc *messageController) EditMessage(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	message, err := mc.messageUsecase.Edit(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID, req.Content)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "message updated", message)
}

func (mc *messageController) DeleteMessage(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := mc.messageUsecase.Delete(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "message deleted", nil)
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}

func (mc *messageController) AddReaction(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ReactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := mc.messageUsecase.AddReaction(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID, req.Emoji); err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "reaction added", nil)
}

func (mc *messageController) RemoveReaction(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	emoji := c.QueryParam("emoji")
	if emoji == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing emoji query param")
	}

	if err := mc.messageUsecase.RemoveReaction(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID, emoji); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "reaction removed", nil)
}

func (mc *messageController) MarkRead(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := mc.messageUsecase.MarkRead(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "message marked as read", nil)
}

func (mc *messageController) TogglePin(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	pinned, err := mc.messageUsecase.TogglePin(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]bool{"pinned": pinned})
}

func (mc *messageController) AddFavorite(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := mc.messageUsecase.AddFavorite(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "message favorited", nil)
}

func (mc *messageController) RemoveFavorite(c echo.Context) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := mc.messageUsecase.RemoveFavorite(c.Request().Context(), pkgmdw.CurrentUser(c).ID, messageID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "favorite removed", nil)
}

func (mc *messageController) ListFavorites(c echo.Context) error {
	page, pageSize := queryPage(c)

	messages, err := mc.messageUsecase.ListFavorites(c.Request().Context(), pkgmdw.CurrentUser(c).ID, page, pageSize)
	if err != nil {
		return err
	}
	return respondList(c, http.StatusOK, messages, Meta{Page: page, PageSize: pageSize})
}

func pathID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func queryPage(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	return util.ClampPage(page, pageSize, maxPageSize)
}
