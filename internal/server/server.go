package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/chat-server/internal/chat"
	"github.com/nguyentranbao-ct/chat-server/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/chat-server/internal/server/middleware"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
)

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	authUsecase usecase.AuthUsecase,
	gateway *chat.Gateway,
	handler Controller,
	authController AuthController,
	roomController RoomController,
	messageController MessageController,
	fileController FileController,
) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = errorHandler()

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			return c.Request().RequestURI != "/health"
		},
	}

	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", handler.Health)
	e.GET("/ws", gateway.Handle)

	api := e.Group("/api/v1")
	api.POST("/auth/register", authController.Register)
	api.POST("/auth/login", authController.Login)

	authed := api.Group("", pkgmdw.JWTAuth(authUsecase))
	authed.GET("/auth/me", authController.Me)

	authed.POST("/rooms", roomController.CreateRoom)
	authed.GET("/rooms", roomController.ListRooms)
	authed.GET("/rooms/:id", roomController.GetRoom)
	authed.POST("/rooms/:id/messages", messageController.SendMessage)
	authed.GET("/rooms/:id/messages", messageController.ListMessages)
	authed.GET("/rooms/:id/messages/search", messageController.SearchMessages)

	authed.PUT("/messages/:id", messageController.EditMessage)
	authed.DELETE("/messages/:id", messageController.DeleteMessage)
	authed.POST("/messages/:id/reactions", messageController.AddReaction)
	authed.DELETE("/messages/:id/reactions", messageController.RemoveReaction)
	authed.POST("/messages/:id/read", messageController.MarkRead)
	authed.POST("/messages/:id/pin", messageController.TogglePin)
	authed.POST("/messages/:id/favorite", messageController.AddFavorite)
	authed.DELETE("/messages/:id/favorite", messageController.RemoveFavorite)
	authed.GET("/favorites", messageController.ListFavorites)

	authed.POST("/files", fileController.Upload)
	authed.GET("/files/:id", fileController.Download)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
