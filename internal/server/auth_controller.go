package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/chat-server/internal/server/middleware"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
)

type AuthController interface {
	Register(c echo.Context) error
	Login(c echo.Context) error
	Me(c echo.Context) error
}

type authController struct {
	authUsecase usecase.AuthUsecase
}

func NewAuthController(authUsecase usecase.AuthUsecase) AuthController {
	return &authController{
		authUsecase: authUsecase,
	}
}

func (ac *authController) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := ac.authUsecase.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "user registered", user)
}

func (ac *authController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	resp, err := ac.authUsecase.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, resp)
}

func (ac *authController) Me(c echo.Context) error {
	return respond(c, http.StatusOK, pkgmdw.CurrentUser(c))
}
