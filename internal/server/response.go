package server

import (
	"github.com/labstack/echo/v4"
)

// Meta carries pagination details alongside list responses.
type Meta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// Response is the envelope every HTTP endpoint answers with.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, Response{Status: "success", Data: data})
}

func respondMessage(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Response{Status: "success", Message: message, Data: data})
}

func respondList(c echo.Context, code int, data any, meta Meta) error {
	return c.JSON(code, Response{Status: "success", Data: data, Meta: &meta})
}
