package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	pkgmdw "github.com/nguyentranbao-ct/chat-server/internal/server/middleware"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
)

type FileController interface {
	Upload(c echo.Context) error
	Download(c echo.Context) error
}

type fileController struct {
	fileUsecase usecase.FileUsecase
}

func NewFileController(fileUsecase usecase.FileUsecase) FileController {
	return &fileController{
		fileUsecase: fileUsecase,
	}
}

func (fc *fileController) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer src.Close()

	file, err := fc.fileUsecase.Upload(
		c.Request().Context(),
		pkgmdw.CurrentUser(c).ID,
		fh.Filename,
		fh.Header.Get(echo.HeaderContentType),
		src,
	)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusCreated, "file uploaded", file)
}

func (fc *fileController) Download(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	file, rc, err := fc.fileUsecase.Download(c.Request().Context(), fileID)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+file.Filename+`"`)
	return c.Stream(http.StatusOK, file.ContentType, rc)
}
