package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/putao520/qrcodesdk/internal/backend/database"
	"github.com/putao520/qrcodesdk/internal/core"
	"github.com/putao520/qrcodesdk/internal/qrcode"
	"github.com/putao520/qrcodesdk/internal/raster"
	"github.com/putao520/qrcodesdk/internal/symbol"
)

// MaxContentLength is the longest text accepted for encoding, in characters.
// Multi-byte text can still exceed the symbol capacity and is rejected with 422.
const MaxContentLength = symbol.MaxByteContent

type APIService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type renderRequest struct {
	Content  string `query:"content" validate:"required,max=1272"`
	Compress bool   `query:"compress"`
}

type generateRequest struct {
	Content  string `json:"content" form:"content" validate:"required,max=1272"`
	Compress bool   `json:"compress" form:"compress"`
}

type CodeResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	MimeType  string    `json:"mimeType"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type DecodeResponse struct {
	Content string `json:"content"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
		config:      config,
	}
}

func (service *APIService) SetRoutes(e *echo.Echo) {
	e.GET(ProbePath, service.probeHandler)

	api := e.Group("/api")
	api.GET("/qrcode", service.renderHandler)
	api.POST("/qrcodes", service.generateHandler)
	api.GET("/qrcodes", service.listHandler)
	api.GET("/qrcodes/:id/image", service.imageHandler)
	api.DELETE("/qrcodes/:id", service.deleteHandler)
	api.POST("/decode", service.decodeHandler)
}

func (service *APIService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (service *APIService) renderHandler(ctx echo.Context) error {
	var req renderRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	data, err := service.coreService.Render(ctx.Request().Context(), req.Content, nil, req.Compress)
	if err != nil {
		return renderError("renderHandler", err)
	}
	return ctx.Blob(http.StatusOK, service.coreService.MimeType(), data)
}

func (service *APIService) generateHandler(ctx echo.Context) error {
	var req generateRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	logo, err := optionalUpload(ctx, "logo")
	if err != nil {
		slog.Warn("generateHandler: failed to read logo", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read logo")
	}

	code, err := service.coreService.Generate(ctx.Request().Context(), req.Content, logo, req.Compress)
	if err != nil {
		return renderError("generateHandler", err)
	}

	return ctx.JSON(http.StatusCreated, CodeResponse{
		ID:       code.ID,
		Content:  code.Content,
		MimeType: service.coreService.MimeType(),
		URL:      imageURL(code.ID),
	})
}

func (service *APIService) listHandler(ctx echo.Context) error {
	codes, err := service.coreService.ListCodes()
	if err != nil {
		slog.Error("listHandler: failed to list codes", "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list codes")
	}

	out := make([]CodeResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, CodeResponse{
			ID:        code.ID,
			Content:   code.Content,
			MimeType:  mimeTypeOf(code.Format),
			URL:       imageURL(code.ID),
			CreatedAt: code.CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, out)
}

func (service *APIService) imageHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	code, err := service.coreService.GetCode(id)
	if err != nil {
		slog.Error("imageHandler: failed to load code", "status", http.StatusInternalServerError, "code_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load code")
	}
	if code == nil || len(code.Image) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "code not found")
	}
	return ctx.Blob(http.StatusOK, mimeTypeOf(code.Format), code.Image)
}

func (service *APIService) deleteHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := service.coreService.DeleteCode(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "code not found")
		}
		slog.Error("deleteHandler: failed to delete code", "status", http.StatusInternalServerError, "code_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete code")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (service *APIService) decodeHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing image upload")
	}
	data, err := readUpload(file)
	if err != nil {
		slog.Error("decodeHandler: failed to read upload", "status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read uploaded file")
	}

	content, ok := service.coreService.Decode(data)
	if !ok {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no QR code found")
	}
	return ctx.JSON(http.StatusOK, DecodeResponse{Content: content})
}

// optionalUpload returns nil when the request is not multipart or lacks the field.
func optionalUpload(ctx echo.Context, field string) ([]byte, error) {
	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	file, err := ctx.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readUpload(file)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Filename, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()
	return io.ReadAll(src)
}

func renderError(handler string, err error) error {
	if errors.Is(err, qrcode.ErrEmptyContent) {
		return echo.NewHTTPError(http.StatusBadRequest, "content must not be empty")
	}
	if errors.Is(err, qrcode.ErrContentTooLong) {
		slog.Debug(handler+": content exceeds symbol capacity", "status", http.StatusUnprocessableEntity, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "content too long for a QR code")
	}
	slog.Error(handler+": failed to render code", "status", http.StatusInternalServerError, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to render code")
}

func imageURL(id string) string {
	return "/api/qrcodes/" + id + "/image"
}

func mimeTypeOf(format string) string {
	f, err := raster.ParseFormat(format)
	if err != nil {
		return echo.MIMEOctetStream
	}
	return f.MimeType()
}
