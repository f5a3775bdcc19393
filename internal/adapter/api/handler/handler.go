package handler

import (
	"mime/multipart"

	"github.com/labstack/echo/v4"

	"lapakda/internal/usecase"
	"lapakda/pkg/errors"
)

var (
	authHandler      *AuthHandler
	userHandler      *UserHandler
	productHandler   *ProductHandler
	cartHandler      *CartHandler
	addressHandler   *AddressHandler
	orderHandler     *OrderHandler
	adminHandler     *AdminHandler
	chatHandler      *ChatHandler
	fileHandler      *FileHandler
	healthHandler    *HealthHandler
	websocketHandler *WebSocketHandler
)

// UseCases bundles what the HTTP layer needs.
type UseCases struct {
	Auth    *usecase.AuthUseCase
	User    *usecase.UserUseCase
	Product *usecase.ProductUseCase
	Cart    *usecase.CartUseCase
	Address *usecase.AddressUseCase
	Order   *usecase.OrderUseCase
	Chat    *usecase.ChatUseCase
	File    *usecase.FileUseCase
}

func Setup(uc UseCases, dataStore string) {
	authHandler = NewAuthHandler(uc.Auth)
	userHandler = NewUserHandler(uc.User)
	productHandler = NewProductHandler(uc.Product)
	cartHandler = NewCartHandler(uc.Cart)
	addressHandler = NewAddressHandler(uc.Address)
	orderHandler = NewOrderHandler(uc.Order)
	adminHandler = NewAdminHandler(uc.Order)
	chatHandler = NewChatHandler(uc.Chat)
	fileHandler = NewFileHandler(uc.File)
	healthHandler = NewHealthHandler(dataStore)
}

// SetupWebSocket installs the /ws handler; it needs the connection manager
// in addition to the use cases.
func SetupWebSocket(h *WebSocketHandler) {
	websocketHandler = h
}

func GetAuthHandler() *AuthHandler           { return authHandler }
func GetUserHandler() *UserHandler           { return userHandler }
func GetProductHandler() *ProductHandler     { return productHandler }
func GetCartHandler() *CartHandler           { return cartHandler }
func GetAddressHandler() *AddressHandler     { return addressHandler }
func GetOrderHandler() *OrderHandler         { return orderHandler }
func GetAdminHandler() *AdminHandler         { return adminHandler }
func GetChatHandler() *ChatHandler           { return chatHandler }
func GetFileHandler() *FileHandler           { return fileHandler }
func GetHealthHandler() *HealthHandler       { return healthHandler }
func GetWebSocketHandler() *WebSocketHandler { return websocketHandler }

func getUserIDFromContext(c echo.Context) string {
	if uid, ok := c.Get("uid").(string); ok {
		return uid
	}
	return ""
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}

// openUpload turns a multipart part into a use-case upload. The caller
// closes the returned file.
func openUpload(fh *multipart.FileHeader) (usecase.Upload, multipart.File, error) {
	src, err := fh.Open()
	if err != nil {
		return usecase.Upload{}, nil, errors.Internal("Unable to read file", err)
	}
	return usecase.Upload{
		Reader:      src,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
	}, src, nil
}

func formFile(c echo.Context, field string) (usecase.Upload, multipart.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return usecase.Upload{}, nil, errors.BadRequest("Missing or invalid file", err)
	}
	return openUpload(fh)
}
