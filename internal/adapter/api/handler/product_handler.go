package handler

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/domain/entity"
	"lapakda/internal/usecase"
	"lapakda/pkg/errors"
	"lapakda/pkg/response"
	"lapakda/pkg/utils"
)

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
	}
}

type productRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Description string   `json:"description" validate:"max=5000"`
	Price       int64    `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Condition   string   `json:"condition" validate:"required,oneof=new used"`
	Weight      int      `json:"weight" validate:"gte=0"`
	Images      []string `json:"images" validate:"max=5,dive,url"`
	District    string   `json:"district" validate:"required"`
	Subdistrict string   `json:"subdistrict" validate:"required"`
	Status      string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r productRequest) input() usecase.ProductInput {
	return usecase.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
		Condition:   r.Condition,
		Weight:      r.Weight,
		Images:      r.Images,
		District:    r.District,
		Subdistrict: r.Subdistrict,
		Status:      r.Status,
	}
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.productUseCase.GetProducts(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return response.Error(c, err)
	}
	p := utils.GetPaginationParams(c)
	return response.Paginated(c, utils.Paginate(products, p), int64(len(products)), p.Page, p.PageSize)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.productUseCase.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"product":       product,
		"category_name": entity.CategoryName(product.Category),
	})
}

func (h *ProductHandler) ListMyProducts(c echo.Context) error {
	products, err := h.productUseCase.GetProductsByUser(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, products)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.AddProduct(c.Request().Context(), getUserIDFromContext(c), req.input())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, product)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.UpdateProduct(c.Request().Context(), c.Param("id"), getUserIDFromContext(c), req.input())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.productUseCase.DeleteProduct(c.Request().Context(), c.Param("id"), getUserIDFromContext(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Product deleted"})
}

// UploadImages takes up to five multipart "images" parts.
func (h *ProductHandler) UploadImages(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid multipart form", err))
	}

	parts := form.File["images"]
	uploads := make([]usecase.Upload, 0, len(parts))
	for _, fh := range parts {
		upload, src, err := openUpload(fh)
		if err != nil {
			return response.Error(c, err)
		}
		defer src.Close()
		uploads = append(uploads, upload)
	}

	urls, err := h.productUseCase.UploadProductImages(c.Request().Context(), getUserIDFromContext(c), uploads)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"urls": urls})
}

// Catalog serves the fixed lists the storefront renders from.
func (h *ProductHandler) Catalog(c echo.Context) error {
	return response.Success(c, map[string]interface{}{
		"categories":       entity.Categories,
		"districts":        entity.Districts,
		"shipping_methods": entity.ShippingMethods,
		"payment_methods":  entity.PaymentMethods,
	})
}
