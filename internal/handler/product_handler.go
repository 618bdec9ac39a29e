package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"bakery/internal/errors"
	"bakery/internal/service"
)

// ProductHandler handles product and product image endpoints.
type ProductHandler struct {
	products service.ProductService
	images   service.ImageService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products service.ProductService, images service.ImageService) *ProductHandler {
	return &ProductHandler{products: products, images: images}
}

// VariantRequest is one variant of a product payload.
type VariantRequest struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name" validate:"required,max=100"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock" validate:"gte=0"`
	NutritionInfo string          `json:"nutrition_info" validate:"max=500"`
}

// ProductRequest is the create/update payload.
type ProductRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=1000"`
	Image       string           `json:"image" validate:"max=255"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	CategoryID  uint             `json:"category_id" validate:"required"`
	Variants    []VariantRequest `json:"variants" validate:"required,min=1,dive"`
}

func (r ProductRequest) input() service.ProductInput {
	in := service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		BasePrice:   r.BasePrice,
		CategoryID:  r.CategoryID,
		Variants:    make([]service.VariantInput, 0, len(r.Variants)),
	}
	for _, v := range r.Variants {
		in.Variants = append(in.Variants, service.VariantInput{
			ID:            v.ID,
			Name:          v.Name,
			Price:         v.Price,
			Stock:         v.Stock,
			NutritionInfo: v.NutritionInfo,
		})
	}
	return in
}

// ImageRequest registers an image already stored in object storage.
type ImageRequest struct {
	URL       string `json:"url" validate:"required,max=500"`
	Filename  string `json:"filename" validate:"required,max=255"`
	MimeType  string `json:"mime_type" validate:"max=100"`
	SizeBytes int64  `json:"size_bytes" validate:"gte=0"`
	IsPrimary bool   `json:"is_primary"`
}

// List godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param category query int false "Only products of this category"
// @Success 200 {array} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	var categoryID *uint
	if raw := c.QueryParam("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return respondError(c, errors.Invalid("category", "must be a positive integer"))
		}
		v := uint(id)
		categoryID = &v
	}
	products, err := h.products.List(c.Request().Context(), categoryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Get godoc
// @Summary Get product with variants and images
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListByCategory godoc
// @Summary List products of a category
// @Tags products
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {array} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/category/{id} [get]
func (h *ProductHandler) ListByCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	products, err := h.products.ListByCategory(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Create godoc
// @Summary Create product with variants
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	product, err := h.products.Create(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// Update godoc
// @Summary Update product and replace its variants
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	product, err := h.products.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Delete godoc
// @Summary Delete product with its variants and images
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListImages godoc
// @Summary List product images in display order
// @Tags images
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {array} model.Image
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/images [get]
func (h *ProductHandler) ListImages(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	images, err := h.images.List(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, images)
}

// RegisterImage godoc
// @Summary Register a product image
// @Tags images
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ImageRequest true "Image"
// @Success 201 {object} model.Image
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/images [post]
func (h *ProductHandler) RegisterImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ImageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	image, err := h.images.Register(c.Request().Context(), id, service.ImageInput{
		URL:       req.URL,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, image)
}

// SetPrimaryImage godoc
// @Summary Make an image the product's primary image
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param imageId path int true "Image ID"
// @Success 200 {object} model.Image
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/images/{imageId}/primary [patch]
func (h *ProductHandler) SetPrimaryImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := pathID(c, "imageId")
	if err != nil {
		return err
	}
	image, err := h.images.SetPrimary(c.Request().Context(), id, imageID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, image)
}

// DeleteImage godoc
// @Summary Delete a product image
// @Tags images
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param imageId path int true "Image ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/images/{imageId} [delete]
func (h *ProductHandler) DeleteImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := pathID(c, "imageId")
	if err != nil {
		return err
	}
	if err := h.images.Delete(c.Request().Context(), id, imageID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
