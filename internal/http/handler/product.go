package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"agenda/internal/service"
)

type stockRequest struct {
	Delta *int `json:"delta"`
}

// ListProducts returns a page of products filtered by q and categoria.
//
// @Summary List products
// @Tags productos
// @Produce json
// @Param q query string false "search text, accent and case insensitive"
// @Param categoria query string false "exact category, case insensitive"
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.ProductListResult
// @Failure 400 {object} errorPayload
// @Router /productos [get]
func ListProducts(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, rerr := parsePage(c)
		if rerr != nil {
			return rerr.write(c)
		}
		res, err := svc.List(c.UserContext(), c.Query("q"), c.Query("categoria"), limit, offset)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.JSON(res)
	}
}

// CreateProduct stores a new product.
//
// @Summary Create product
// @Tags productos
// @Accept json
// @Produce json
// @Param product body service.ProductInput true "product"
// @Success 201 {object} model.Product
// @Failure 422 {object} errorPayload
// @Router /productos [post]
func CreateProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProductInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		p, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// ListCategories returns the distinct non-empty categories.
//
// @Summary List categories
// @Tags productos
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /productos/categorias [get]
func ListCategories(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.Categories(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		if cats == nil {
			cats = []string{}
		}
		return c.JSON(fiber.Map{"data": cats})
	}
}

// GetProduct returns one product.
//
// @Summary Get product
// @Tags productos
// @Produce json
// @Param id path string true "product id (uuid)"
// @Success 200 {object} model.Product
// @Failure 404 {object} errorPayload
// @Router /productos/{id} [get]
func GetProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.JSON(p)
	}
}

// UpdateProduct replaces the writable fields of a product. An empty imagen
// keeps the current image.
//
// @Summary Update product
// @Tags productos
// @Accept json
// @Produce json
// @Param id path string true "product id (uuid)"
// @Param product body service.ProductInput true "product"
// @Success 200 {object} model.Product
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /productos/{id} [put]
func UpdateProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in service.ProductInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		p, err := svc.Update(c.UserContext(), id, in)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.JSON(p)
	}
}

// DeleteProduct removes a product and its stored image.
//
// @Summary Delete product
// @Tags productos
// @Param id path string true "product id (uuid)"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /productos/{id} [delete]
func DeleteProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AdjustStock adds delta (may be negative) to the product's existencia.
//
// @Summary Adjust stock
// @Tags productos
// @Accept json
// @Produce json
// @Param id path string true "product id (uuid)"
// @Param body body stockRequest true "stock delta"
// @Success 200 {object} model.Product
// @Failure 409 {object} errorPayload
// @Router /productos/{id}/stock [post]
func AdjustStock(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req stockRequest
		if err := c.BodyParser(&req); err != nil || req.Delta == nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "delta is required")
		}
		p, err := svc.AdjustStock(c.UserContext(), id, *req.Delta)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.JSON(p)
	}
}

// UploadProductImage stores the image upload (multipart field "file").
//
// @Summary Upload product image
// @Tags productos
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "product id (uuid)"
// @Param file formData file true "image"
// @Success 200 {object} model.Product
// @Failure 503 {object} errorPayload
// @Router /productos/{id}/imagen [post]
func UploadProductImage(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		up, rerr := openUpload(c)
		if rerr != nil {
			return rerr.write(c)
		}
		defer up.file.Close()

		p, err := svc.UploadImage(c.UserContext(), id, up.file, up.filename, up.contentType, up.size)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.JSON(p)
	}
}

// ProductImage redirects to a short-lived URL of the product image.
//
// @Summary Product image
// @Tags productos
// @Param id path string true "product id (uuid)"
// @Success 307
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /productos/{id}/imagen [get]
func ProductImage(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.ImageURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.Redirect(u, fiber.StatusTemporaryRedirect)
	}
}

// ImportProducts reads a CSV upload (multipart field "file") whose header
// names the product columns.
//
// @Summary Import products from CSV
// @Tags productos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "csv file"
// @Success 201 {object} service.ImportResult[model.Product]
// @Failure 400 {object} errorPayload
// @Router /productos/import [post]
func ImportProducts(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, rerr := openUpload(c)
		if rerr != nil {
			return rerr.write(c)
		}
		defer up.file.Close()

		res, err := svc.ImportCSV(c.UserContext(), up.file)
		if err != nil {
			return writeServiceError(c, err, "product")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ExportProductsCSV streams matching products as CSV.
//
// @Summary Export products as CSV
// @Tags productos
// @Produce text/csv
// @Param q query string false "search text"
// @Param categoria query string false "category"
// @Success 200 {file} file
// @Router /productos/export.csv [get]
func ExportProductsCSV(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendExport(c, "text/csv; charset=utf-8", "productos.csv", func(w io.Writer) error {
			return svc.ExportCSV(c.UserContext(), w, c.Query("q"), c.Query("categoria"))
		})
	}
}
