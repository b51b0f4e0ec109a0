package handler

import (
	"bytes"
	"database/sql"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"agenda/internal/service"
	"agenda/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// db is nil with the memory backend and store is nil without MinIO.
func RegisterRoutes(app *fiber.App, db *sql.DB, store storage.Storage, contacts service.ContactService, products service.ProductService) {
	app.Get("/health", HealthCheck(db, store))
	app.Get("/healthz", LivenessProbe())

	// Literal segments go before /:id so they are not captured as ids.
	ct := app.Group("/contactos")
	ct.Get("/", ListContacts(contacts))
	ct.Post("/", CreateContact(contacts))
	ct.Post("/import", ImportContacts(contacts))
	ct.Get("/export.vcf", ExportContactsVCF(contacts))
	ct.Get("/export.csv", ExportContactsCSV(contacts))
	ct.Get("/:id", GetContact(contacts))
	ct.Put("/:id", UpdateContact(contacts))
	ct.Delete("/:id", DeleteContact(contacts))

	pr := app.Group("/productos")
	pr.Get("/", ListProducts(products))
	pr.Post("/", CreateProduct(products))
	pr.Get("/categorias", ListCategories(products))
	pr.Post("/import", ImportProducts(products))
	pr.Get("/export.csv", ExportProductsCSV(products))
	pr.Get("/:id", GetProduct(products))
	pr.Put("/:id", UpdateProduct(products))
	pr.Delete("/:id", DeleteProduct(products))
	pr.Post("/:id/stock", AdjustStock(products))
	pr.Post("/:id/imagen", UploadProductImage(products))
	pr.Get("/:id/imagen", ProductImage(products))
}

// requestError is a client error detected before calling the service.
type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) write(c *fiber.Ctx) error {
	return writeError(c, e.status, e.code, e.message)
}

func pathID(c *fiber.Ctx) (string, bool) {
	u, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// parsePage reads limit and offset. Range clamping is left to the service.
func parsePage(c *fiber.Ctx) (int, int, *requestError) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, &requestError{fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit"}
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, &requestError{fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset"}
	}
	return limit, offset, nil
}

type upload struct {
	file        multipart.File
	filename    string
	contentType string
	size        int64
}

// openUpload opens the multipart field "file". The caller closes up.file.
func openUpload(c *fiber.Ctx) (*upload, *requestError) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, &requestError{fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, &requestError{fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file"}
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &upload{file: f, filename: fh.Filename, contentType: ct, size: fh.Size}, nil
}

// sendExport renders an export fully before answering so a failure
// midway still yields an error response instead of a truncated file.
func sendExport(c *fiber.Ctx, contentType, filename string, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return writeServiceError(c, err, "export")
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(buf.Bytes())
}
