package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"agenda/internal/service"
)

// ListContacts returns a page of contacts, optionally filtered by q.
//
// @Summary List contacts
// @Tags contactos
// @Produce json
// @Param q query string false "search text, accent and case insensitive"
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.ContactListResult
// @Failure 400 {object} errorPayload
// @Router /contactos [get]
func ListContacts(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, rerr := parsePage(c)
		if rerr != nil {
			return rerr.write(c)
		}
		res, err := svc.List(c.UserContext(), c.Query("q"), limit, offset)
		if err != nil {
			return writeServiceError(c, err, "contact")
		}
		return c.JSON(res)
	}
}

// CreateContact stores a new contact.
//
// @Summary Create contact
// @Tags contactos
// @Accept json
// @Produce json
// @Param contact body service.ContactInput true "contact"
// @Success 201 {object} model.Contact
// @Failure 422 {object} errorPayload
// @Router /contactos [post]
func CreateContact(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ContactInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		ct, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err, "contact")
		}
		return c.Status(fiber.StatusCreated).JSON(ct)
	}
}

// GetContact returns one contact.
//
// @Summary Get contact
// @Tags contactos
// @Produce json
// @Param id path string true "contact id (uuid)"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errorPayload
// @Router /contactos/{id} [get]
func GetContact(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ct, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "contact")
		}
		return c.JSON(ct)
	}
}

// UpdateContact replaces the writable fields of a contact.
//
// @Summary Update contact
// @Tags contactos
// @Accept json
// @Produce json
// @Param id path string true "contact id (uuid)"
// @Param contact body service.ContactInput true "contact"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /contactos/{id} [put]
func UpdateContact(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in service.ContactInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		ct, err := svc.Update(c.UserContext(), id, in)
		if err != nil {
			return writeServiceError(c, err, "contact")
		}
		return c.JSON(ct)
	}
}

// DeleteContact removes a contact.
//
// @Summary Delete contact
// @Tags contactos
// @Param id path string true "contact id (uuid)"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /contactos/{id} [delete]
func DeleteContact(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err, "contact")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ImportContacts reads a .vcf upload (multipart field "file").
//
// @Summary Import contacts from vCard
// @Tags contactos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "vcf file"
// @Success 201 {object} service.ImportResult[model.Contact]
// @Failure 400 {object} errorPayload
// @Router /contactos/import [post]
func ImportContacts(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, rerr := openUpload(c)
		if rerr != nil {
			return rerr.write(c)
		}
		defer up.file.Close()

		res, err := svc.ImportVCF(c.UserContext(), up.file)
		if err != nil {
			return writeServiceError(c, err, "contact")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ExportContactsVCF streams matching contacts as a vCard file.
//
// @Summary Export contacts as vCard
// @Tags contactos
// @Produce text/vcard
// @Param q query string false "search text"
// @Success 200 {file} file
// @Router /contactos/export.vcf [get]
func ExportContactsVCF(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendExport(c, "text/vcard; charset=utf-8", "contactos.vcf", func(w io.Writer) error {
			return svc.ExportVCF(c.UserContext(), w, c.Query("q"))
		})
	}
}

// ExportContactsCSV streams matching contacts as CSV.
//
// @Summary Export contacts as CSV
// @Tags contactos
// @Produce text/csv
// @Param q query string false "search text"
// @Success 200 {file} file
// @Router /contactos/export.csv [get]
func ExportContactsCSV(svc service.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendExport(c, "text/csv; charset=utf-8", "contactos.csv", func(w io.Writer) error {
			return svc.ExportCSV(c.UserContext(), w, c.Query("q"))
		})
	}
}
