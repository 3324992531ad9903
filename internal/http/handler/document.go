package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"companydocs/internal/apperr"
	"companydocs/internal/model"
	"companydocs/internal/service"
	"companydocs/internal/validation"
)

type updateDocumentRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=255"`
	IsPublic     *bool   `json:"is_public"`
	DocumentType *string `json:"document_type" validate:"omitempty,oneof=bank-details registration-extract contract invoice quote other"`
}

// UploadDocument stores a file for a company (multipart/form-data, field name: file).
//
// @Summary      Upload a document
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        id             path      string  true   "Company ID"
// @Param        file           formData  file    true   "Document file (50 MiB max)"
// @Param        is_public      formData  bool    false  "Visible on shared profiles"
// @Param        document_type  formData  string  false  "bank-details, registration-extract, contract, invoice, quote or other"
// @Success      201  {object}  model.Document
// @Failure      400  {object}  errorPayload
// @Failure      404  {object}  errorPayload
// @Failure      502  {object}  errorPayload
// @Security     BearerAuth
// @Router       /companies/{id}/documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		isPublic := false
		if v := c.FormValue("is_public"); v != "" {
			if isPublic, err = strconv.ParseBool(v); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_VISIBILITY", "is_public must be true or false")
			}
		}

		var docType *model.DocumentType
		if v := c.FormValue("document_type"); v != "" {
			t, ok := model.ParseDocumentType(v)
			if !ok {
				return apperr.Validationf("unknown document type %q", v)
			}
			docType = &t
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			CompanyID:    companyID,
			Filename:     fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         fh.Size,
			Reader:       f,
			IsPublic:     isPublic,
			DocumentType: docType,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments lists a company's documents.
//
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Param        id      path   string  true   "Company ID"
// @Param        name    query  string  false  "Case-insensitive name filter"
// @Param        mime    query  string  false  "MIME type prefix, e.g. image/"
// @Param        public  query  bool    false  "Only public documents"
// @Param        sort    query  string  false  "name, created_at, size or mime_type"
// @Param        order   query  string  false  "asc or desc"
// @Param        limit   query  int     false  "Page size (default 20, max 100)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  service.DocumentListResult
// @Failure      400  {object}  errorPayload
// @Security     BearerAuth
// @Router       /companies/{id}/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		limit, err := intQuery(c, "limit")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := intQuery(c, "offset")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), service.ListInput{
			CompanyID:  companyID,
			Name:       c.Query("name"),
			MimePrefix: c.Query("mime"),
			PublicOnly: c.QueryBool("public", false),
			Sort:       c.Query("sort"),
			Order:      c.Query("order"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GetDocument returns a document's metadata.
//
// @Summary      Get a document
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  model.Document
// @Failure      404  {object}  errorPayload
// @Security     BearerAuth
// @Router       /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// UpdateDocument renames, re-tags or toggles the visibility of a document.
//
// @Summary      Update document metadata
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Document ID"
// @Param        body  body      updateDocumentRequest  true  "Fields to change"
// @Success      200   {object}  model.Document
// @Failure      400   {object}  errorPayload
// @Failure      404   {object}  errorPayload
// @Security     BearerAuth
// @Router       /documents/{id} [patch]
func UpdateDocument(svc service.DocumentService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := v.Struct(req); err != nil {
			return err
		}

		patch := model.DocumentPatch{Name: req.Name, IsPublic: req.IsPublic}
		if req.DocumentType != nil {
			t, _ := model.ParseDocumentType(*req.DocumentType)
			patch.DocumentType = &t
		}

		doc, err := svc.Update(c.UserContext(), id, patch)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// DocumentURL issues a short-lived signed URL for viewing or downloading a document.
//
// @Summary      Signed URL
// @Tags         documents
// @Produce      json
// @Param        id        path      string  true   "Document ID"
// @Param        download  query     bool    false  "Serve as attachment"
// @Success      200  {object}  service.SignedURL
// @Failure      404  {object}  errorPayload
// @Failure      502  {object}  errorPayload
// @Security     BearerAuth
// @Router       /documents/{id}/url [get]
func DocumentURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		res, err := svc.SignedURL(c.UserContext(), id, c.QueryBool("download", false))
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(res)
	}
}

// DeleteDocument removes the stored file, then the document record.
//
// @Summary      Delete a document
// @Tags         documents
// @Param        id   path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  errorPayload
// @Failure      500  {object}  errorPayload  "PARTIAL_FAILURE: file removed, record kept"
// @Failure      502  {object}  errorPayload
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
