package handler

import (
	"github.com/gofiber/fiber/v2"

	"companydocs/internal/service"
	"companydocs/internal/validation"
)

type createCompanyRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	TaxID string `json:"tax_id" validate:"omitempty,max=32"`
}

// CreateCompany registers a company owned by the caller.
//
// @Summary      Create a company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        body  body      createCompanyRequest  true  "Company"
// @Success      201   {object}  model.Company
// @Failure      400   {object}  errorPayload
// @Security     BearerAuth
// @Router       /companies [post]
func CreateCompany(svc service.CompanyService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createCompanyRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := v.Struct(req); err != nil {
			return err
		}
		company, err := svc.Create(c.UserContext(), service.CreateCompanyInput{
			Name:    req.Name,
			TaxID:   req.TaxID,
			OwnerID: identity(c).UserID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(company)
	}
}

// GetCompany returns a company.
//
// @Summary      Get a company
// @Tags         companies
// @Produce      json
// @Param        id   path      string  true  "Company ID"
// @Success      200  {object}  model.Company
// @Failure      404  {object}  errorPayload
// @Security     BearerAuth
// @Router       /companies/{id} [get]
func GetCompany(svc service.CompanyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		company, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(company)
	}
}
