package handler

import (
	"github.com/gofiber/fiber/v2"

	"companydocs/internal/model"
	"companydocs/internal/service"
	"companydocs/internal/validation"
)

type createShareRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
}

type receivedSharesResponse struct {
	Data []model.ReceivedShare `json:"data"`
}

// CreateShare shares a company profile with an email address.
//
// @Summary      Share a company
// @Tags         shares
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Company ID"
// @Param        body  body      createShareRequest  true  "Recipient"
// @Success      201   {object}  model.Share
// @Failure      400   {object}  errorPayload
// @Failure      404   {object}  errorPayload
// @Security     BearerAuth
// @Router       /companies/{id}/shares [post]
func CreateShare(svc service.ShareService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		var req createShareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := v.Struct(req); err != nil {
			return err
		}
		share, err := svc.Create(c.UserContext(), service.CreateShareInput{
			CompanyID:      companyID,
			RecipientEmail: req.RecipientEmail,
			CreatedBy:      identity(c).UserID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(share)
	}
}

// ListReceivedShares lists the companies shared with the caller, one per tax id.
//
// @Summary      Companies shared with me
// @Tags         shares
// @Produce      json
// @Success      200  {object}  receivedSharesResponse
// @Failure      401  {object}  errorPayload
// @Security     BearerAuth
// @Router       /shares/received [get]
func ListReceivedShares(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shares, err := svc.ListReceived(c.UserContext(), identity(c).Email)
		if err != nil {
			return err
		}
		return c.JSON(receivedSharesResponse{Data: shares})
	}
}

// RevokeShare deletes a share; its link stops working immediately.
//
// @Summary      Revoke a share
// @Tags         shares
// @Param        id   path  string  true  "Share ID"
// @Success      204
// @Failure      404  {object}  errorPayload
// @Security     BearerAuth
// @Router       /shares/{id} [delete]
func RevokeShare(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		if err := svc.Revoke(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ResolveShare opens a shared company profile. The token is the credential.
//
// @Summary      Open a shared profile
// @Tags         shared
// @Produce      json
// @Param        token  path      string  true  "Share token"
// @Success      200    {object}  service.SharedProfile
// @Failure      404    {object}  errorPayload
// @Router       /shared/{token} [get]
func ResolveShare(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := svc.Resolve(c.UserContext(), c.Params("token"))
		if err != nil {
			return err
		}
		return c.JSON(profile)
	}
}

// SharedDocumentURL signs a public document of a shared company.
//
// @Summary      Signed URL for a shared document
// @Tags         shared
// @Produce      json
// @Param        token     path   string  true   "Share token"
// @Param        id        path   string  true   "Document ID"
// @Param        download  query  bool    false  "Serve as attachment"
// @Success      200  {object}  service.SignedURL
// @Failure      404  {object}  errorPayload
// @Router       /shared/{token}/documents/{id}/url [get]
func SharedDocumentURL(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		res, err := svc.SignedURL(c.UserContext(), c.Params("token"), id, c.QueryBool("download", false))
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(res)
	}
}
