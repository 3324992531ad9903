package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"companydocs/internal/auth"
	"companydocs/internal/http/middleware"
	"companydocs/internal/service"
	"companydocs/internal/validation"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	DB        *sql.DB
	Documents service.DocumentService
	Companies service.CompanyService
	Shares    service.ShareService
	Verifier  auth.TokenVerifier
	Validator *validation.Validator
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Authentication is
// attached per route so unknown paths still answer 404.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	if d.Validator == nil {
		d.Validator = validation.NewValidator()
	}
	authn := middleware.Auth(d.Verifier)

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	app.Post("/companies", authn, CreateCompany(d.Companies, d.Validator))
	app.Get("/companies/:id", authn, GetCompany(d.Companies))

	app.Post("/companies/:id/documents", authn, UploadDocument(d.Documents))
	app.Get("/companies/:id/documents", authn, ListDocuments(d.Documents))
	app.Get("/documents/:id", authn, GetDocument(d.Documents))
	app.Patch("/documents/:id", authn, UpdateDocument(d.Documents, d.Validator))
	app.Delete("/documents/:id", authn, DeleteDocument(d.Documents))
	app.Get("/documents/:id/url", authn, DocumentURL(d.Documents))

	app.Post("/companies/:id/shares", authn, CreateShare(d.Shares, d.Validator))
	app.Get("/shares/received", authn, ListReceivedShares(d.Shares))
	app.Delete("/shares/:id", authn, RevokeShare(d.Shares))

	app.Get("/shared/:token", ResolveShare(d.Shares))
	app.Get("/shared/:token/documents/:id/url", SharedDocumentURL(d.Shares))
}
