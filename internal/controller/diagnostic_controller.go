package controller

import (
	"errors"

	"bigsis-chat/internal/dto"
	"bigsis-chat/internal/pkg/serverutils"
	"bigsis-chat/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDiagnosticController interface {
	RegisterRoutes(r fiber.Router)
	Save(ctx *fiber.Ctx) error
	SubmitFeedback(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type diagnosticController struct {
	service   service.IStubDiagnosticService
	jwtSecret string
}

func NewDiagnosticController(service service.IStubDiagnosticService, jwtSecret string) IDiagnosticController {
	return &diagnosticController{service: service, jwtSecret: jwtSecret}
}

func (c *diagnosticController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/users/diagnostics")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/", c.Save)
	h.Get("/", c.List)
	h.Patch("/:id/feedback", c.SubmitFeedback)
}

func (c *diagnosticController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveDiagnosticRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Save(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *diagnosticController) SubmitFeedback(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid diagnostic id"))
	}

	var req dto.FeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SubmitFeedback(ctx.UserContext(), serverutils.UserId(ctx), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrDiagnosticNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Diagnostic not found"))
		}
		return err
	}
	return ctx.JSON(res)
}

func (c *diagnosticController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), serverutils.UserId(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
