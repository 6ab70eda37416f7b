package controller

import (
	"strconv"

	"clinical-intelligence-be/internal/dto"
	"clinical-intelligence-be/internal/pkg/serverutils"
	"clinical-intelligence-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Process(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/session/v1")
	h.Use(auth)
	h.Post("process", c.Process)
	h.Post("save", c.Save)

	cl := r.Group("/client/v1")
	cl.Use(auth)
	cl.Get(":clientId/history", c.History)
}

func (c *sessionController) Process(ctx *fiber.Ctx) error {
	var req dto.ProcessSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AuthorizeOrg(ctx, req.OrganizationId); err != nil {
		return err
	}

	// UserContext carries the otel span and is cancelled when the client goes away.
	res, err := c.sessionService.Process(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session processed", res))
}

func (c *sessionController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AuthorizeOrg(ctx, req.OrganizationId); err != nil {
		return err
	}

	res, err := c.sessionService.Save(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session saved", res))
}

func (c *sessionController) History(ctx *fiber.Ctx) error {
	orgId := ctx.Query("org_id")
	if orgId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "org_id query parameter is required")
	}
	if err := serverutils.AuthorizeOrg(ctx, orgId); err != nil {
		return err
	}
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))

	res, err := c.sessionService.GetHistory(ctx.UserContext(), orgId, ctx.Params("clientId"), page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Client history", res))
}
