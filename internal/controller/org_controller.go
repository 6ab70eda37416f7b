package controller

import (
	"clinical-intelligence-be/internal/pkg/serverutils"
	"clinical-intelligence-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOrgController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	SyncKnowledgeBase(ctx *fiber.Ctx) error
}

type orgController struct {
	knowledgeService service.IKnowledgeService
}

func NewOrgController(knowledgeService service.IKnowledgeService) IOrgController {
	return &orgController{
		knowledgeService: knowledgeService,
	}
}

func (c *orgController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/org/v1")
	h.Use(auth)
	h.Get("", c.List)
	h.Post(":orgId/sync-kb", c.SyncKnowledgeBase)
}

func (c *orgController) List(ctx *fiber.Ctx) error {
	res, err := c.knowledgeService.ListOrganizations(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Organizations", res))
}

func (c *orgController) SyncKnowledgeBase(ctx *fiber.Ctx) error {
	orgId := ctx.Params("orgId")
	if err := serverutils.AuthorizeOrg(ctx, orgId); err != nil {
		return err
	}

	res, err := c.knowledgeService.SyncKnowledgeBase(ctx.UserContext(), orgId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Status, res))
}
