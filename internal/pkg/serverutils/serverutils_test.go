package serverutils

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/clinical/orgconfig"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fiber error", fiber.NewError(fiber.StatusForbidden, "no"), fiber.StatusForbidden},
		{"validation", &ValidationError{Fields: []string{"ClientId is required"}}, fiber.StatusBadRequest},
		{"unknown org", fmt.Errorf("organization context: %w", orgconfig.ErrUnknownOrganization), fiber.StatusNotFound},
		{"generation", fmt.Errorf("%w: draft", clinical.ErrGenerationUnavailable), fiber.StatusServiceUnavailable},
		{"retrieval", clinical.ErrRetrievalUnavailable, fiber.StatusServiceUnavailable},
		{"other", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := StatusFor(tt.err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		OrganizationId string `validate:"required"`
		ClientId       string `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(req{OrganizationId: "o", ClientId: "c"}))

	err := ValidateRequest(req{OrganizationId: "o"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"ClientId is required"}, ve.Fields)
}

func TestAuthorizeOrg(t *testing.T) {
	tests := []struct {
		name  string
		claim interface{}
		org   string
		want  int
	}{
		{"no claim", nil, "org-a", fiber.StatusOK},
		{"matching claim", "org-a", "org-a", fiber.StatusOK},
		{"other org", "org-b", "org-a", fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error {
				ctx.Locals("org_id", tt.claim)
				if err := AuthorizeOrg(ctx, tt.org); err != nil {
					return err
				}
				return ctx.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestJwtMiddleware_DisabledWithoutSecret(t *testing.T) {
	app := fiber.New()
	app.Use(JwtMiddleware(""))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
