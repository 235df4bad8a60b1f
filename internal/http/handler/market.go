package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/model"
	"localmart/internal/service"
)

type rulesBody struct {
	Rules []model.MarketRule `json:"rules" validate:"max=50,dive"`
}

// ListMarkets returns markets filtered by status and keyword.
//
// @Summary List markets
// @Tags markets
// @Produce json
// @Param status query string false "Active or Suspended"
// @Param keyword query string false "name search"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} service.ListResult[model.Market]
// @Router /api/v1/markets [get]
func ListMarkets(svc service.MarketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.List(c.UserContext(), service.MarketFilter{Status: c.Query("status"), Keyword: c.Query("keyword")}, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetMarket(svc service.MarketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(m)
	}
}

func CreateMarket(svc service.MarketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.MarketInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		m, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

func UpdateMarket(svc service.MarketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.MarketInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		m, err := svc.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(m)
	}
}

func SetMarketStatus(svc service.MarketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in statusBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.SetStatus(c.UserContext(), c.Params("id"), in.Status); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteMarket(svc service.MarketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SetMarketRules(svc service.MarketService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in rulesBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		m, err := svc.SetRules(c.UserContext(), c.Params("id"), in.Rules)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(m)
	}
}

// ListCategories hides inactive categories unless an admin asks for them.
func ListCategories(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all := actorOf(c).IsAdmin() && c.QueryBool("include_inactive")
		items, err := svc.List(c.UserContext(), all)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

func GetCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(cat)
	}
}

func CreateCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CategoryInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		cat, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

func UpdateCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CategoryInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		cat, err := svc.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(cat)
	}
}

func SetCategoryStatus(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in statusBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.SetStatus(c.UserContext(), c.Params("id"), in.Status); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteCategory(svc service.CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
