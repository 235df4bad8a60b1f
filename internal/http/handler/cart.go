package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

type quantityBody struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

// GetCart returns the caller's cart priced against current products.
//
// @Summary Get cart
// @Tags cart
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.CartView
// @Router /api/v1/cart [get]
func GetCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := svc.Get(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func AddCartItem(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AddCartItemInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		v, err := svc.AddItem(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func UpdateCartItem(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in quantityBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		v, err := svc.UpdateItem(c.UserContext(), userID(c), c.Params("productId"), in.Quantity)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func RemoveCartItem(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := svc.RemoveItem(c.UserContext(), userID(c), c.Params("productId"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func ClearCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Clear(c.UserContext(), userID(c)); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
