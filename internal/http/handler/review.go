package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/model"
	"localmart/internal/service"
)

func CreateReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ReviewInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.Create(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// TargetReviews lists visible reviews of a product or a store. targetType is fixed
// by the route.
func TargetReviews(svc service.ReviewService, targetType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.ForTarget(c.UserContext(), targetType, c.Params("id"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func ProductReviews(svc service.ReviewService) fiber.Handler {
	return TargetReviews(svc, model.TargetProduct)
}

func StoreReviews(svc service.ReviewService) fiber.Handler {
	return TargetReviews(svc, model.TargetStore)
}

func UpdateReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ReviewUpdateInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.Update(c.UserContext(), userID(c), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

func DeleteReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func RespondReview(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in responseBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.Respond(c.UserContext(), userID(c), c.Params("id"), in.Response)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}
