package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

type priceBody struct {
	Price int64 `json:"price" validate:"gt=0"`
}

func CreateBargain(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.BargainInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		b, err := svc.Create(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

func ProposeBargain(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in priceBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		b, err := svc.Propose(c.UserContext(), userID(c), c.Params("id"), in.Price)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(b)
	}
}

func AcceptBargain(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Accept(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(b)
	}
}

func RejectBargain(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Reject(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(b)
	}
}

func CancelBargain(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Cancel(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(b)
	}
}

func MyBargains(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.Mine(c.UserContext(), userID(c), c.Query("status"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func StoreBargains(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.ForSeller(c.UserContext(), userID(c), c.Query("status"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetBargain(svc service.BargainService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Get(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(b)
	}
}
