package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

func MarketFees(svc service.MarketFeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fees, err := svc.ForMarket(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": fees})
	}
}

func CreateMarketFee(svc service.MarketFeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.MarketFeeInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		f, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

func UpdateMarketFee(svc service.MarketFeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.MarketFeeInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		f, err := svc.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(f)
	}
}

func DeleteMarketFee(svc service.MarketFeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func FeePayments(svc service.MarketFeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		f := service.FeePaymentFilter{MarketID: c.Query("market_id"), Status: c.Query("status"), Period: c.Query("period")}
		res, err := svc.Payments(c.UserContext(), f, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func MyFeePayments(svc service.MarketFeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.MyPayments(c.UserContext(), userID(c), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func MarkFeePaid(svc service.MarketFeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.MarkPaid(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
