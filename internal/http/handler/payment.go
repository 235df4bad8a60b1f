package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/model"
	"localmart/internal/service"
)

func PayOrder(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.PayOrder(c.UserContext(), actorOf(c), c.Params("id"), c.IP())
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

func PayMarketFee(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.PayMarketFee(c.UserContext(), actorOf(c), c.Params("id"), c.IP())
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

func callbackParams(c *fiber.Ctx) url.Values {
	v, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return v
}

// PaymentIPN is the gateway's server-to-server notification. It always answers 200
// with the gateway's RspCode convention.
//
// @Summary VNPay IPN
// @Tags payments
// @Produce json
// @Success 200 {object} service.CallbackResult
// @Router /api/v1/payments/vnpay/ipn [get]
func PaymentIPN(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := svc.HandleCallback(c.UserContext(), callbackParams(c))
		return c.JSON(res)
	}
}

// PaymentReturn handles the browser redirect back from the gateway.
func PaymentReturn(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := svc.HandleCallback(c.UserContext(), callbackParams(c))
		body := fiber.Map{
			"success": res.Txn != nil && res.Txn.Status == model.TxnSucceeded,
			"code":    res.Code,
			"message": res.Message,
		}
		if res.Txn != nil {
			body["transaction"] = res.Txn
		}
		return c.JSON(body)
	}
}

func PaymentHistory(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.History(c.UserContext(), userID(c), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}
