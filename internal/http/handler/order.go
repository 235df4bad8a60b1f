package handler

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

// Checkout splits the selected cart items into one order per store.
//
// @Summary Checkout
// @Tags orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body service.CheckoutInput true "checkout"
// @Success 201 {array} model.Order
// @Failure 400 {object} errorPayload
// @Router /api/v1/orders/checkout [post]
func Checkout(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CheckoutInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		orders, err := svc.Checkout(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": orders})
	}
}

func MyOrders(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.Mine(c.UserContext(), userID(c), service.OrderFilter{Status: c.Query("status")}, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func StoreOrders(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.ForStore(c.UserContext(), userID(c), service.OrderFilter{Status: c.Query("status")}, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.Get(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(o)
	}
}

func ConfirmOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.Confirm(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(o)
	}
}

func CancelOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in reasonBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		o, err := svc.Cancel(c.UserContext(), actorOf(c), c.Params("id"), in.Reason)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(o)
	}
}

func MarkOrderPaid(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.MarkPaid(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(o)
	}
}

func CompleteOrder(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.Complete(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(o)
	}
}

// ExportOrders streams a CSV of orders filtered by status.
func ExportOrders(svc service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := svc.ExportCSV(c.UserContext(), &buf, service.OrderFilter{Status: c.Query("status")}); err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="orders-%s.csv"`, time.Now().Format("20060102")))
		return c.Send(buf.Bytes())
	}
}
