package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

func ListNotifications(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.List(c.UserContext(), userID(c), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func UnreadNotifications(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.UnreadCount(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"count": n})
	}
}

func MarkNotificationRead(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.MarkRead(c.UserContext(), userID(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func MarkAllNotificationsRead(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.MarkAllRead(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"updated": n})
	}
}
