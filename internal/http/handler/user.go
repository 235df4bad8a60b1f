package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

type roleBody struct {
	Role string `json:"role" validate:"required"`
}

func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		f := service.UserFilter{Role: c.Query("role"), Status: c.Query("status"), Keyword: c.Query("keyword")}
		res, err := svc.List(c.UserContext(), f, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func UpdateProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProfileInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		u, err := svc.UpdateProfile(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func SetUserStatus(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in statusBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.SetStatus(c.UserContext(), actorOf(c), c.Params("id"), in.Status); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SetUserRole(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in roleBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.SetRole(c.UserContext(), actorOf(c), c.Params("id"), in.Role); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func MyLoyalty(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := svc.Loyalty(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func RecomputeLoyalty(svc service.LoyaltyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := svc.Recompute(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}
