package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

func SubmitSellerRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SellerRegistrationInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.SubmitSeller(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

func MySellerRegistrations(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.MySeller(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

func ListSellerRegistrations(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.ListSeller(c.UserContext(), c.Query("status"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

// ApproveSellerRegistration returns the store opened for the applicant.
func ApproveSellerRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.ApproveSeller(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}

func RejectSellerRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in reasonBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.RejectSeller(c.UserContext(), actorOf(c), c.Params("id"), in.Reason); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SubmitProxyRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProxyRegistrationInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.SubmitProxy(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

func MyProxyRegistrations(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.MyProxy(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

func ListProxyRegistrations(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.ListProxy(c.UserContext(), c.Query("status"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func ApproveProxyRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.ApproveProxy(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func RejectProxyRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in reasonBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.RejectProxy(c.UserContext(), actorOf(c), c.Params("id"), in.Reason); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
