package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

type tokenBody struct {
	Token string `json:"token" validate:"required"`
}

type emailBody struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordBody struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type changePasswordBody struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// RegisterUser creates a Buyer account.
//
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.RegisterInput true "account"
// @Success 201 {object} model.User
// @Failure 409 {object} errorPayload
// @Router /api/v1/auth/register [post]
func RegisterUser(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		u, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// Login exchanges credentials for an access token.
//
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.LoginInput true "credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} errorPayload
// @Router /api/v1/auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.LoginInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		res, err := svc.Login(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func VerifyEmail(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in tokenBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.VerifyEmail(c.UserContext(), in.Token); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "email verified"})
	}
}

// ForgotPassword answers 202 whether or not the email is registered.
func ForgotPassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in emailBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.ForgotPassword(c.UserContext(), in.Email); err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "if the email is registered, a reset link has been sent"})
	}
}

func ResetPassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in resetPasswordBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.ResetPassword(c.UserContext(), in.Token, in.NewPassword); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "password updated"})
	}
}

func ChangePassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in changePasswordBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.ChangePassword(c.UserContext(), userID(c), in.OldPassword, in.NewPassword); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Me returns the caller's profile.
//
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} model.User
// @Router /api/v1/auth/me [get]
func Me(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Me(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}
