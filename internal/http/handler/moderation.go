package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

func CreateReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ReportInput
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

func MyReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.Mine(c.UserContext(), userID(c), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func ListReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		f := service.ReportFilter{Status: c.Query("status"), TargetType: c.Query("target_type")}
		res, err := svc.List(c.UserContext(), f, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func ResolveReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in noteBody
		if err := decodeOptional(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.Resolve(c.UserContext(), actorOf(c), c.Params("id"), in.Note); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DismissReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in noteBody
		if err := decodeOptional(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.Dismiss(c.UserContext(), actorOf(c), c.Params("id"), in.Note); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListFAQs(svc service.FAQService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.List(c.UserContext(), c.Query("category"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetFAQ(svc service.FAQService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(f)
	}
}

func CreateFAQ(svc service.FAQService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.FAQInput
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

func UpdateFAQ(svc service.FAQService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.FAQInput
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

func DeleteFAQ(svc service.FAQService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func CreateSupportRequest(svc service.SupportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SupportInput
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

func MySupportRequests(svc service.SupportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.Mine(c.UserContext(), userID(c), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func ListSupportRequests(svc service.SupportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.List(c.UserContext(), c.Query("status"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func RespondSupportRequest(svc service.SupportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in responseBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.Respond(c.UserContext(), actorOf(c), c.Params("id"), in.Response); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SetSupportStatus(svc service.SupportService) fiber.Handler {
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

// Dashboard returns platform-wide counters for admins.
//
// @Summary Admin dashboard
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.Dashboard
// @Router /api/v1/admin/dashboard [get]
func Dashboard(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := svc.Get(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(d)
	}
}
