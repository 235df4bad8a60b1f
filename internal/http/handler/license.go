package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

// licenseForm parses the text fields sent alongside the license document.
func licenseForm(c *fiber.Ctx) (service.LicenseInput, error) {
	in := service.LicenseInput{
		LicenseType:   c.FormValue("license_type"),
		LicenseNumber: c.FormValue("license_number"),
	}
	for field, dst := range map[string]**time.Time{"issue_date": &in.IssueDate, "expiry_date": &in.ExpiryDate} {
		raw := c.FormValue(field)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return in, badRequest("VALIDATION_ERROR", "field "+field+" must be YYYY-MM-DD")
		}
		*dst = &t
	}
	return in, check(&in)
}

// UploadLicense stores a business license document for review.
//
// @Summary Upload seller license
// @Tags seller-licenses
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "license document"
// @Param license_type formData string true "type"
// @Param license_number formData string true "number"
// @Param issue_date formData string false "YYYY-MM-DD"
// @Param expiry_date formData string false "YYYY-MM-DD"
// @Success 201 {object} model.SellerLicense
// @Failure 400 {object} errorPayload
// @Router /api/v1/seller-licenses [post]
func UploadLicense(svc service.LicenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := licenseForm(c)
		if err != nil {
			return fail(c, err)
		}
		up, closer, err := fileOf(c, "file")
		if err != nil {
			return fail(c, err)
		}
		defer closer.Close()

		lic, err := svc.Upload(c.UserContext(), userID(c), in, up)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(lic)
	}
}

func MyLicenses(svc service.LicenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Mine(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

func ListLicenses(svc service.LicenseService) fiber.Handler {
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

func LicenseDocument(svc service.LicenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.DocumentURL(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

func VerifyLicense(svc service.LicenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in noteBody
		if err := decodeOptional(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.Verify(c.UserContext(), actorOf(c), c.Params("id"), in.Note); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func RejectLicense(svc service.LicenseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in noteBody
		if err := decodeOptional(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.Reject(c.UserContext(), actorOf(c), c.Params("id"), in.Note); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
