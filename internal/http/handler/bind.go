package handler

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"localmart/internal/http/middleware"
	"localmart/internal/service"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return badRequest("BAD_REQUEST", "malformed request body")
	}
	return check(dst)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return badRequest("VALIDATION_ERROR", fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag()))
	}
	return badRequest("VALIDATION_ERROR", "invalid request")
}

// pageOf reads limit and offset query parameters. Missing values fall back to the
// service defaults.
func pageOf(c *fiber.Ctx) (service.Page, error) {
	var p service.Page
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, badRequest("INVALID_LIMIT", "invalid limit")
		}
		p.Limit = n
	}
	if s := c.Query("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, badRequest("INVALID_OFFSET", "invalid offset")
		}
		p.Offset = n
	}
	return p, nil
}

// actorOf returns the authenticated caller or the zero Actor.
func actorOf(c *fiber.Ctx) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: claims.UserID(), Role: claims.Role}
}

func userID(c *fiber.Ctx) string { return actorOf(c).UserID }

// fileOf opens the multipart file in field. The returned closer must be closed by
// the caller. A missing file yields FILE_REQUIRED.
func fileOf(c *fiber.Ctx, field string) (service.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return service.Upload{}, nil, badRequest("FILE_REQUIRED", "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, nil, badRequest("FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return service.Upload{Reader: f, Size: fh.Size, ContentType: ct}, f, nil
}

type statusBody struct {
	Status string `json:"status" validate:"required"`
}

type reasonBody struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type optionalReasonBody struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type noteBody struct {
	Note string `json:"note" validate:"omitempty,max=1000"`
}

type responseBody struct {
	Response string `json:"response" validate:"required,max=2000"`
}

// decodeOptional binds a body that may be absent entirely.
func decodeOptional(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return check(dst)
	}
	return bind(c, dst)
}
