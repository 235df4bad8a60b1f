package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

func CreateProxyRequest(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProxyRequestInput
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

func MyProxyRequests(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.Mine(c.UserContext(), userID(c), c.Query("status"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func AvailableProxyRequests(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.Available(c.UserContext(), c.Query("market_id"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func AssignedProxyRequests(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.Assigned(c.UserContext(), userID(c), c.Query("status"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetProxyRequest(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.Get(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

func AcceptProxyRequest(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.Accept(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

// ProposeProxyRequest prices the buyer's list against real products of the market.
//
// @Summary Send proposal
// @Tags proxy-requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "request id"
// @Param body body service.ProposalInput true "proposal"
// @Success 200 {object} model.ProxyRequest
// @Failure 409 {object} errorPayload
// @Router /api/v1/proxy-requests/{id}/proposal [put]
func ProposeProxyRequest(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProposalInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.Propose(c.UserContext(), userID(c), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

func RejectProxyProposal(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in optionalReasonBody
		if err := decodeOptional(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.RejectProposal(c.UserContext(), userID(c), c.Params("id"), in.Reason)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

// ApproveProxyProposal returns the order the buyer has to pay.
func ApproveProxyProposal(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.ApproveProposal(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

func StartProxyRequest(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.Start(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

// CompleteProxyRequest accepts an optional multipart "proof" image.
func CompleteProxyRequest(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var proof *service.Upload
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			if _, err := c.FormFile("proof"); err == nil {
				up, closer, err := fileOf(c, "proof")
				if err != nil {
					return fail(c, err)
				}
				defer closer.Close()
				proof = &up
			}
		}
		r, err := svc.Complete(c.UserContext(), userID(c), c.Params("id"), proof)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

func CancelProxyRequest(svc service.ProxyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in optionalReasonBody
		if err := decodeOptional(c, &in); err != nil {
			return fail(c, err)
		}
		r, err := svc.Cancel(c.UserContext(), actorOf(c), c.Params("id"), in.Reason)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}
