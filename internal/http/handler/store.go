package handler

import (
	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

func ListStores(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		f := service.StoreFilter{MarketID: c.Query("market_id"), Status: c.Query("status"), Keyword: c.Query("keyword")}
		res, err := svc.List(c.UserContext(), f, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetStore(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}

func MyStore(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Mine(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}

func UpdateMyStore(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.StoreInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		st, err := svc.UpdateMine(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}

func SetMyStoreStatus(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in statusBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.SetMineStatus(c.UserContext(), userID(c), in.Status); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SuspendStore(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Suspend(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func UnsuspendStore(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Unsuspend(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadStoreLogo replaces the logo of the caller's store.
func UploadStoreLogo(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, closer, err := fileOf(c, "file")
		if err != nil {
			return fail(c, err)
		}
		defer closer.Close()

		st, err := svc.UploadLogo(c.UserContext(), userID(c), up)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}

func FollowStore(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Follow(c.UserContext(), userID(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func UnfollowStore(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Unfollow(c.UserContext(), userID(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func FollowedStores(svc service.StoreService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Followed(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}
