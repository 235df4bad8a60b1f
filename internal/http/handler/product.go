package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/service"
)

func int64Query(c *fiber.Ctx, key string) (int64, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, badRequest("INVALID_PRICE", "invalid "+key)
	}
	return n, nil
}

// SearchProducts lists public products.
//
// @Summary Search products
// @Tags products
// @Produce json
// @Param keyword query string false "name search"
// @Param category_id query string false "category"
// @Param store_id query string false "store"
// @Param market_id query string false "market"
// @Param min_price query int false "minimum price (VND)"
// @Param max_price query int false "maximum price (VND)"
// @Param sort_by query string false "price, created_at or rating"
// @Param order query string false "asc or desc"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} service.ListResult[model.Product]
// @Failure 400 {object} errorPayload
// @Router /api/v1/products [get]
func SearchProducts(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		minPrice, err := int64Query(c, "min_price")
		if err != nil {
			return fail(c, err)
		}
		maxPrice, err := int64Query(c, "max_price")
		if err != nil {
			return fail(c, err)
		}
		f := service.ProductFilter{
			Keyword:    c.Query("keyword"),
			CategoryID: c.Query("category_id"),
			StoreID:    c.Query("store_id"),
			MarketID:   c.Query("market_id"),
			MinPrice:   minPrice,
			MaxPrice:   maxPrice,
			SortBy:     c.Query("sort_by"),
			Asc:        c.Query("order") == "asc",
		}
		res, err := svc.Search(c.UserContext(), f, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

// GetProduct is public. Owners and staff also see hidden products.
//
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} model.Product
// @Failure 404 {object} errorPayload
// @Router /api/v1/products/{id} [get]
func GetProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		prod, err := svc.Get(c.UserContext(), actorOf(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(prod)
	}
}

func StoreProducts(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageOf(c)
		if err != nil {
			return fail(c, err)
		}
		res, err := svc.ListByStore(c.UserContext(), c.Params("id"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func CreateProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProductInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		prod, err := svc.Create(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(prod)
	}
}

func UpdateProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProductInput
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		prod, err := svc.Update(c.UserContext(), userID(c), c.Params("id"), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(prod)
	}
}

func SetProductStatus(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in statusBody
		if err := bind(c, &in); err != nil {
			return fail(c, err)
		}
		if err := svc.SetStatus(c.UserContext(), userID(c), c.Params("id"), in.Status); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AddProductImage uploads one image (multipart field "file").
func AddProductImage(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, closer, err := fileOf(c, "file")
		if err != nil {
			return fail(c, err)
		}
		defer closer.Close()

		prod, err := svc.AddImage(c.UserContext(), userID(c), c.Params("id"), up)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(prod)
	}
}

func RemoveProductImage(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idx, err := c.ParamsInt("index")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INDEX", "invalid image index")
		}
		prod, err := svc.RemoveImage(c.UserContext(), userID(c), c.Params("id"), idx)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(prod)
	}
}

func AddFavorite(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.AddFavorite(c.UserContext(), userID(c), c.Params("productId")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func RemoveFavorite(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.RemoveFavorite(c.UserContext(), userID(c), c.Params("productId")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func Favorites(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Favorites(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}
