package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"localmart/internal/cache"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/repository"
	"localmart/internal/storage"
)

type ProductFilter struct {
	Keyword    string
	CategoryID string
	StoreID    string
	MarketID   string
	MinPrice   int64
	MaxPrice   int64
	// SortBy is one of price, created_at or rating.
	SortBy string
	Asc    bool
}

type ProductInput struct {
	CategoryID      string  `json:"category_id" validate:"required"`
	Name            string  `json:"name" validate:"required,max=200"`
	Description     string  `json:"description" validate:"omitempty,max=5000"`
	Price           int64   `json:"price" validate:"gt=0"`
	Unit            string  `json:"unit" validate:"required,max=30"`
	MinimumQuantity float64 `json:"minimum_quantity" validate:"gt=0"`
}

type ProductService interface {
	Search(ctx context.Context, f ProductFilter, p Page) (*ListResult[model.Product], error)
	// Get hides Inactive and Deleted products from everyone but the owner and staff.
	Get(ctx context.Context, viewer Actor, id string) (*model.Product, error)
	ListByStore(ctx context.Context, storeID string, p Page) (*ListResult[model.Product], error)
	Create(ctx context.Context, sellerID string, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, sellerID, id string, in ProductInput) (*model.Product, error)
	SetStatus(ctx context.Context, sellerID, id, status string) error
	Delete(ctx context.Context, sellerID, id string) error
	AddImage(ctx context.Context, sellerID, id string, file Upload) (*model.Product, error)
	RemoveImage(ctx context.Context, sellerID, id string, index int) (*model.Product, error)

	AddFavorite(ctx context.Context, userID, productID string) error
	RemoveFavorite(ctx context.Context, userID, productID string) error
	Favorites(ctx context.Context, userID string) ([]model.Product, error)
}

type productService struct {
	repos   *repository.Repos
	storage storage.Storage
	cache   cache.Store
	log     *logx.Logger
}

func NewProductService(d Deps) ProductService {
	st := d.Storage
	if st == nil {
		st = storage.Disabled()
	}
	c := d.Cache
	if c == nil {
		c = cache.NewMemory()
	}
	return &productService{repos: d.Repos, storage: st, cache: c, log: d.logger()}
}

var publicProductStatus = repository.Filter{"$in": []string{model.ProductActive, model.ProductOutOfStock}}

var productSorts = map[string]bool{"price": true, "created_at": true, "rating": true}

func (s *productService) withImages(ctx context.Context, p *model.Product) *model.Product {
	p.ImageURLs = make([]string, 0, len(p.ImageKeys))
	for _, k := range p.ImageKeys {
		if u := presign(ctx, s.storage, k, imageURLExpiry); u != "" {
			p.ImageURLs = append(p.ImageURLs, u)
		}
	}
	return p
}

func (s *productService) page(ctx context.Context, f repository.Filter, pq repository.PageQuery) (*ListResult[model.Product], error) {
	res, err := s.repos.Products.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		s.withImages(ctx, &res.Items[i])
	}
	return toList(res, pq), nil
}

func (s *productService) Search(ctx context.Context, f ProductFilter, p Page) (*ListResult[model.Product], error) {
	filter := repository.Filter{"status": publicProductStatus}
	if f.Keyword != "" {
		filter["name"] = keyword(f.Keyword)
	}
	if f.CategoryID != "" {
		filter["category_id"] = f.CategoryID
	}
	if f.StoreID != "" {
		filter["store_id"] = f.StoreID
	}
	if f.MarketID != "" {
		filter["market_id"] = f.MarketID
	}
	if f.MinPrice < 0 || f.MaxPrice < 0 || (f.MaxPrice > 0 && f.MinPrice > f.MaxPrice) {
		return nil, invalid("invalid price range")
	}
	price := repository.Filter{}
	if f.MinPrice > 0 {
		price["$gte"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		price["$lte"] = f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	if !productSorts[sortBy] {
		return nil, invalid("cannot sort by %q", f.SortBy)
	}
	return s.page(ctx, filter, p.query(sortBy, f.Asc))
}

// cachedProduct keeps the object keys that the public JSON form omits.
type cachedProduct struct {
	model.Product
	Keys []string `json:"image_keys"`
}

func (s *productService) load(ctx context.Context, id string) (*model.Product, error) {
	key := cache.Key(cache.KeyProduct, id)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var c cachedProduct
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			c.Product.ImageKeys = c.Keys
			return &c.Product, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache", "cache_get_failed", err, map[string]any{"key": key})
	}

	p, err := lookup(ctx, s.repos.Products, id, "product")
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(cachedProduct{Product: *p, Keys: p.ImageKeys}); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), cache.TTLProduct); err != nil {
			s.log.Warn("cache", "cache_set_failed", err, map[string]any{"key": key})
		}
	}
	return p, nil
}

func (s *productService) invalidate(ctx context.Context, id string) {
	evictProduct(ctx, s.cache, s.log, id)
}

// evictProduct drops the cached copy of a product after any write to it.
func evictProduct(ctx context.Context, c cache.Store, log *logx.Logger, id string) {
	if c == nil {
		return
	}
	if err := c.Del(ctx, cache.Key(cache.KeyProduct, id)); err != nil {
		log.Warn("cache", "cache_del_failed", err, map[string]any{"product_id": id})
	}
}

func (s *productService) Get(ctx context.Context, viewer Actor, id string) (*model.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	hidden := p.Status == model.ProductInactive || p.Status == model.ProductDeleted
	if hidden && p.SellerID != viewer.UserID && !viewer.IsStaff() {
		return nil, notFound("product")
	}
	return s.withImages(ctx, p), nil
}

func (s *productService) ListByStore(ctx context.Context, storeID string, p Page) (*ListResult[model.Product], error) {
	if _, err := lookup(ctx, s.repos.Stores, storeID, "store"); err != nil {
		return nil, err
	}
	return s.page(ctx, repository.Filter{"store_id": storeID, "status": publicProductStatus}, p.query("created_at", false))
}

func (s *productService) activeCategory(ctx context.Context, id string) error {
	c, err := lookup(ctx, s.repos.Categories, id, "category")
	if err != nil {
		return err
	}
	if c.Status != model.CategoryActive {
		return badState("category is not active")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, sellerID string, in ProductInput) (*model.Product, error) {
	store, err := s.repos.Stores.FindOne(ctx, repository.Filter{"seller_id": sellerID})
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("store")
		}
		return nil, err
	}
	if store.Status != model.StoreOpen {
		return nil, badState("store is %s", store.Status)
	}
	if err := s.activeCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	now := model.Now()
	p := &model.Product{
		ID:              model.NewID(),
		StoreID:         store.ID,
		SellerID:        sellerID,
		MarketID:        store.MarketID,
		CategoryID:      in.CategoryID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Price:           in.Price,
		Unit:            in.Unit,
		MinimumQuantity: in.MinimumQuantity,
		ImageKeys:       []string{},
		Status:          model.ProductActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repos.Products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.withImages(ctx, p), nil
}

func (s *productService) owned(ctx context.Context, sellerID, id string) (*model.Product, error) {
	p, err := lookup(ctx, s.repos.Products, id, "product")
	if err != nil {
		return nil, err
	}
	if p.Status == model.ProductDeleted {
		return nil, notFound("product")
	}
	if p.SellerID != sellerID {
		return nil, forbidden("not the owner of this product")
	}
	return p, nil
}

func (s *productService) Update(ctx context.Context, sellerID, id string, in ProductInput) (*model.Product, error) {
	p, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != p.CategoryID {
		if err := s.activeCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
	}
	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Unit = in.Unit
	p.MinimumQuantity = in.MinimumQuantity
	p.UpdatedAt = model.Now()
	if err := s.repos.Products.Update(ctx, id, repository.Filter{
		"category_id":      p.CategoryID,
		"name":             p.Name,
		"description":      p.Description,
		"price":            p.Price,
		"unit":             p.Unit,
		"minimum_quantity": p.MinimumQuantity,
		"updated_at":       p.UpdatedAt,
	}); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, id)
	return s.withImages(ctx, p), nil
}

func (s *productService) SetStatus(ctx context.Context, sellerID, id, status string) error {
	switch status {
	case model.ProductActive, model.ProductOutOfStock, model.ProductInactive:
	default:
		return invalid("status must be Active, OutOfStock or Inactive")
	}
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	if err := s.repos.Products.Update(ctx, id, repository.Filter{"status": status, "updated_at": model.Now()}); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *productService) Delete(ctx context.Context, sellerID, id string) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	if err := s.repos.Products.Update(ctx, id, repository.Filter{"status": model.ProductDeleted, "updated_at": model.Now()}); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *productService) AddImage(ctx context.Context, sellerID, id string, file Upload) (*model.Product, error) {
	p, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if len(p.ImageKeys) >= model.MaxProductImages {
		return nil, badState("a product can have at most %d images", model.MaxProductImages)
	}
	key, err := putObject(ctx, s.storage, storage.KindProduct, p.ID, file)
	if err != nil {
		return nil, err
	}
	keys := append(append([]string{}, p.ImageKeys...), key)
	if err := s.repos.Products.Update(ctx, id, repository.Filter{"image_keys": keys, "updated_at": model.Now()}); err != nil {
		dropObject(ctx, s.storage, s.log, key)
		return nil, fmt.Errorf("add product image: %w", err)
	}
	s.invalidate(ctx, id)
	p.ImageKeys = keys
	return s.withImages(ctx, p), nil
}

func (s *productService) RemoveImage(ctx context.Context, sellerID, id string, index int) (*model.Product, error) {
	p, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.ImageKeys) {
		return nil, notFound("image")
	}
	removed := p.ImageKeys[index]
	keys := make([]string, 0, len(p.ImageKeys)-1)
	keys = append(keys, p.ImageKeys[:index]...)
	keys = append(keys, p.ImageKeys[index+1:]...)
	if err := s.repos.Products.Update(ctx, id, repository.Filter{"image_keys": keys, "updated_at": model.Now()}); err != nil {
		return nil, fmt.Errorf("remove product image: %w", err)
	}
	dropObject(ctx, s.storage, s.log, removed)
	s.invalidate(ctx, id)
	p.ImageKeys = keys
	return s.withImages(ctx, p), nil
}

func (s *productService) AddFavorite(ctx context.Context, userID, productID string) error {
	p, err := lookup(ctx, s.repos.Products, productID, "product")
	if err != nil {
		return err
	}
	if p.Status == model.ProductDeleted {
		return notFound("product")
	}
	err = s.repos.Favorites.Create(ctx, &model.FavoriteProduct{
		ID:        model.NewID(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: model.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return conflict("product is already a favorite")
	}
	return err
}

func (s *productService) RemoveFavorite(ctx context.Context, userID, productID string) error {
	f, err := s.repos.Favorites.FindOne(ctx, repository.Filter{"user_id": userID, "product_id": productID})
	if err != nil {
		if isNotFound(err) {
			return notFound("favorite")
		}
		return err
	}
	return s.repos.Favorites.Delete(ctx, f.ID)
}

func (s *productService) Favorites(ctx context.Context, userID string) ([]model.Product, error) {
	favs, err := s.repos.Favorites.FindMany(ctx, repository.Filter{"user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(favs) == 0 {
		return []model.Product{}, nil
	}
	ids := make([]string, len(favs))
	for i, f := range favs {
		ids[i] = f.ProductID
	}
	products, err := s.repos.Products.FindMany(ctx, repository.Filter{
		"_id":    repository.Filter{"$in": ids},
		"status": repository.Filter{"$ne": model.ProductDeleted},
	})
	if err != nil {
		return nil, err
	}
	for i := range products {
		s.withImages(ctx, &products[i])
	}
	return products, nil
}
