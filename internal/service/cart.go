package service

import (
	"context"
	"fmt"

	"localmart/internal/model"
	"localmart/internal/repository"
)

type AddCartItemInput struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"omitempty,gt=0"`
	BargainID string  `json:"bargain_id"`
}

// CartLine is a cart item joined with the current product data.
type CartLine struct {
	ProductID string  `json:"product_id"`
	StoreID   string  `json:"store_id"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Status    string  `json:"status"`
	UnitPrice int64   `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	Subtotal  int64   `json:"subtotal"`
	BargainID string  `json:"bargain_id,omitempty"`
	Available bool    `json:"available"`
}

type CartView struct {
	Items []CartLine `json:"items"`
	Total int64      `json:"total"`
}

type CartService interface {
	Get(ctx context.Context, userID string) (*CartView, error)
	AddItem(ctx context.Context, userID string, in AddCartItemInput) (*CartView, error)
	UpdateItem(ctx context.Context, userID, productID string, qty float64) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (*CartView, error)
	Clear(ctx context.Context, userID string) error
}

type cartService struct {
	repos *repository.Repos
}

func NewCartService(d Deps) CartService {
	return &cartService{repos: d.Repos}
}

// load returns the user's cart, or an unsaved empty one.
func (s *cartService) load(ctx context.Context, userID string) (*model.Cart, bool, error) {
	c, err := s.repos.Carts.FindOne(ctx, repository.Filter{"user_id": userID})
	if err == nil {
		return c, true, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	now := model.Now()
	return &model.Cart{ID: model.NewID(), UserID: userID, Items: []model.CartItem{}, CreatedAt: now, UpdatedAt: now}, false, nil
}

func (s *cartService) save(ctx context.Context, c *model.Cart, stored bool) error {
	c.UpdatedAt = model.Now()
	if !stored {
		return s.repos.Carts.Create(ctx, c)
	}
	return s.repos.Carts.Update(ctx, c.ID, repository.Filter{"items": c.Items, "updated_at": c.UpdatedAt})
}

func (s *cartService) view(ctx context.Context, c *model.Cart) (*CartView, error) {
	v := &CartView{Items: make([]CartLine, 0, len(c.Items))}
	if len(c.Items) == 0 {
		return v, nil
	}
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	products, err := s.repos.Products.FindMany(ctx, repository.Filter{"_id": repository.Filter{"$in": ids}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotals := make([]int64, 0, len(c.Items))
	for _, it := range c.Items {
		line := CartLine{ProductID: it.ProductID, Quantity: it.Quantity, BargainID: it.BargainID}
		if p, ok := byID[it.ProductID]; ok {
			line.StoreID = p.StoreID
			line.Name = p.Name
			line.Unit = p.Unit
			line.Status = p.Status
			line.UnitPrice = p.Price
			line.Available = p.Purchasable()
		} else {
			line.Status = model.ProductDeleted
		}
		if it.BargainID != "" {
			line.UnitPrice = it.UnitPrice
		}
		line.Subtotal = lineTotal(line.UnitPrice, line.Quantity)
		if line.Available {
			subtotals = append(subtotals, line.Subtotal)
		}
		v.Items = append(v.Items, line)
	}
	v.Total = sumAmounts(subtotals...)
	return v, nil
}

func (s *cartService) Get(ctx context.Context, userID string) (*CartView, error) {
	c, _, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *cartService) AddItem(ctx context.Context, userID string, in AddCartItemInput) (*CartView, error) {
	p, err := lookup(ctx, s.repos.Products, in.ProductID, "product")
	if err != nil {
		return nil, err
	}
	if !p.Purchasable() {
		return nil, badState("product is not available")
	}
	if p.SellerID == userID {
		return nil, invalid("cannot add your own product to the cart")
	}

	item := model.CartItem{ProductID: p.ID, Quantity: in.Quantity, AddedAt: model.Now()}
	if in.BargainID != "" {
		b, err := lookup(ctx, s.repos.Bargains, in.BargainID, "bargain")
		if err != nil {
			return nil, err
		}
		switch {
		case b.BuyerID != userID:
			return nil, forbidden("bargain belongs to another buyer")
		case b.ProductID != p.ID:
			return nil, invalid("bargain is for another product")
		case b.Status != model.BargainAccepted:
			return nil, badState("bargain is %s", b.Status)
		case b.UsedInOrder:
			return nil, badState("bargain was already used")
		}
		item.BargainID = b.ID
		item.UnitPrice = b.FinalPrice
		item.Quantity = b.Quantity
	} else if in.Quantity < p.MinimumQuantity {
		return nil, invalid("quantity must be at least %g", p.MinimumQuantity)
	}

	c, stored, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i := c.ItemIndex(p.ID); i >= 0 {
		switch {
		case item.BargainID != "":
			c.Items[i] = item
		case c.Items[i].BargainID != "":
			return nil, conflict("product is in the cart at a bargained price; remove it first")
		default:
			c.Items[i].Quantity += item.Quantity
		}
	} else {
		c.Items = append(c.Items, item)
	}
	if err := s.save(ctx, c, stored); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, c)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID string, qty float64) (*CartView, error) {
	if qty <= 0 {
		return nil, invalid("quantity must be greater than zero")
	}
	c, stored, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.ItemIndex(productID)
	if i < 0 {
		return nil, notFound("cart item")
	}
	if c.Items[i].BargainID != "" {
		return nil, badState("quantity of a bargained item is fixed")
	}
	p, err := lookup(ctx, s.repos.Products, productID, "product")
	if err != nil {
		return nil, err
	}
	if qty < p.MinimumQuantity {
		return nil, invalid("quantity must be at least %g", p.MinimumQuantity)
	}
	c.Items[i].Quantity = qty
	if err := s.save(ctx, c, stored); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, c)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (*CartView, error) {
	c, stored, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.ItemIndex(productID)
	if i < 0 {
		return nil, notFound("cart item")
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	if err := s.save(ctx, c, stored); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, c)
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	c, stored, err := s.load(ctx, userID)
	if err != nil || !stored {
		return err
	}
	c.Items = []model.CartItem{}
	return s.save(ctx, c, stored)
}
