package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"localmart/internal/events"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

type CheckoutInput struct {
	// ProductIDs selects cart items; empty means the whole cart.
	ProductIDs      []string `json:"product_ids"`
	DeliveryAddress string   `json:"delivery_address" validate:"required,max=255"`
	PaymentMethod   string   `json:"payment_method" validate:"required,oneof=COD VNPay"`
	Note            string   `json:"note" validate:"omitempty,max=1000"`
}

type OrderFilter struct {
	Status string
}

// pendingReminderAge is how long an order may sit in Pending before the buyer is reminded.
const pendingReminderAge = 24 * time.Hour

type OrderService interface {
	// Checkout turns cart items into one Pending order per store.
	Checkout(ctx context.Context, buyerID string, in CheckoutInput) ([]model.Order, error)
	Mine(ctx context.Context, buyerID string, f OrderFilter, p Page) (*ListResult[model.Order], error)
	ForStore(ctx context.Context, sellerID string, f OrderFilter, p Page) (*ListResult[model.Order], error)
	Get(ctx context.Context, actor Actor, id string) (*model.Order, error)
	Confirm(ctx context.Context, actor Actor, id string) (*model.Order, error)
	Cancel(ctx context.Context, actor Actor, id, reason string) (*model.Order, error)
	// MarkPaid records cash received on delivery.
	MarkPaid(ctx context.Context, actor Actor, id string) (*model.Order, error)
	Complete(ctx context.Context, actor Actor, id string) (*model.Order, error)
	ExportCSV(ctx context.Context, w io.Writer, f OrderFilter) error
	// RemindPending notifies buyers whose orders have been Pending too long and returns
	// the number of buyers notified.
	RemindPending(ctx context.Context, now time.Time) (int, error)
}

type orderService struct {
	orderFlow
}

func NewOrderService(d Deps) OrderService {
	return &orderService{orderFlow: newOrderFlow(d)}
}

func (s *orderService) Checkout(ctx context.Context, buyerID string, in CheckoutInput) ([]model.Order, error) {
	if in.PaymentMethod != model.PaymentMethodCOD && in.PaymentMethod != model.PaymentMethodVNPay {
		return nil, invalid("payment_method must be COD or VNPay")
	}
	cart, err := s.repos.Carts.FindOne(ctx, repository.Filter{"user_id": buyerID})
	if err != nil {
		if isNotFound(err) {
			return nil, badState("cart is empty")
		}
		return nil, err
	}

	selected, rest := splitCart(cart.Items, in.ProductIDs)
	if len(selected) == 0 {
		return nil, badState("no cart items selected")
	}

	byStore := map[string]*model.Order{}
	var storeOrder []string
	var bargains []string
	now := model.Now()
	for _, it := range selected {
		p, err := lookup(ctx, s.repos.Products, it.ProductID, "product")
		if err != nil {
			return nil, err
		}
		if !p.Purchasable() {
			return nil, badState("product %q is not available", p.Name)
		}
		price := p.Price
		if it.BargainID != "" {
			b, err := lookup(ctx, s.repos.Bargains, it.BargainID, "bargain")
			if err != nil {
				return nil, err
			}
			if b.Status != model.BargainAccepted || b.UsedInOrder {
				return nil, badState("bargain for %q is no longer valid", p.Name)
			}
			price = b.FinalPrice
			bargains = append(bargains, b.ID)
		}

		o, ok := byStore[p.StoreID]
		if !ok {
			store, err := lookup(ctx, s.repos.Stores, p.StoreID, "store")
			if err != nil {
				return nil, err
			}
			if store.Status != model.StoreOpen {
				return nil, badState("store %q is not open", store.Name)
			}
			o = &model.Order{
				ID:              model.NewID(),
				BuyerID:         buyerID,
				SellerID:        store.SellerID,
				StoreID:         store.ID,
				DeliveryAddress: in.DeliveryAddress,
				Note:            in.Note,
				PaymentMethod:   in.PaymentMethod,
				PaymentStatus:   model.PaymentPending,
				Status:          model.OrderPending,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			byStore[p.StoreID] = o
			storeOrder = append(storeOrder, p.StoreID)
		}
		o.Items = append(o.Items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Unit:      p.Unit,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Subtotal:  lineTotal(price, it.Quantity),
			BargainID: it.BargainID,
		})
	}

	orders := make([]model.Order, 0, len(storeOrder))
	for _, id := range storeOrder {
		o := byStore[id]
		subtotals := make([]int64, len(o.Items))
		for i, it := range o.Items {
			subtotals[i] = it.Subtotal
		}
		o.TotalAmount = sumAmounts(subtotals...)
		if err := s.repos.Orders.Create(ctx, o); err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
		orders = append(orders, *o)
	}

	if len(bargains) > 0 {
		if _, err := s.repos.Bargains.UpdateMany(ctx,
			repository.Filter{"_id": repository.Filter{"$in": bargains}},
			repository.Filter{"used_in_order": true, "updated_at": now}); err != nil {
			return nil, fmt.Errorf("mark bargains used: %w", err)
		}
	}
	if err := s.repos.Carts.Update(ctx, cart.ID, repository.Filter{"items": rest, "updated_at": now}); err != nil {
		return nil, fmt.Errorf("update cart: %w", err)
	}

	for i := range orders {
		o := &orders[i]
		s.publish(ctx, events.EventOrderCreated, o, "", buyerID)
		notifyUser(ctx, s.notifier, s.log, notify.Message{
			UserID:      o.SellerID,
			Title:       "New order",
			Message:     fmt.Sprintf("You have a new order of %d VND.", o.TotalAmount),
			Type:        model.NotifyOrder,
			ReferenceID: o.ID,
		})
	}
	return orders, nil
}

// splitCart separates the chosen items from the ones that stay in the cart.
func splitCart(items []model.CartItem, ids []string) (selected, rest []model.CartItem) {
	rest = []model.CartItem{}
	if len(ids) == 0 {
		return items, rest
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, it := range items {
		if want[it.ProductID] {
			selected = append(selected, it)
		} else {
			rest = append(rest, it)
		}
	}
	return selected, rest
}

func (s *orderService) list(ctx context.Context, filter repository.Filter, f OrderFilter, p Page) (*ListResult[model.Order], error) {
	if f.Status != "" {
		if !model.OrderStatus(f.Status).IsValid() {
			return nil, invalid("unknown status %q", f.Status)
		}
		filter["status"] = f.Status
	}
	pq := p.query("created_at", false)
	res, err := s.repos.Orders.List(ctx, filter, pq)
	if err != nil {
		return nil, err
	}
	return toList(res, pq), nil
}

func (s *orderService) Mine(ctx context.Context, buyerID string, f OrderFilter, p Page) (*ListResult[model.Order], error) {
	return s.list(ctx, repository.Filter{"buyer_id": buyerID}, f, p)
}

func (s *orderService) ForStore(ctx context.Context, sellerID string, f OrderFilter, p Page) (*ListResult[model.Order], error) {
	return s.list(ctx, repository.Filter{"seller_id": sellerID}, f, p)
}

func (s *orderService) Get(ctx context.Context, actor Actor, id string) (*model.Order, error) {
	o, err := lookup(ctx, s.repos.Orders, id, "order")
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID && o.SellerID != actor.UserID && !actor.IsAdmin() {
		return nil, forbidden("not a party to this order")
	}
	return o, nil
}

func (s *orderService) Confirm(ctx context.Context, actor Actor, id string) (*model.Order, error) {
	o, err := lookup(ctx, s.repos.Orders, id, "order")
	if err != nil {
		return nil, err
	}
	if o.SellerID != actor.UserID {
		return nil, forbidden("only the seller can confirm the order")
	}
	if err := s.move(ctx, o, model.OrderConfirmed, actor.UserID, nil); err != nil {
		return nil, err
	}
	s.notifyParty(ctx, o, actor.UserID, "Order confirmed", "Your order was confirmed by the seller.")
	return o, nil
}

func (s *orderService) Cancel(ctx context.Context, actor Actor, id, reason string) (*model.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, invalid("reason is required")
	}
	o, err := lookup(ctx, s.repos.Orders, id, "order")
	if err != nil {
		return nil, err
	}
	switch actor.UserID {
	case o.BuyerID:
		if o.Status != model.OrderPending {
			return nil, badState("buyers can only cancel pending orders")
		}
	case o.SellerID:
	default:
		return nil, forbidden("not a party to this order")
	}
	if err := s.move(ctx, o, model.OrderCancelled, actor.UserID, repository.Filter{
		"cancel_reason": reason,
		"cancelled_by":  actor.UserID,
	}); err != nil {
		return nil, err
	}
	o.CancelReason = reason
	o.CancelledBy = actor.UserID

	if o.ProxyRequestID != "" {
		if _, err := s.repos.ProxyRequests.UpdateMany(ctx,
			repository.Filter{"_id": o.ProxyRequestID, "status": model.ProxyAwaitingPayment},
			repository.Filter{"status": model.ProxyCancelled, "updated_at": model.Now()}); err != nil {
			s.log.Error("orders", "proxy_request_cancel_failed", err, map[string]any{"order_id": o.ID})
		}
	}
	s.notifyParty(ctx, o, actor.UserID, "Order cancelled", reason)
	return o, nil
}

func (s *orderService) MarkPaid(ctx context.Context, actor Actor, id string) (*model.Order, error) {
	o, err := lookup(ctx, s.repos.Orders, id, "order")
	if err != nil {
		return nil, err
	}
	if o.SellerID != actor.UserID {
		return nil, forbidden("only the seller can record a cash payment")
	}
	if o.PaymentMethod != model.PaymentMethodCOD {
		return nil, badState("order is paid online")
	}
	if o.Status != model.OrderConfirmed {
		return nil, badState("cannot move order from %s to %s", o.Status, model.OrderPaid)
	}
	if err := s.move(ctx, o, model.OrderPaid, actor.UserID, repository.Filter{"payment_status": model.PaymentPaid}); err != nil {
		return nil, err
	}
	o.PaymentStatus = model.PaymentPaid
	return o, nil
}

func (s *orderService) Complete(ctx context.Context, actor Actor, id string) (*model.Order, error) {
	o, err := lookup(ctx, s.repos.Orders, id, "order")
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID && o.SellerID != actor.UserID {
		return nil, forbidden("not a party to this order")
	}
	if o.ProxyRequestID != "" {
		return nil, badState("proxy orders are completed by the proxy shopper")
	}
	if err := s.move(ctx, o, model.OrderCompleted, actor.UserID, nil); err != nil {
		return nil, err
	}
	s.notifyParty(ctx, o, actor.UserID, "Order completed", "The order was marked as completed.")
	return o, nil
}

var exportHeader = []string{"id", "buyer", "store", "total", "status", "created_at"}

func (s *orderService) ExportCSV(ctx context.Context, w io.Writer, f OrderFilter) error {
	filter := repository.Filter{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	orders, err := s.repos.Orders.FindMany(ctx, filter)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, o := range orders {
		if err := cw.Write([]string{
			o.ID,
			o.BuyerID,
			o.StoreID,
			strconv.FormatInt(o.TotalAmount, 10),
			string(o.Status),
			o.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *orderService) RemindPending(ctx context.Context, now time.Time) (int, error) {
	orders, err := s.repos.Orders.FindMany(ctx, repository.Filter{
		"status":     model.OrderPending,
		"created_at": repository.Filter{"$lt": now.Add(-pendingReminderAge)},
	})
	if err != nil {
		return 0, err
	}
	counts := map[string]int{}
	var buyers []string
	for _, o := range orders {
		if counts[o.BuyerID] == 0 {
			buyers = append(buyers, o.BuyerID)
		}
		counts[o.BuyerID]++
	}
	for _, b := range buyers {
		notifyUser(ctx, s.notifier, s.log, notify.Message{
			UserID:  b,
			Title:   "Orders awaiting confirmation",
			Message: fmt.Sprintf("You have %d order(s) still pending for more than a day.", counts[b]),
			Type:    model.NotifyOrder,
		})
	}
	return len(buyers), nil
}
