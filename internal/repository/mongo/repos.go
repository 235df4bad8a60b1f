package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"localmart/internal/model"
	"localmart/internal/repository"
)

// Collection names.
const (
	CollUsers         = "users"
	CollMarkets       = "markets"
	CollMarketFees    = "market_fees"
	CollFeePayments   = "market_fee_payments"
	CollCategories    = "categories"
	CollStores        = "stores"
	CollFollows       = "store_follows"
	CollSellerRegs    = "seller_registrations"
	CollLicenses      = "seller_licenses"
	CollProxyRegs     = "proxy_shopper_registrations"
	CollProducts      = "products"
	CollFavorites     = "favorite_products"
	CollCarts         = "carts"
	CollOrders        = "orders"
	CollReviews       = "reviews"
	CollReports       = "reports"
	CollFAQs          = "faqs"
	CollSupport       = "support_requests"
	CollNotifications = "notifications"
	CollMessages      = "chat_messages"
	CollProxyRequests = "proxy_requests"
	CollBargains      = "fast_bargains"
)

// NewRepos binds every repository to its collection in db.
func NewRepos(db *mongo.Database) *repository.Repos {
	return &repository.Repos{
		Users:         New[model.User](db, CollUsers),
		Markets:       New[model.Market](db, CollMarkets),
		MarketFees:    New[model.MarketFee](db, CollMarketFees),
		FeePayments:   New[model.MarketFeePayment](db, CollFeePayments),
		Categories:    New[model.Category](db, CollCategories),
		Stores:        New[model.Store](db, CollStores),
		Follows:       New[model.StoreFollow](db, CollFollows),
		SellerRegs:    New[model.SellerRegistration](db, CollSellerRegs),
		Licenses:      New[model.SellerLicense](db, CollLicenses),
		ProxyRegs:     New[model.ProxyShopperRegistration](db, CollProxyRegs),
		Products:      New[model.Product](db, CollProducts),
		Favorites:     New[model.FavoriteProduct](db, CollFavorites),
		Carts:         New[model.Cart](db, CollCarts),
		Orders:        New[model.Order](db, CollOrders),
		Reviews:       New[model.Review](db, CollReviews),
		Reports:       New[model.Report](db, CollReports),
		FAQs:          New[model.FAQ](db, CollFAQs),
		Support:       New[model.SupportRequest](db, CollSupport),
		Notifications: New[model.Notification](db, CollNotifications),
		Messages:      New[model.ChatMessage](db, CollMessages),
		ProxyRequests: New[model.ProxyRequest](db, CollProxyRequests),
		Bargains:      New[model.FastBargain](db, CollBargains),
	}
}

type index struct {
	coll   string
	keys   bson.D
	unique bool
}

var indexes = []index{
	{CollUsers, bson.D{{Key: "username", Value: 1}}, true},
	{CollUsers, bson.D{{Key: "email", Value: 1}}, true},
	{CollMarkets, bson.D{{Key: "name", Value: 1}}, true},
	{CollCategories, bson.D{{Key: "name", Value: 1}}, true},
	{CollStores, bson.D{{Key: "seller_id", Value: 1}}, true},
	{CollStores, bson.D{{Key: "market_id", Value: 1}, {Key: "status", Value: 1}}, false},
	{CollFollows, bson.D{{Key: "user_id", Value: 1}, {Key: "store_id", Value: 1}}, true},
	{CollFavorites, bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}}, true},
	{CollCarts, bson.D{{Key: "user_id", Value: 1}}, true},
	{CollProducts, bson.D{{Key: "store_id", Value: 1}, {Key: "status", Value: 1}}, false},
	{CollProducts, bson.D{{Key: "category_id", Value: 1}, {Key: "price", Value: 1}}, false},
	{CollOrders, bson.D{{Key: "buyer_id", Value: 1}, {Key: "created_at", Value: -1}}, false},
	{CollOrders, bson.D{{Key: "store_id", Value: 1}, {Key: "status", Value: 1}}, false},
	{CollReviews, bson.D{{Key: "order_id", Value: 1}, {Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}}, true},
	{CollNotifications, bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}, false},
	{CollMessages, bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}, false},
	{CollProxyRequests, bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, false},
	{CollBargains, bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}, false},
	{CollFeePayments, bson.D{{Key: "market_fee_id", Value: 1}, {Key: "store_id", Value: 1}, {Key: "period", Value: 1}}, true},
}

// EnsureIndexes creates the secondary indexes the services rely on. Existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ix := range indexes {
		im := mongo.IndexModel{Keys: ix.keys}
		if ix.unique {
			im.Options = options.Index().SetUnique(true)
		}
		if _, err := db.Collection(ix.coll).Indexes().CreateOne(ctx, im); err != nil {
			return fmt.Errorf("create index on %s: %w", ix.coll, err)
		}
	}
	return nil
}
