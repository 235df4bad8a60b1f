package repository

import "localmart/internal/model"

// Repos bundles one repository per collection.
type Repos struct {
	Users         Repository[model.User]
	Markets       Repository[model.Market]
	MarketFees    Repository[model.MarketFee]
	FeePayments   Repository[model.MarketFeePayment]
	Categories    Repository[model.Category]
	Stores        Repository[model.Store]
	Follows       Repository[model.StoreFollow]
	SellerRegs    Repository[model.SellerRegistration]
	Licenses      Repository[model.SellerLicense]
	ProxyRegs     Repository[model.ProxyShopperRegistration]
	Products      Repository[model.Product]
	Favorites     Repository[model.FavoriteProduct]
	Carts         Repository[model.Cart]
	Orders        Repository[model.Order]
	Reviews       Repository[model.Review]
	Reports       Repository[model.Report]
	FAQs          Repository[model.FAQ]
	Support       Repository[model.SupportRequest]
	Notifications Repository[model.Notification]
	Messages      Repository[model.ChatMessage]
	ProxyRequests Repository[model.ProxyRequest]
	Bargains      Repository[model.FastBargain]
}
