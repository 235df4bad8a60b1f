package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"localmart/internal/http/middleware"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/service"
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Loyalty       service.LoyaltyService
	Markets       service.MarketService
	Categories    service.CategoryService
	Registrations service.RegistrationService
	Licenses      service.LicenseService
	Stores        service.StoreService
	Products      service.ProductService
	Cart          service.CartService
	Orders        service.OrderService
	Payments      service.PaymentService
	Reviews       service.ReviewService
	Reports       service.ReportService
	FAQs          service.FAQService
	Support       service.SupportService
	Notifications service.NotificationService
	Chat          service.ChatService
	Proxy         service.ProxyService
	Bargains      service.BargainService
	Fees          service.MarketFeeService
	Dashboard     service.DashboardService
}

// Infra carries the non-service collaborators of the router.
type Infra struct {
	Ping   PingFunc
	Tokens middleware.TokenParser
	// Accounts, when set, re-checks the stored role and status on every authenticated request.
	Accounts middleware.AccountSource
	Hub      ChatHub
	Metrics  prometheus.Gatherer
	Log      *logx.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Static segments (/me, /store) are registered before their /:id siblings.
func RegisterRoutes(app *fiber.App, in Infra, s Services) {
	app.Get("/health", HealthCheck(in.Ping))
	app.Get("/healthz", LivenessProbe())
	if in.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(in.Metrics, promhttp.HandlerOpts{})))
	}

	log := in.Log
	if log == nil {
		log = logx.Default()
	}
	app.Use("/ws", RequireUpgrade())
	app.Get("/ws/chat", middleware.QueryAuth(in.Tokens, in.Accounts), ChatSocket(s.Chat, in.Hub, log))

	authed := middleware.Auth(in.Tokens, in.Accounts)
	optional := middleware.OptionalAuth(in.Tokens, in.Accounts)
	roles := middleware.RequireRoles
	admin := roles(model.RoleAdmin)
	staff := roles(model.RoleAdmin, model.RoleMarketStaff)
	seller := roles(model.RoleSeller)
	buyer := roles(model.RoleBuyer)
	proxy := roles(model.RoleProxyShopper)

	api := app.Group("/api/v1")

	a := api.Group("/auth")
	a.Post("/register", RegisterUser(s.Auth))
	a.Post("/login", Login(s.Auth))
	a.Post("/verify-email", VerifyEmail(s.Auth))
	a.Post("/forgot-password", ForgotPassword(s.Auth))
	a.Post("/reset-password", ResetPassword(s.Auth))
	a.Post("/change-password", authed, ChangePassword(s.Auth))
	a.Get("/me", authed, Me(s.Auth))

	u := api.Group("/users", authed)
	u.Get("/me/loyalty", MyLoyalty(s.Users))
	u.Put("/me", UpdateProfile(s.Users))
	u.Get("/", admin, ListUsers(s.Users))
	u.Get("/:id", admin, GetUser(s.Users))
	u.Put("/:id/status", admin, SetUserStatus(s.Users))
	u.Put("/:id/role", admin, SetUserRole(s.Users))
	u.Delete("/:id", admin, DeleteUser(s.Users))
	u.Post("/:id/loyalty/recompute", admin, RecomputeLoyalty(s.Loyalty))

	m := api.Group("/markets")
	m.Get("/", ListMarkets(s.Markets))
	m.Get("/:id", GetMarket(s.Markets))
	m.Get("/:id/fees", authed, staff, MarketFees(s.Fees))
	m.Post("/", authed, admin, CreateMarket(s.Markets))
	m.Put("/:id", authed, admin, UpdateMarket(s.Markets))
	m.Put("/:id/status", authed, admin, SetMarketStatus(s.Markets))
	m.Put("/:id/rules", authed, staff, SetMarketRules(s.Markets))
	m.Delete("/:id", authed, admin, DeleteMarket(s.Markets))

	cat := api.Group("/categories")
	cat.Get("/", optional, ListCategories(s.Categories))
	cat.Get("/:id", GetCategory(s.Categories))
	cat.Post("/", authed, admin, CreateCategory(s.Categories))
	cat.Put("/:id", authed, admin, UpdateCategory(s.Categories))
	cat.Put("/:id/status", authed, admin, SetCategoryStatus(s.Categories))
	cat.Delete("/:id", authed, admin, DeleteCategory(s.Categories))

	sr := api.Group("/seller-registrations", authed)
	sr.Post("/", buyer, SubmitSellerRegistration(s.Registrations))
	sr.Get("/me", MySellerRegistrations(s.Registrations))
	sr.Get("/", staff, ListSellerRegistrations(s.Registrations))
	sr.Put("/:id/approve", staff, ApproveSellerRegistration(s.Registrations))
	sr.Put("/:id/reject", staff, RejectSellerRegistration(s.Registrations))

	pr := api.Group("/proxy-registrations", authed)
	pr.Post("/", buyer, SubmitProxyRegistration(s.Registrations))
	pr.Get("/me", MyProxyRegistrations(s.Registrations))
	pr.Get("/", admin, ListProxyRegistrations(s.Registrations))
	pr.Put("/:id/approve", admin, ApproveProxyRegistration(s.Registrations))
	pr.Put("/:id/reject", admin, RejectProxyRegistration(s.Registrations))

	lic := api.Group("/seller-licenses", authed)
	lic.Post("/", seller, UploadLicense(s.Licenses))
	lic.Get("/me", seller, MyLicenses(s.Licenses))
	lic.Get("/", staff, ListLicenses(s.Licenses))
	lic.Get("/:id/document", LicenseDocument(s.Licenses))
	lic.Put("/:id/verify", staff, VerifyLicense(s.Licenses))
	lic.Put("/:id/reject", staff, RejectLicense(s.Licenses))

	st := api.Group("/stores")
	st.Get("/me", authed, seller, MyStore(s.Stores))
	st.Put("/me", authed, seller, UpdateMyStore(s.Stores))
	st.Put("/me/status", authed, seller, SetMyStoreStatus(s.Stores))
	st.Post("/me/logo", authed, seller, UploadStoreLogo(s.Stores))
	st.Get("/followed", authed, FollowedStores(s.Stores))
	st.Get("/", ListStores(s.Stores))
	st.Get("/:id", GetStore(s.Stores))
	st.Get("/:id/products", StoreProducts(s.Products))
	st.Get("/:id/reviews", StoreReviews(s.Reviews))
	st.Put("/:id/suspend", authed, staff, SuspendStore(s.Stores))
	st.Put("/:id/unsuspend", authed, staff, UnsuspendStore(s.Stores))
	st.Post("/:id/follow", authed, FollowStore(s.Stores))
	st.Delete("/:id/follow", authed, UnfollowStore(s.Stores))

	p := api.Group("/products")
	p.Get("/", SearchProducts(s.Products))
	p.Get("/:id", optional, GetProduct(s.Products))
	p.Get("/:id/reviews", ProductReviews(s.Reviews))
	p.Post("/", authed, seller, CreateProduct(s.Products))
	p.Put("/:id", authed, seller, UpdateProduct(s.Products))
	p.Put("/:id/status", authed, seller, SetProductStatus(s.Products))
	p.Delete("/:id", authed, seller, DeleteProduct(s.Products))
	p.Post("/:id/images", authed, seller, AddProductImage(s.Products))
	p.Delete("/:id/images/:index", authed, seller, RemoveProductImage(s.Products))

	fav := api.Group("/favorites", authed)
	fav.Get("/", Favorites(s.Products))
	fav.Post("/:productId", AddFavorite(s.Products))
	fav.Delete("/:productId", RemoveFavorite(s.Products))

	c := api.Group("/cart", authed)
	c.Get("/", GetCart(s.Cart))
	c.Delete("/", ClearCart(s.Cart))
	c.Post("/items", AddCartItem(s.Cart))
	c.Put("/items/:productId", UpdateCartItem(s.Cart))
	c.Delete("/items/:productId", RemoveCartItem(s.Cart))

	o := api.Group("/orders", authed)
	o.Post("/checkout", Checkout(s.Orders))
	o.Get("/me", MyOrders(s.Orders))
	o.Get("/store", seller, StoreOrders(s.Orders))
	o.Get("/:id", GetOrder(s.Orders))
	o.Put("/:id/confirm", seller, ConfirmOrder(s.Orders))
	o.Put("/:id/cancel", CancelOrder(s.Orders))
	o.Put("/:id/mark-paid", seller, MarkOrderPaid(s.Orders))
	o.Put("/:id/complete", CompleteOrder(s.Orders))

	pay := api.Group("/payments")
	pay.Get("/vnpay/return", PaymentReturn(s.Payments))
	pay.Get("/vnpay/ipn", PaymentIPN(s.Payments))
	pay.Get("/me", authed, PaymentHistory(s.Payments))
	pay.Post("/orders/:id", authed, PayOrder(s.Payments))
	pay.Post("/market-fees/:id", authed, seller, PayMarketFee(s.Payments))

	rv := api.Group("/reviews", authed)
	rv.Post("/", CreateReview(s.Reviews))
	rv.Put("/:id", UpdateReview(s.Reviews))
	rv.Delete("/:id", DeleteReview(s.Reviews))
	rv.Put("/:id/response", seller, RespondReview(s.Reviews))

	rp := api.Group("/reports", authed)
	rp.Post("/", CreateReport(s.Reports))
	rp.Get("/me", MyReports(s.Reports))
	rp.Get("/", staff, ListReports(s.Reports))
	rp.Put("/:id/resolve", staff, ResolveReport(s.Reports))
	rp.Put("/:id/dismiss", staff, DismissReport(s.Reports))

	fq := api.Group("/faqs")
	fq.Get("/", ListFAQs(s.FAQs))
	fq.Get("/:id", GetFAQ(s.FAQs))
	fq.Post("/", authed, admin, CreateFAQ(s.FAQs))
	fq.Put("/:id", authed, admin, UpdateFAQ(s.FAQs))
	fq.Delete("/:id", authed, admin, DeleteFAQ(s.FAQs))

	sup := api.Group("/support-requests", authed)
	sup.Post("/", CreateSupportRequest(s.Support))
	sup.Get("/me", MySupportRequests(s.Support))
	sup.Get("/", admin, ListSupportRequests(s.Support))
	sup.Put("/:id/respond", admin, RespondSupportRequest(s.Support))
	sup.Put("/:id/status", admin, SetSupportStatus(s.Support))

	n := api.Group("/notifications", authed)
	n.Get("/", ListNotifications(s.Notifications))
	n.Get("/unread-count", UnreadNotifications(s.Notifications))
	n.Put("/read-all", MarkAllNotificationsRead(s.Notifications))
	n.Put("/:id/read", MarkNotificationRead(s.Notifications))

	ch := api.Group("/chat", authed)
	ch.Get("/conversations", Conversations(s.Chat))
	ch.Get("/messages/:userId", ChatHistory(s.Chat))
	ch.Put("/messages/:userId/read", MarkChatRead(s.Chat))

	px := api.Group("/proxy-requests", authed)
	px.Post("/", buyer, CreateProxyRequest(s.Proxy))
	px.Get("/me", MyProxyRequests(s.Proxy))
	px.Get("/available", proxy, AvailableProxyRequests(s.Proxy))
	px.Get("/assigned", proxy, AssignedProxyRequests(s.Proxy))
	px.Get("/:id", GetProxyRequest(s.Proxy))
	px.Put("/:id/accept", proxy, AcceptProxyRequest(s.Proxy))
	px.Put("/:id/proposal", proxy, ProposeProxyRequest(s.Proxy))
	px.Put("/:id/reject-proposal", RejectProxyProposal(s.Proxy))
	px.Put("/:id/approve-proposal", ApproveProxyProposal(s.Proxy))
	px.Put("/:id/start", proxy, StartProxyRequest(s.Proxy))
	px.Put("/:id/complete", proxy, CompleteProxyRequest(s.Proxy))
	px.Put("/:id/cancel", CancelProxyRequest(s.Proxy))

	b := api.Group("/bargains", authed)
	b.Post("/", buyer, CreateBargain(s.Bargains))
	b.Get("/me", MyBargains(s.Bargains))
	b.Get("/store", seller, StoreBargains(s.Bargains))
	b.Get("/:id", GetBargain(s.Bargains))
	b.Put("/:id/propose", ProposeBargain(s.Bargains))
	b.Put("/:id/accept", AcceptBargain(s.Bargains))
	b.Put("/:id/reject", RejectBargain(s.Bargains))
	b.Put("/:id/cancel", CancelBargain(s.Bargains))

	fee := api.Group("/market-fees", authed, admin)
	fee.Post("/", CreateMarketFee(s.Fees))
	fee.Put("/:id", UpdateMarketFee(s.Fees))
	fee.Delete("/:id", DeleteMarketFee(s.Fees))

	fp := api.Group("/market-fee-payments", authed)
	fp.Get("/me", seller, MyFeePayments(s.Fees))
	fp.Get("/", staff, FeePayments(s.Fees))
	fp.Put("/:id/mark-paid", staff, MarkFeePaid(s.Fees))

	adm := api.Group("/admin", authed, admin)
	adm.Get("/dashboard", Dashboard(s.Dashboard))
	adm.Get("/orders/export", ExportOrders(s.Orders))
}
