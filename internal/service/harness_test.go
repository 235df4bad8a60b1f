package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"localmart/internal/chat"
	"localmart/internal/events"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
	repomocks "localmart/internal/repository/mocks"
)

// fakes holds the typed repository mocks behind a repository.Repos.
type fakes struct {
	users         *repomocks.MockRepository[model.User]
	markets       *repomocks.MockRepository[model.Market]
	marketFees    *repomocks.MockRepository[model.MarketFee]
	feePayments   *repomocks.MockRepository[model.MarketFeePayment]
	categories    *repomocks.MockRepository[model.Category]
	stores        *repomocks.MockRepository[model.Store]
	follows       *repomocks.MockRepository[model.StoreFollow]
	sellerRegs    *repomocks.MockRepository[model.SellerRegistration]
	licenses      *repomocks.MockRepository[model.SellerLicense]
	proxyRegs     *repomocks.MockRepository[model.ProxyShopperRegistration]
	products      *repomocks.MockRepository[model.Product]
	favorites     *repomocks.MockRepository[model.FavoriteProduct]
	carts         *repomocks.MockRepository[model.Cart]
	orders        *repomocks.MockRepository[model.Order]
	reviews       *repomocks.MockRepository[model.Review]
	reports       *repomocks.MockRepository[model.Report]
	faqs          *repomocks.MockRepository[model.FAQ]
	support       *repomocks.MockRepository[model.SupportRequest]
	notifications *repomocks.MockRepository[model.Notification]
	messages      *repomocks.MockRepository[model.ChatMessage]
	proxyRequests *repomocks.MockRepository[model.ProxyRequest]
	bargains      *repomocks.MockRepository[model.FastBargain]
}

func newFakes() (*repository.Repos, *fakes) {
	f := &fakes{
		users:         new(repomocks.MockRepository[model.User]),
		markets:       new(repomocks.MockRepository[model.Market]),
		marketFees:    new(repomocks.MockRepository[model.MarketFee]),
		feePayments:   new(repomocks.MockRepository[model.MarketFeePayment]),
		categories:    new(repomocks.MockRepository[model.Category]),
		stores:        new(repomocks.MockRepository[model.Store]),
		follows:       new(repomocks.MockRepository[model.StoreFollow]),
		sellerRegs:    new(repomocks.MockRepository[model.SellerRegistration]),
		licenses:      new(repomocks.MockRepository[model.SellerLicense]),
		proxyRegs:     new(repomocks.MockRepository[model.ProxyShopperRegistration]),
		products:      new(repomocks.MockRepository[model.Product]),
		favorites:     new(repomocks.MockRepository[model.FavoriteProduct]),
		carts:         new(repomocks.MockRepository[model.Cart]),
		orders:        new(repomocks.MockRepository[model.Order]),
		reviews:       new(repomocks.MockRepository[model.Review]),
		reports:       new(repomocks.MockRepository[model.Report]),
		faqs:          new(repomocks.MockRepository[model.FAQ]),
		support:       new(repomocks.MockRepository[model.SupportRequest]),
		notifications: new(repomocks.MockRepository[model.Notification]),
		messages:      new(repomocks.MockRepository[model.ChatMessage]),
		proxyRequests: new(repomocks.MockRepository[model.ProxyRequest]),
		bargains:      new(repomocks.MockRepository[model.FastBargain]),
	}
	return &repository.Repos{
		Users:         f.users,
		Markets:       f.markets,
		MarketFees:    f.marketFees,
		FeePayments:   f.feePayments,
		Categories:    f.categories,
		Stores:        f.stores,
		Follows:       f.follows,
		SellerRegs:    f.sellerRegs,
		Licenses:      f.licenses,
		ProxyRegs:     f.proxyRegs,
		Products:      f.products,
		Favorites:     f.favorites,
		Carts:         f.carts,
		Orders:        f.orders,
		Reviews:       f.reviews,
		Reports:       f.reports,
		FAQs:          f.faqs,
		Support:       f.support,
		Notifications: f.notifications,
		Messages:      f.messages,
		ProxyRequests: f.proxyRequests,
		Bargains:      f.bargains,
	}, f
}

// inbox records notifications.
type inbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (i *inbox) Notify(_ context.Context, m notify.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, m)
	return nil
}

func (i *inbox) to(userID string) []notify.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []notify.Message
	for _, m := range i.msgs {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

// recorder records published events.
type recorder struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (r *recorder) Publish(_ context.Context, env events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.envs))
	for i, e := range r.envs {
		out[i] = e.EventType
	}
	return out
}

// pushes records frames sent to live connections.
type pushes struct {
	mu     sync.Mutex
	frames map[string][]chat.Frame
}

func (p *pushes) Send(userID string, f chat.Frame) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames == nil {
		p.frames = map[string][]chat.Frame{}
	}
	p.frames[userID] = append(p.frames[userID], f)
	return 1
}

func testDeps(repos *repository.Repos) (Deps, *inbox, *recorder) {
	in := &inbox{}
	rec := &recorder{}
	return Deps{
		Repos:    repos,
		Notifier: in,
		Events:   rec,
		Log:      logx.New(io.Discard, time.UTC),
	}, in, rec
}

// freezeClock pins model.Now for the duration of the test.
func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := model.Now
	model.Now = func() time.Time { return at }
	t.Cleanup(func() { model.Now = prev })
}

var ctxArg = mock.Anything

func duplicateKey() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
}
