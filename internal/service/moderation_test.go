package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localmart/internal/model"
	"localmart/internal/repository"
	"localmart/internal/storage"
	stmocks "localmart/internal/storage/mocks"
)

func TestLicense_Upload(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	st := new(stmocks.MockStorage)
	d.Storage = st
	svc := NewLicenseService(d)
	ctx := context.Background()
	doc := func() Upload {
		return Upload{Reader: strings.NewReader("%PDF"), Size: 4, ContentType: "application/pdf"}
	}
	in := LicenseInput{LicenseType: "Business", LicenseNumber: "0312-A"}

	_, err := svc.Upload(ctx, "s1", in, Upload{Reader: strings.NewReader("x"), Size: 1, ContentType: "text/plain"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	st.On("Put", ctxArg, mock.MatchedBy(func(k string) bool { return strings.HasPrefix(k, "licenses/s1/") }), mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	f.licenses.On("Create", ctxArg, mock.Anything).Return(errors.New("write failed")).Once()
	st.On("Delete", ctxArg, mock.Anything).Return(nil).Once()
	_, err = svc.Upload(ctx, "s1", in, doc())
	assert.Error(t, err)
	st.AssertNumberOfCalls(t, "Delete", 1)

	f.licenses.On("Create", ctxArg, mock.Anything).Return(nil)
	l, err := svc.Upload(ctx, "s1", in, doc())
	require.NoError(t, err)
	assert.Equal(t, model.LicensePending, l.Status)
	assert.True(t, strings.HasSuffix(l.DocumentKey, ".pdf"))
}

func TestLicense_DocumentURL(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	st := new(stmocks.MockStorage)
	d.Storage = st
	svc := NewLicenseService(d)
	l := &model.SellerLicense{ID: model.NewID(), SellerID: "s1", DocumentKey: "licenses/s1/a.pdf"}
	f.licenses.On("FindByID", ctxArg, l.ID).Return(l, nil)
	st.On("PresignGet", ctxArg, l.DocumentKey, documentURLExpiry).Return("https://files.test/a.pdf", nil)
	ctx := context.Background()

	_, err := svc.DocumentURL(ctx, Actor{UserID: "s2", Role: model.RoleSeller}, l.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	u, err := svc.DocumentURL(ctx, Actor{UserID: "staff", Role: model.RoleMarketStaff}, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/a.pdf", u)
}

func TestLicense_Review(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewLicenseService(d)
	ctx := context.Background()
	staff := Actor{UserID: "staff", Role: model.RoleMarketStaff}
	l := &model.SellerLicense{ID: model.NewID(), SellerID: "s1", Status: model.LicensePending}
	done := &model.SellerLicense{ID: model.NewID(), Status: model.LicenseVerified}
	f.licenses.On("FindByID", ctxArg, l.ID).Return(l, nil)
	f.licenses.On("FindByID", ctxArg, done.ID).Return(done, nil)
	f.licenses.On("Update", ctxArg, l.ID, mock.Anything).Return(nil)

	assert.ErrorIs(t, svc.Reject(ctx, staff, l.ID, " "), ErrInvalidInput)
	assert.ErrorIs(t, svc.Verify(ctx, staff, done.ID, ""), ErrInvalidState)
	require.NoError(t, svc.Verify(ctx, staff, l.ID, "looks fine"))
	assert.Len(t, in.to("s1"), 1)
}

func TestReport_Create(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	svc := NewReportService(d)
	ctx := context.Background()
	me := model.NewID()
	f.users.On("FindByID", ctxArg, me).Return(&model.User{ID: me}, nil)
	missing := model.NewID()
	f.products.On("FindByID", ctxArg, missing).Return(nil, repository.ErrNotFound)

	_, err := svc.Create(ctx, me, ReportInput{TargetType: model.TargetUser, TargetID: me, Reason: "spam"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, me, ReportInput{TargetType: model.TargetProduct, TargetID: missing, Reason: "fake"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Create(ctx, me, ReportInput{TargetType: "Market", TargetID: missing, Reason: "fake"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	other := model.NewID()
	f.users.On("FindByID", ctxArg, other).Return(&model.User{ID: other}, nil)
	f.reports.On("Create", ctxArg, mock.Anything).Return(nil)
	r, err := svc.Create(ctx, me, ReportInput{TargetType: model.TargetUser, TargetID: other, Reason: " spam "})
	require.NoError(t, err)
	assert.Equal(t, "spam", r.Reason)
	assert.Equal(t, model.ReportPending, r.Status)
}

func TestReport_Resolve(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewReportService(d)
	ctx := context.Background()
	admin := Actor{UserID: "admin", Role: model.RoleAdmin}
	r := &model.Report{ID: model.NewID(), ReporterID: "u1", Status: model.ReportPending}
	f.reports.On("FindByID", ctxArg, r.ID).Return(r, nil)
	f.reports.On("Update", ctxArg, r.ID, mock.MatchedBy(func(fl repository.Filter) bool {
		return fl["status"] == model.ReportResolved && fl["handled_by"] == "admin"
	})).Return(nil).Run(func(mock.Arguments) { r.Status = model.ReportResolved })

	require.NoError(t, svc.Resolve(ctx, admin, r.ID, "removed"))
	assert.Len(t, in.to("u1"), 1)
	assert.ErrorIs(t, svc.Dismiss(ctx, admin, r.ID, ""), ErrInvalidState)
}

func TestSupport_Respond(t *testing.T) {
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	svc := NewSupportService(d)
	ctx := context.Background()
	admin := Actor{UserID: "admin", Role: model.RoleAdmin}
	open := &model.SupportRequest{ID: model.NewID(), UserID: "u1", Subject: "Refund", Status: model.SupportOpen}
	closed := &model.SupportRequest{ID: model.NewID(), Status: model.SupportClosed}
	f.support.On("FindByID", ctxArg, open.ID).Return(open, nil)
	f.support.On("FindByID", ctxArg, closed.ID).Return(closed, nil)
	f.support.On("Update", ctxArg, open.ID, mock.MatchedBy(func(fl repository.Filter) bool {
		return fl["status"] == model.SupportResolved
	})).Return(nil)

	assert.ErrorIs(t, svc.Respond(ctx, admin, open.ID, "  "), ErrInvalidInput)
	assert.ErrorIs(t, svc.Respond(ctx, admin, closed.ID, "ok"), ErrInvalidState)
	require.NoError(t, svc.Respond(ctx, admin, open.ID, "Refund issued"))
	msgs := in.to("u1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Support: Refund", msgs[0].Title)

	assert.ErrorIs(t, svc.SetStatus(ctx, admin, open.ID, "Escalated"), ErrInvalidInput)
}

func TestDashboard_Get(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	f.users.On("Count", ctxArg, mock.MatchedBy(func(fl repository.Filter) bool { return fl["role"] == model.RoleBuyer })).Return(int64(40), nil)
	f.users.On("Count", ctxArg, mock.Anything).Return(int64(2), nil)
	f.stores.On("Count", ctxArg, mock.Anything).Return(int64(3), nil)
	f.orders.On("Count", ctxArg, mock.Anything).Return(int64(5), nil)
	f.products.On("Count", ctxArg, mock.Anything).Return(int64(120), nil)
	f.sellerRegs.On("Count", ctxArg, mock.Anything).Return(int64(1), nil)
	f.proxyRegs.On("Count", ctxArg, mock.Anything).Return(int64(0), nil)
	f.reports.On("Count", ctxArg, mock.Anything).Return(int64(4), nil)
	f.support.On("Count", ctxArg, mock.Anything).Return(int64(6), nil)

	got, err := NewDashboardService(d).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(40), got.UsersByRole[model.RoleBuyer])
	assert.Equal(t, int64(2), got.UsersByRole[model.RoleAdmin])
	assert.Len(t, got.OrdersByStatus, 5)
	assert.Equal(t, int64(5), got.OrdersByStatus[string(model.OrderPaid)])
	assert.Equal(t, int64(120), got.Products)
	assert.Equal(t, int64(6), got.OpenSupportRequests)
}

func TestDashboard_Get_Error(t *testing.T) {
	repos, f := newFakes()
	d, _, _ := testDeps(repos)
	f.users.On("Count", ctxArg, mock.Anything).Return(int64(0), errors.New("mongo down"))

	_, err := NewDashboardService(d).Get(context.Background())
	assert.Error(t, err)
}
