package service

import (
	"context"

	"localmart/internal/model"
	"localmart/internal/repository"
)

// Dashboard is the admin overview.
type Dashboard struct {
	UsersByRole         map[string]int64 `json:"users_by_role"`
	StoresByStatus      map[string]int64 `json:"stores_by_status"`
	Products            int64            `json:"products"`
	OrdersByStatus      map[string]int64 `json:"orders_by_status"`
	PendingSellerRegs   int64            `json:"pending_seller_registrations"`
	PendingProxyRegs    int64            `json:"pending_proxy_registrations"`
	PendingReports      int64            `json:"pending_reports"`
	OpenSupportRequests int64            `json:"open_support_requests"`
}

type DashboardService interface {
	Get(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	repos *repository.Repos
}

func NewDashboardService(d Deps) DashboardService {
	return &dashboardService{repos: d.Repos}
}

func countBy[T any](ctx context.Context, repo repository.Repository[T], field string, values []string, base repository.Filter) (map[string]int64, error) {
	out := make(map[string]int64, len(values))
	for _, v := range values {
		f := repository.Filter{field: v}
		for k, bv := range base {
			f[k] = bv
		}
		n, err := repo.Count(ctx, f)
		if err != nil {
			return nil, err
		}
		out[v] = n
	}
	return out, nil
}

func (s *dashboardService) Get(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	roles := []string{model.RoleBuyer, model.RoleSeller, model.RoleProxyShopper, model.RoleMarketStaff, model.RoleAdmin}
	notDeleted := repository.Filter{"status": repository.Filter{"$ne": model.UserDeleted}}
	if d.UsersByRole, err = countBy(ctx, s.repos.Users, "role", roles, notDeleted); err != nil {
		return nil, err
	}
	storeStatuses := []string{model.StoreOpen, model.StoreClosed, model.StoreSuspended}
	if d.StoresByStatus, err = countBy(ctx, s.repos.Stores, "status", storeStatuses, nil); err != nil {
		return nil, err
	}
	orderStatuses := []string{
		string(model.OrderPending), string(model.OrderConfirmed), string(model.OrderPaid),
		string(model.OrderCompleted), string(model.OrderCancelled),
	}
	if d.OrdersByStatus, err = countBy(ctx, s.repos.Orders, "status", orderStatuses, nil); err != nil {
		return nil, err
	}
	if d.Products, err = s.repos.Products.Count(ctx, repository.Filter{"status": repository.Filter{"$ne": model.ProductDeleted}}); err != nil {
		return nil, err
	}
	if d.PendingSellerRegs, err = s.repos.SellerRegs.Count(ctx, repository.Filter{"status": model.RegistrationPending}); err != nil {
		return nil, err
	}
	if d.PendingProxyRegs, err = s.repos.ProxyRegs.Count(ctx, repository.Filter{"status": model.RegistrationPending}); err != nil {
		return nil, err
	}
	if d.PendingReports, err = s.repos.Reports.Count(ctx, repository.Filter{"status": model.ReportPending}); err != nil {
		return nil, err
	}
	if d.OpenSupportRequests, err = s.repos.Support.Count(ctx, repository.Filter{"status": model.SupportOpen}); err != nil {
		return nil, err
	}
	return &d, nil
}
