package services

import (
	"context"
	"errors"
	"math"

	"storefront-backend/common/apperrors"
	"storefront-backend/models"
	"storefront-backend/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageMeta is the pagination envelope returned with every order list.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Meta   PageMeta       `json:"meta"`
}

// OrderService serves read access to orders for customers and admins.
type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

func clampPaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func pageMeta(page, limit int, total int64) PageMeta {
	return PageMeta{
		CurrentPage: page,
		PageSize:    limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		TotalCount:  total,
	}
}

// GetUserOrders lists the caller's own orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderPage, error) {
	page, limit = clampPaging(page, limit)
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: orders, Meta: pageMeta(page, limit, total)}, nil
}

// GetAllOrders lists every order, for the admin dashboard.
func (s *OrderService) GetAllOrders(ctx context.Context, page, limit int) (*OrderPage, error) {
	page, limit = clampPaging(page, limit)
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: orders, Meta: pageMeta(page, limit, total)}, nil
}

// GetOrder returns one order, enforcing that non-admin callers only see
// their own.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if isAdmin {
		order, err = s.orders.FindByID(ctx, orderID)
	} else {
		order, err = s.orders.FindByIDAndUserID(ctx, orderID, userID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
