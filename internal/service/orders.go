package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/storage"
)

// OrderService определяет интерфейс чтения заказов и переходов по статусам.
type OrderService interface {
	GetOrderByID(ctx context.Context, orderID, userID int64) (*OrderResponse, error)
	GetOrderByNumber(ctx context.Context, orderNumber string, userID int64) (*OrderResponse, error)
	ListOrders(ctx context.Context, userID int64, limit, offset int) ([]*OrderSummary, error)
	// UpdateOrderStatus меняет статус исполнения. Первый переход в shipped или
	// delivered проставляет соответствующую временную метку, повторный — нет.
	// Переход в cancelled разрешён только из pending и confirmed.
	UpdateOrderStatus(ctx context.Context, orderID, userID int64, status models.OrderStatus) (*OrderResponse, error)
	// UpdatePaymentStatus меняет статус оплаты. Первый переход в paid проставляет
	// paid_at и переводит pending-заказ в confirmed.
	UpdatePaymentStatus(ctx context.Context, orderID, userID int64, paymentStatus models.PaymentStatus) (*OrderResponse, error)
	// CancelOrder отменяет заказ, если его текущий статус это допускает.
	CancelOrder(ctx context.Context, orderID, userID int64) (*OrderResponse, error)
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	orderRepo storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		orderRepo: orderRepo,
	}
}

// Выборки всегда ограничены заказами запрашивающего пользователя: чужой заказ
// неотличим от несуществующего, чтобы не раскрывать факт его существования.

func (s *orderService) GetOrderByID(ctx context.Context, orderID, userID int64) (*OrderResponse, error) {
	const op = "service.OrderService.GetOrderByID"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID, userID)
	if err != nil {
		s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewOrderResponse(order), nil
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string, userID int64) (*OrderResponse, error) {
	const op = "service.OrderService.GetOrderByNumber"

	order, err := s.orderRepo.GetOrderByNumber(ctx, orderNumber, userID)
	if err != nil {
		s.log.Error("failed to get order by number", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewOrderResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, userID int64, limit, offset int) ([]*OrderSummary, error) {
	const op = "service.OrderService.ListOrders"

	orders, err := s.orderRepo.ListOrdersByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summaries := make([]*OrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, NewOrderSummary(order))
	}
	return summaries, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID, userID int64, status models.OrderStatus) (*OrderResponse, error) {
	const op = "service.OrderService.UpdateOrderStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", status.String()))

	order, err := s.updateOrderTx(ctx, orderID, userID, func(order *models.Order, now time.Time) error {
		// отмена — охраняемый переход, разрешена только из pending и confirmed
		if status == models.OrderStatusCancelled && !order.Status.CanCancel() {
			return &CancelNotAllowedError{Status: order.Status}
		}
		order.Status = status
		// временные метки проставляются ровно один раз, при первом переходе
		if status == models.OrderStatusShipped && order.ShippedAt == nil {
			order.ShippedAt = &now
		}
		if status == models.OrderStatusDelivered && order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
		return nil
	})
	if err != nil {
		var cancelErr *CancelNotAllowedError
		if errors.As(err, &cancelErr) {
			logger.Warn("cancel not allowed", slog.String("status", cancelErr.Status.String()))
			return nil, err
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("order status updated")
	return NewOrderResponse(order), nil
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, orderID, userID int64, paymentStatus models.PaymentStatus) (*OrderResponse, error) {
	const op = "service.OrderService.UpdatePaymentStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("paymentStatus", string(paymentStatus)))

	order, err := s.updateOrderTx(ctx, orderID, userID, func(order *models.Order, now time.Time) error {
		order.PaymentStatus = paymentStatus
		if paymentStatus == models.PaymentStatusPaid && order.PaidAt == nil {
			order.PaidAt = &now
			// автоподтверждение только из pending; отменённый заказ остаётся
			// отменённым, даже если оплата пришла позже
			if order.Status == models.OrderStatusPending {
				order.Status = models.OrderStatusConfirmed
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to update payment status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("payment status updated")
	return NewOrderResponse(order), nil
}

// CancelOrder — частный случай смены статуса, охрана перехода общая
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID int64) (*OrderResponse, error) {
	return s.UpdateOrderStatus(ctx, orderID, userID, models.OrderStatusCancelled)
}

// updateOrderTx выполняет переход по статусам в одной транзакции: заказ
// блокируется с учётом владельца, mutate меняет его в памяти, изменяемые поля
// записываются обратно. После коммита заказ дополняется позициями для ответа.
func (s *orderService) updateOrderTx(ctx context.Context, orderID, userID int64, mutate func(order *models.Order, now time.Time) error) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	order, err := s.orderRepo.LockOrderByID(ctx, tx, orderID, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := mutate(order, now); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, err
	}
	order.UpdatedAt = now

	if err := s.orderRepo.UpdateOrderState(ctx, tx, order); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("failed to update order state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	items, err := s.orderRepo.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	order.Items = items
	return order, nil
}
