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

const (
	// maxCheckoutAttempts ограничивает повторы оформления при нарушении
	// уникальности номера заказа — узкое окно гонки двух одновременных оформлений
	maxCheckoutAttempts = 3
	// maxNumberAttempts ограничивает генерацию номера внутри одной транзакции
	maxNumberAttempts = 5
)

// CheckoutService определяет интерфейс оформления заказа из корзины.
type CheckoutService interface {
	// Checkout находит активную корзину пользователя и оформляет из неё заказ.
	Checkout(ctx context.Context, userID int64, req models.CheckoutRequest) (*models.Order, error)
	// CreateOrderFromCart превращает переданную корзину в заказ: проверка,
	// расчёт сумм, номер, снимки позиций и перевод корзины в converted —
	// всё в одной транзакции.
	CreateOrderFromCart(ctx context.Context, cart *models.Cart, userID int64, req models.CheckoutRequest) (*models.Order, error)
	// ValidateCartForCheckout проверяет корзину и возвращает накопленный список причин отказа.
	ValidateCartForCheckout(ctx context.Context, tx *sql.Tx, cart *models.Cart) (bool, []string, error)
}

type checkoutService struct {
	log          *slog.Logger
	db           *sql.DB
	cartRepo     storage.CartStorage
	productRepo  storage.ProductStorage
	orderRepo    storage.OrderStorage
	taxRate      float64
	shippingCost float64
}

func NewCheckoutService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, productRepo storage.ProductStorage, orderRepo storage.OrderStorage, taxRate, shippingCost float64) CheckoutService {
	return &checkoutService{
		log:          log,
		db:           db,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		taxRate:      taxRate,
		shippingCost: shippingCost,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID int64, req models.CheckoutRequest) (*models.Order, error) {
	const op = "service.CheckoutService.Checkout"

	cart, err := s.cartRepo.GetActiveCartByUserID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrCartNotFound) {
		s.log.Error("failed to get cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}
	// отсутствие корзины — обычная ошибка валидации, а не сбой хранилища
	return s.CreateOrderFromCart(ctx, cart, userID, req)
}

// CreateOrderFromCart оформляет заказ. Единственный внутренний повтор —
// при нарушении уникальности номера заказа, и тот ограничен по числу попыток.
func (s *checkoutService) CreateOrderFromCart(ctx context.Context, cart *models.Cart, userID int64, req models.CheckoutRequest) (*models.Order, error) {
	const op = "service.CheckoutService.CreateOrderFromCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	for attempt := 1; attempt <= maxCheckoutAttempts; attempt++ {
		order, err := s.createOrderOnce(ctx, cart, userID, req)
		if err != nil && storage.IsOrderNumberConflict(err) {
			logger.Warn("order number collision, retrying checkout", slog.Int("attempt", attempt))
			continue
		}
		return order, err
	}
	logger.Error("order number collisions exhausted retry budget")
	return nil, fmt.Errorf("%s: failed to assign unique order number after %d attempts", op, maxCheckoutAttempts)
}

// createOrderOnce выполняет одну попытку оформления в собственной транзакции
func (s *checkoutService) createOrderOnce(ctx context.Context, cart *models.Cart, userID int64, req models.CheckoutRequest) (*models.Order, error) {
	const op = "service.CheckoutService.createOrderOnce"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Повторная проверка корзины уже внутри транзакции
	reasons, products, err := s.validateCart(ctx, tx, cart)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to validate cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to validate cart: %w", op, err)
	}
	if len(reasons) > 0 {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("cart validation failed", slog.Any("reasons", reasons))
		return nil, &CartValidationError{Reasons: reasons}
	}

	totals := CalculateOrderTotals(cart, s.taxRate, s.shippingCost)

	orderNumber, err := s.generateUniqueOrderNumber(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to generate order number", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to generate order number: %w", op, err)
	}

	now := time.Now().UTC()
	order := &models.Order{
		UserID:        userID,
		OrderNumber:   orderNumber,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		ShippingCost:  totals.ShippingCost,
		Total:         totals.Total,
		// адрес копируется из запроса как есть, профиль пользователя не читается
		ShippingName:       req.ShippingAddress.Name,
		ShippingEmail:      req.ShippingAddress.Email,
		ShippingPhone:      req.ShippingAddress.Phone,
		ShippingAddress:    req.ShippingAddress.Address,
		ShippingCity:       req.ShippingAddress.City,
		ShippingState:      req.ShippingAddress.State,
		ShippingPostalCode: req.ShippingAddress.PostalCode,
		ShippingCountry:    req.ShippingAddress.Country,
		Notes:              req.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	orderID, err := s.orderRepo.CreateOrder(ctx, tx, order)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if storage.IsOrderNumberConflict(err) {
			// проигрыш в гонке за номер, ограничение в БД — последняя линия защиты
			return nil, err
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}
	order.ID = orderID

	// Снимки позиций: название, цена и количество фиксируются навсегда
	for _, cartItem := range cart.Items {
		item := &models.OrderItem{
			OrderID:     orderID,
			ProductID:   cartItem.ProductID,
			ProductName: products[cartItem.ProductID].Name,
			Quantity:    cartItem.Quantity,
			UnitPrice:   cartItem.UnitPrice,
			TotalPrice:  round2(float64(cartItem.Quantity) * cartItem.UnitPrice),
			CreatedAt:   now,
		}
		itemID, err := s.orderRepo.CreateOrderItem(ctx, tx, item)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to create order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order item: %w", op, err)
		}
		item.ID = itemID
		order.Items = append(order.Items, item)
	}

	// Корзина конвертируется ровно один раз
	if err := s.cartRepo.MarkCartConverted(ctx, tx, cart.ID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to mark cart converted", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to mark cart converted: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		if storage.IsOrderNumberConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("checkout completed successfully",
		slog.String("orderNumber", order.OrderNumber),
		slog.Int64("orderID", order.ID),
	)
	return order, nil
}

// generateUniqueOrderNumber подбирает свободный номер заказа, проверяя занятость
// непосредственно перед использованием. Число попыток ограничено: вероятность
// коллизии случайного суффикса мала, но не нулевая.
func (s *checkoutService) generateUniqueOrderNumber(ctx context.Context, tx *sql.Tx) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number := GenerateOrderNumber()
		exists, err := s.orderRepo.OrderNumberExists(ctx, tx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("no free order number after %d attempts", maxNumberAttempts)
}
