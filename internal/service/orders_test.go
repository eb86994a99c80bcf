package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/service"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/stretchr/testify/assert"
)

func seedOrder(repo *fakeOrderRepo, userID int64, status models.OrderStatus) *models.Order {
	repo.nextID++
	order := &models.Order{
		ID:            repo.nextID,
		UserID:        userID,
		OrderNumber:   service.GenerateOrderNumber(),
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
		Subtotal:      42.48,
		Total:         42.48,
		CreatedAt:     time.Now().UTC().Add(-time.Duration(repo.nextID) * time.Minute),
		UpdatedAt:     time.Now().UTC(),
	}
	repo.orders[order.ID] = order
	repo.numbers[order.OrderNumber] = true
	repo.items[order.ID] = []*models.OrderItem{
		{ID: order.ID*100 + 1, OrderID: order.ID, ProductID: 1, ProductName: "t-shirt", Quantity: 2, UnitPrice: 10.99, TotalPrice: 21.98},
		{ID: order.ID*100 + 2, OrderID: order.ID, ProductID: 2, ProductName: "hoodie", Quantity: 1, UnitPrice: 20.50, TotalPrice: 20.50},
	}
	return order
}

func newOrderService(t *testing.T, db *sql.DB, orderRepo *fakeOrderRepo) service.OrderService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return service.NewOrderService(logger, db, orderRepo)
}

// одна транзакция перехода: Begin -> Lock -> Update -> Commit
func expectUpdateTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func TestOrderService_GetOrderByID(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusPending)

	svc := newOrderService(t, db, orderRepo)

	resp, err := svc.GetOrderByID(context.Background(), order.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, order.OrderNumber, resp.OrderNumber)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, "t-shirt", resp.Items[0].ProductName)
}

// Чужой заказ неотличим от несуществующего
func TestOrderService_GetOrderByID_OtherUser(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusPending)

	svc := newOrderService(t, db, orderRepo)

	_, err = svc.GetOrderByID(context.Background(), order.ID, 2)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}

func TestOrderService_GetOrderByNumber(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusPending)

	svc := newOrderService(t, db, orderRepo)

	resp, err := svc.GetOrderByNumber(context.Background(), order.OrderNumber, 1)
	assert.NoError(t, err)
	assert.Equal(t, order.ID, resp.ID)

	_, err = svc.GetOrderByNumber(context.Background(), order.OrderNumber, 2)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}

func TestOrderService_ListOrders(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	orderRepo := newFakeOrderRepo()
	first := seedOrder(orderRepo, 1, models.OrderStatusPending)
	second := seedOrder(orderRepo, 1, models.OrderStatusConfirmed)
	seedOrder(orderRepo, 2, models.OrderStatusPending) // чужой заказ в список не попадает

	svc := newOrderService(t, db, orderRepo)

	summaries, err := svc.ListOrders(context.Background(), 1, 50, 0)
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	// сортировка — новые сверху
	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, second.ID, summaries[1].ID)
	assert.Equal(t, 2, summaries[0].ItemsCount)
}

func TestOrderService_UpdateOrderStatus_ShippedAtSetOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectUpdateTx(mock)
	expectUpdateTx(mock)

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusProcessing)

	svc := newOrderService(t, db, orderRepo)

	resp, err := svc.UpdateOrderStatus(context.Background(), order.ID, 1, models.OrderStatusShipped)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, resp.Status)
	assert.NotNil(t, resp.ShippedAt)
	firstShippedAt := *resp.ShippedAt

	// повторный переход в shipped метку не трогает
	time.Sleep(5 * time.Millisecond)
	resp, err = svc.UpdateOrderStatus(context.Background(), order.ID, 1, models.OrderStatusShipped)
	assert.NoError(t, err)
	assert.Equal(t, firstShippedAt, *resp.ShippedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_UpdateOrderStatus_DeliveredAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectUpdateTx(mock)

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusShipped)

	svc := newOrderService(t, db, orderRepo)

	resp, err := svc.UpdateOrderStatus(context.Background(), order.ID, 1, models.OrderStatusDelivered)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, resp.Status)
	assert.NotNil(t, resp.DeliveredAt)
	assert.Nil(t, resp.PaidAt, "payment timestamps are not touched by status transitions")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_UpdatePaymentStatus_PaidConfirmsPendingOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectUpdateTx(mock)

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusPending)

	svc := newOrderService(t, db, orderRepo)

	resp, err := svc.UpdatePaymentStatus(context.Background(), order.ID, 1, models.PaymentStatusPaid)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, resp.PaymentStatus)
	assert.NotNil(t, resp.PaidAt)
	// оплата автоматически подтверждает ожидающий заказ
	assert.Equal(t, models.OrderStatusConfirmed, resp.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Отменённый заказ остаётся отменённым, даже если оплата пришла позже
func TestOrderService_UpdatePaymentStatus_PaidDoesNotReviveCancelled(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectUpdateTx(mock)

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusCancelled)

	svc := newOrderService(t, db, orderRepo)

	resp, err := svc.UpdatePaymentStatus(context.Background(), order.ID, 1, models.PaymentStatusPaid)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, resp.PaymentStatus)
	assert.NotNil(t, resp.PaidAt)
	assert.Equal(t, models.OrderStatusCancelled, resp.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_UpdatePaymentStatus_PaidAtSetOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectUpdateTx(mock)
	expectUpdateTx(mock)
	expectUpdateTx(mock)

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusPending)

	svc := newOrderService(t, db, orderRepo)

	resp, err := svc.UpdatePaymentStatus(context.Background(), order.ID, 1, models.PaymentStatusPaid)
	assert.NoError(t, err)
	firstPaidAt := *resp.PaidAt

	// failed -> снова paid: метка первой оплаты сохраняется
	_, err = svc.UpdatePaymentStatus(context.Background(), order.ID, 1, models.PaymentStatusFailed)
	assert.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	resp, err = svc.UpdatePaymentStatus(context.Background(), order.ID, 1, models.PaymentStatusPaid)
	assert.NoError(t, err)
	assert.Equal(t, firstPaidAt, *resp.PaidAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_CancelOrder_Allowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	for _, status := range []models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed} {
		expectUpdateTx(mock)

		orderRepo := newFakeOrderRepo()
		order := seedOrder(orderRepo, 1, status)

		svc := newOrderService(t, db, orderRepo)

		resp, err := svc.CancelOrder(context.Background(), order.ID, 1)
		assert.NoError(t, err, "cancel should be allowed from %s", status)
		assert.Equal(t, models.OrderStatusCancelled, resp.Status)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_CancelOrder_NotAllowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	statuses := []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
		models.OrderStatusRefunded,
	}
	for range statuses {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	for _, status := range statuses {
		orderRepo := newFakeOrderRepo()
		order := seedOrder(orderRepo, 1, status)

		svc := newOrderService(t, db, orderRepo)

		_, err := svc.CancelOrder(context.Background(), order.ID, 1)
		var cancelErr *service.CancelNotAllowedError
		assert.ErrorAs(t, err, &cancelErr, "cancel must be rejected from %s", status)
		assert.Equal(t, status, cancelErr.Status)
		// статус в хранилище не изменился
		assert.Equal(t, status, orderRepo.orders[order.ID].Status)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Отмена через общий переход по статусам охраняется так же, как CancelOrder:
// из processing и дальше пути в cancelled нет.
func TestOrderService_UpdateOrderStatus_CancelledGuarded(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	statuses := []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
		models.OrderStatusRefunded,
	}
	for range statuses {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	for _, status := range statuses {
		orderRepo := newFakeOrderRepo()
		order := seedOrder(orderRepo, 1, status)

		svc := newOrderService(t, db, orderRepo)

		_, err := svc.UpdateOrderStatus(context.Background(), order.ID, 1, models.OrderStatusCancelled)
		var cancelErr *service.CancelNotAllowedError
		assert.ErrorAs(t, err, &cancelErr, "status update to cancelled must be rejected from %s", status)
		assert.Equal(t, status, cancelErr.Status)
		// статус в хранилище не изменился
		assert.Equal(t, status, orderRepo.orders[order.ID].Status)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_UpdateOrderStatus_CancelledAllowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	for _, status := range []models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed} {
		expectUpdateTx(mock)

		orderRepo := newFakeOrderRepo()
		order := seedOrder(orderRepo, 1, status)

		svc := newOrderService(t, db, orderRepo)

		resp, err := svc.UpdateOrderStatus(context.Background(), order.ID, 1, models.OrderStatusCancelled)
		assert.NoError(t, err, "status update to cancelled should succeed from %s", status)
		assert.Equal(t, models.OrderStatusCancelled, resp.Status)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Переходы по чужому заказу невозможны и не раскрывают его существование
func TestOrderService_CancelOrder_OtherUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	orderRepo := newFakeOrderRepo()
	order := seedOrder(orderRepo, 1, models.OrderStatusPending)

	svc := newOrderService(t, db, orderRepo)

	_, err = svc.CancelOrder(context.Background(), order.ID, 2)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.Equal(t, models.OrderStatusPending, orderRepo.orders[order.ID].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}
