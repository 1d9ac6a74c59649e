package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockOrderRepository creates a GormOrderRepository with a mocked SQL connection
func newMockOrderRepository(t *testing.T) (*GormOrderRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormOrderRepository(&Database{DB: gormDB}), mock, mockDB
}

func TestGormOrderRepository_FindByBusinessKey(t *testing.T) {
	t.Run("finds existing order with lines", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		tenantID := uuid.New()

		orderRows := sqlmock.NewRows([]string{"id", "tenant_id", "business_key", "order_number", "status", "version", "revision"}).
			AddRow(orderID, tenantID, "GTN-PO-1001", "PO-1001", "OPEN", 1, 100)

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE tenant_id = \$1 AND business_key = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "GTN-PO-1001", 1).
			WillReturnRows(orderRows)

		lineRows := sqlmock.NewRows([]string{"id", "order_id", "line_number", "sku"}).
			AddRow(uuid.New(), orderID, 1, "SKU-A").
			AddRow(uuid.New(), orderID, 2, "SKU-B")

		mock.ExpectQuery(`SELECT \* FROM "order_lines" WHERE "order_lines"\."order_id" = \$1`).
			WithArgs(orderID).
			WillReturnRows(lineRows)

		order, err := repo.FindByBusinessKey(context.Background(), tenantID, "GTN-PO-1001")

		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, "PO-1001", order.OrderNumber)
		assert.Equal(t, document.Revision(100), order.Revision)
		assert.Len(t, order.Lines, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE tenant_id = \$1 AND business_key = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "GTN-NOPE", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		order, err := repo.FindByBusinessKey(context.Background(), tenantID, "GTN-NOPE")

		assert.Nil(t, order)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_FindOpenByOrderNumber(t *testing.T) {
	t.Run("matches only open orders", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		tenantID := uuid.New()

		orderRows := sqlmock.NewRows([]string{"id", "tenant_id", "business_key", "order_number", "status", "version"}).
			AddRow(orderID, tenantID, "GTN-PO-2002", "PO-2002", "OPEN", 1)

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE tenant_id = \$1 AND order_number = \$2 AND status = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "PO-2002", "OPEN", 1).
			WillReturnRows(orderRows)

		mock.ExpectQuery(`SELECT \* FROM "order_lines" WHERE "order_lines"\."order_id" = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "line_number"}))

		order, err := repo.FindOpenByOrderNumber(context.Background(), tenantID, "PO-2002")

		require.NoError(t, err)
		assert.Equal(t, document.OrderStatusOpen, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_SaveWithAudit(t *testing.T) {
	t.Run("saves order, syncs lines and appends audit record in one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		order, err := document.NewOrder(tenantID, "GTN-PO-3003", "PO-3003")
		require.NoError(t, err)
		line, err := document.NewOrderLine(order.ID, 1)
		require.NoError(t, err)
		order.Lines = []document.OrderLine{*line}

		rec, err := audit.NewRecord(tenantID, "order", order.ID, order.BusinessKey, 100, "worker", "msg-1", order)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "order_lines" WHERE order_id = \$1 AND id NOT IN \(\$2\)`).
			WithArgs(order.ID, line.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE "order_lines" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "audit_records" .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.SaveWithAudit(context.Background(), order, rec)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back everything when the audit insert fails", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		order, err := document.NewOrder(tenantID, "GTN-PO-4004", "PO-4004")
		require.NoError(t, err)

		rec, err := audit.NewRecord(tenantID, "order", order.ID, order.BusinessKey, 101, "worker", "msg-2", order)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "order_lines" WHERE order_id = \$1`).
			WithArgs(order.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO "audit_records" .*`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err = repo.SaveWithAudit(context.Background(), order, rec)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
