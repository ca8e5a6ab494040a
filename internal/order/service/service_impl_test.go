package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/cotiza/internal/audit/domain"
	auditservice "github.com/smallbiznis/cotiza/internal/audit/service"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/cotiza/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/cotiza/internal/catalog/service"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/order/domain"
	"github.com/smallbiznis/cotiza/internal/order/repository"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	storageservice "github.com/smallbiznis/cotiza/internal/storage/service"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	db    *gorm.DB
	svc   domain.Service
	blobs storagedomain.Store
	clock *clock.FakeClock

	admin   domain.Actor
	compras domain.Actor
	other   domain.Actor

	pump  *catalogdomain.Product
	valve *catalogdomain.Product
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&storagedomain.Blob{},
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&catalogdomain.ServiceItem{},
		&domain.Order{},
		&domain.OrderItem{},
		&auditdomain.Event{},
	))

	log := zap.NewNop()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	blobs := storageservice.New(log, db, node, fc)
	catalog := catalogservice.New(catalogservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  catalogrepository.Provide(),
		Clock: fc,
	})
	audit := auditservice.New(log, db, node, fc)

	svc := New(Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Repo:    repository.Provide(),
		Catalog: catalog,
		Blobs:   blobs,
		Audit:   audit,
		Clock:   fc,
	})

	e := &env{
		db:      db,
		svc:     svc,
		blobs:   blobs,
		clock:   fc,
		admin:   domain.Actor{ID: node.Generate(), Role: authdomain.RoleAdmin},
		compras: domain.Actor{ID: node.Generate(), Role: authdomain.RoleCompras},
		other:   domain.Actor{ID: node.Generate(), Role: authdomain.RoleCompras},
	}

	ctx := context.Background()
	e.pump, err = catalog.CreateProduct(ctx, catalogdomain.CreateProductRequest{
		SKU: "BOM-001", Name: "Bomba centrifuga", Cost: dec("100"),
	})
	require.NoError(t, err)
	e.valve, err = catalog.CreateProduct(ctx, catalogdomain.CreateProductRequest{
		SKU: "VAL-014", Name: "Valvula de bola", Cost: dec("50"),
	})
	require.NoError(t, err)

	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func (e *env) newDraft(t *testing.T) *domain.Order {
	t.Helper()
	order, err := e.svc.CreateDraft(context.Background(), e.compras, domain.CreateDraftRequest{
		SupplierName: "Aceros del Centro",
	})
	require.NoError(t, err)
	return order
}

// readyToSend adds items and evidence so Send's guards pass.
func (e *env) readyToSend(t *testing.T) *domain.OrderDetail {
	t.Helper()
	ctx := context.Background()
	order := e.newDraft(t)

	_, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 2})
	require.NoError(t, err)
	detail, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.valve.ID, Quantity: 1})
	require.NoError(t, err)

	for _, item := range detail.Items {
		_, err := e.svc.AttachEvidence(ctx, e.compras, order.ID, item.ID, "cotizacion.pdf", "application/pdf", []byte("evidence"))
		require.NoError(t, err)
	}
	detail, err = e.svc.Get(ctx, e.compras, order.ID)
	require.NoError(t, err)
	return detail
}

func TestAddItemMergesSameProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.newDraft(t)

	_, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 2})
	require.NoError(t, err)
	detail, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, detail.Items, 1, "same product merges into one line")
	require.Equal(t, 5, detail.Items[0].Quantity)
	require.True(t, detail.Items[0].Subtotal.Equal(dec("500")))
	require.True(t, detail.Order.Total.Equal(dec("500")))
}

func TestAddItemValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.newDraft(t)

	_, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 0})
	require.ErrorIs(t, err, pricing.ErrInvalidQuantity)

	_, err = e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: 987654, Quantity: 1})
	require.ErrorIs(t, err, catalogdomain.ErrNotFound)

	_, err = e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{
		ProductID: e.pump.ID, Quantity: 1, Cost: decPtr("-3"),
	})
	require.ErrorIs(t, err, pricing.ErrInvalidCost)
}

func TestUpdateAndRemoveItemRecomputeTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.newDraft(t)

	a, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 1})
	require.NoError(t, err)
	detail, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.valve.ID, Quantity: 2})
	require.NoError(t, err)
	require.True(t, detail.Order.Total.Equal(dec("200")))

	qty := 4
	detail, err = e.svc.UpdateItem(ctx, e.compras, order.ID, a.Items[0].ID, domain.ItemEdit{
		Quantity: &qty, Cost: decPtr("90"),
	})
	require.NoError(t, err)
	require.True(t, detail.Order.Total.Equal(dec("460")))

	detail, err = e.svc.RemoveItem(ctx, e.compras, order.ID, a.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	require.True(t, detail.Order.Total.Equal(dec("100")))
}

func TestSendRequiresItemsAndEvidence(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.newDraft(t)

	_, err := e.svc.Send(ctx, e.compras, order.ID)
	require.ErrorIs(t, err, domain.ErrNoItems)

	detail, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = e.svc.Send(ctx, e.compras, order.ID)
	require.ErrorIs(t, err, domain.ErrEvidenceRequired)

	_, err = e.svc.AttachEvidence(ctx, e.compras, order.ID, detail.Items[0].ID, "factura.pdf", "application/pdf", []byte("scan"))
	require.NoError(t, err)

	sent, err := e.svc.Send(ctx, e.compras, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSent, sent.Order.Status)
	require.NotNil(t, sent.Order.Folio)
	require.NotNil(t, sent.Order.SentAt)

	_, err = e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.valve.ID, Quantity: 1})
	require.ErrorIs(t, err, domain.ErrInvalidState, "sent orders reject edits")
}

func TestAttachEvidenceReplacesPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.newDraft(t)

	detail, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := detail.Items[0].ID

	first, err := e.svc.AttachEvidence(ctx, e.compras, order.ID, itemID, "v1.pdf", "application/pdf", []byte("v1"))
	require.NoError(t, err)
	firstBlob := *first.EvidenceBlobID

	second, err := e.svc.AttachEvidence(ctx, e.compras, order.ID, itemID, "v2.pdf", "application/pdf", []byte("v2"))
	require.NoError(t, err)
	require.NotEqual(t, firstBlob, *second.EvidenceBlobID)

	_, err = e.blobs.Get(ctx, firstBlob)
	require.ErrorIs(t, err, storagedomain.ErrBlobNotFound, "replaced evidence is removed")

	blob, err := e.svc.Evidence(ctx, e.compras, order.ID, itemID)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), blob.Data)
}

func TestResolveItemsDriveOrderState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.readyToSend(t)
	orderID := detail.Order.ID

	_, err := e.svc.ResolveItem(ctx, e.admin, orderID, detail.Items[0].ID, domain.ResolveItemRequest{Approve: true})
	require.ErrorIs(t, err, domain.ErrInvalidState, "draft orders cannot be resolved")

	_, err = e.svc.Send(ctx, e.compras, orderID)
	require.NoError(t, err)

	_, err = e.svc.ResolveItem(ctx, e.compras, orderID, detail.Items[0].ID, domain.ResolveItemRequest{Approve: true})
	require.ErrorIs(t, err, domain.ErrPermissionDenied, "only admins resolve items")

	_, err = e.svc.ResolveItem(ctx, e.admin, orderID, detail.Items[0].ID, domain.ResolveItemRequest{Approve: false})
	require.ErrorIs(t, err, domain.ErrReasonRequired)

	mid, err := e.svc.ResolveItem(ctx, e.admin, orderID, detail.Items[0].ID, domain.ResolveItemRequest{Approve: true})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPartiallyApproved, mid.Order.Status)
	require.True(t, mid.Order.ProgressPct.Equal(dec("50")))
	require.Nil(t, mid.Order.ResolvedAt)

	_, err = e.svc.ResolveItem(ctx, e.admin, orderID, detail.Items[0].ID, domain.ResolveItemRequest{Approve: true})
	require.ErrorIs(t, err, domain.ErrItemResolved)

	final, err := e.svc.ResolveItem(ctx, e.admin, orderID, detail.Items[1].ID, domain.ResolveItemRequest{Approve: true})
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, final.Order.Status)
	require.True(t, final.Order.ProgressPct.Equal(dec("100")))
	require.NotNil(t, final.Order.ResolvedAt)

	resolved := final.Items[0]
	require.Equal(t, domain.ItemApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	require.Equal(t, e.admin.ID, *resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestMixedResolutionStaysPartial(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.readyToSend(t)
	orderID := detail.Order.ID

	_, err := e.svc.Send(ctx, e.compras, orderID)
	require.NoError(t, err)

	_, err = e.svc.ResolveItem(ctx, e.admin, orderID, detail.Items[0].ID, domain.ResolveItemRequest{Approve: true})
	require.NoError(t, err)
	final, err := e.svc.ResolveItem(ctx, e.admin, orderID, detail.Items[1].ID, domain.ResolveItemRequest{
		Approve: false, Reason: "precio fuera de presupuesto",
	})
	require.NoError(t, err)

	require.Equal(t, domain.StatusPartiallyApproved, final.Order.Status)
	require.True(t, final.Order.ProgressPct.Equal(dec("100")))
	require.NotNil(t, final.Order.ResolvedAt, "fully resolved even when mixed")
	require.Equal(t, "precio fuera de presupuesto", final.Items[1].Reason)
}

func TestAllRejectedRejectsOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	detail := e.readyToSend(t)
	orderID := detail.Order.ID

	_, err := e.svc.Send(ctx, e.compras, orderID)
	require.NoError(t, err)

	for _, item := range detail.Items {
		_, err = e.svc.ResolveItem(ctx, e.admin, orderID, item.ID, domain.ResolveItemRequest{
			Approve: false, Reason: "proveedor descartado",
		})
		require.NoError(t, err)
	}

	final, err := e.svc.Get(ctx, e.admin, orderID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, final.Order.Status)
}

func TestOwnershipAndDeleteGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order := e.newDraft(t)

	_, err := e.svc.AddItem(ctx, e.other, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 1})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	require.ErrorIs(t, e.svc.Delete(ctx, e.compras, order.ID), domain.ErrPermissionDenied)

	detail, err := e.svc.AddItem(ctx, e.compras, order.ID, domain.AddItemInput{ProductID: e.pump.ID, Quantity: 1})
	require.NoError(t, err)
	item, err := e.svc.AttachEvidence(ctx, e.compras, order.ID, detail.Items[0].ID, "e.pdf", "application/pdf", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, e.admin, order.ID))
	_, err = e.svc.Get(ctx, e.admin, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.blobs.Get(ctx, *item.EvidenceBlobID)
	require.ErrorIs(t, err, storagedomain.ErrBlobNotFound)
}

func TestListVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mine := e.newDraft(t)
	_, err := e.svc.CreateDraft(ctx, e.other, domain.CreateDraftRequest{SupplierName: "Otra"})
	require.NoError(t, err)

	orders, _, err := e.svc.List(ctx, e.compras, domain.StatusDraft, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, mine.ID, orders[0].ID)

	all, _, err := e.svc.List(ctx, e.admin, "", pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
