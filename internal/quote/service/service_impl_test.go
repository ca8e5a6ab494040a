package service

import (
	"context"
	"errors"
	"strings"
	"sync"
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
	"github.com/smallbiznis/cotiza/internal/config"
	"github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	"github.com/smallbiznis/cotiza/internal/quote/repository"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	storageservice "github.com/smallbiznis/cotiza/internal/storage/service"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
	templateservice "github.com/smallbiznis/cotiza/internal/template/service"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (r *fakeRenderer) RenderQuoteDocument(_ context.Context, req domain.RenderRequest) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errors.New("render engine unavailable")
	}
	r.calls++
	return []byte("%PDF-1.7 " + req.Template.Slug), nil
}

func (r *fakeRenderer) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

type fakeEmail struct {
	mu          sync.Mutex
	recipients  []string
	attachments int
	fail        bool
}

func (e *fakeEmail) SendQuoteDocuments(_ context.Context, to string, _ domain.Quote, attachments []domain.Attachment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return errors.New("smtp unavailable")
	}
	e.recipients = append(e.recipients, to)
	e.attachments += len(attachments)
	return nil
}

type env struct {
	db        *gorm.DB
	svc       domain.Service
	catalog   catalogdomain.Service
	templates templatedomain.Service
	blobs     storagedomain.Store
	clock     *clock.FakeClock
	renderer  *fakeRenderer
	email     *fakeEmail

	admin  domain.Actor
	ventas domain.Actor
	other  domain.Actor

	pump     *catalogdomain.Product
	valve    *catalogdomain.Product
	retired  *catalogdomain.Product
	cleaning *catalogdomain.ServiceItem
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
		&templatedomain.Template{},
		&domain.Quote{},
		&domain.QuoteItem{},
		&domain.QuoteDocument{},
		&auditdomain.Event{},
	))

	log := zap.NewNop()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC))

	blobs := storageservice.New(log, db, node, fc)
	catalog := catalogservice.New(catalogservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  catalogrepository.Provide(),
		Clock: fc,
	})
	templates := templateservice.New(templateservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Blobs: blobs,
		Clock: fc,
	})
	audit := auditservice.New(log, db, node, fc)

	branding, err := config.NewStaticBrandingConfigHolder(config.BrandingConfig{
		DefaultTaxPct: 16,
		Profiles: []config.BrandingProfile{
			{Slot: 1, Name: "Casa Matriz"},
			{Slot: 2, Name: "Comercializadora Norte"},
		},
	})
	require.NoError(t, err)

	renderer := &fakeRenderer{}
	email := &fakeEmail{}
	svc := New(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      repository.Provide(),
		Catalog:   catalog,
		Templates: templates,
		Blobs:     blobs,
		Renderer:  renderer,
		Email:     email,
		Audit:     audit,
		Branding:  branding,
		Clock:     fc,
	})

	e := &env{
		db:        db,
		svc:       svc,
		catalog:   catalog,
		templates: templates,
		blobs:     blobs,
		clock:     fc,
		renderer:  renderer,
		email:     email,
		admin:     domain.Actor{ID: node.Generate(), Role: authdomain.RoleAdmin},
		ventas:    domain.Actor{ID: node.Generate(), Role: authdomain.RoleVentas},
		other:     domain.Actor{ID: node.Generate(), Role: authdomain.RoleVentas},
	}

	ctx := context.Background()
	for slot, name := range map[int]string{1: "Casa Matriz", 2: "Comercializadora Norte"} {
		_, err := templates.Create(ctx, templatedomain.CreateRequest{Slot: slot, Name: name})
		require.NoError(t, err)
	}

	inactive := false
	e.pump, err = catalog.CreateProduct(ctx, catalogdomain.CreateProductRequest{
		SKU: "BOM-001", Name: "Bomba centrifuga", Cost: dec("100"),
	})
	require.NoError(t, err)
	e.valve, err = catalog.CreateProduct(ctx, catalogdomain.CreateProductRequest{
		SKU: "VAL-014", Name: "Valvula de bola", Cost: dec("50"),
	})
	require.NoError(t, err)
	e.retired, err = catalog.CreateProduct(ctx, catalogdomain.CreateProductRequest{
		SKU: "OBS-900", Name: "Modelo descontinuado", Cost: dec("75"), Active: &inactive,
	})
	require.NoError(t, err)
	e.cleaning, err = catalog.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Code: "SRV-001", Name: "Limpieza industrial", Cost: dec("300"),
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

// marginSlots builds a per-item margin array; "" leaves the slot unset.
func marginSlots(vals ...string) *pricing.DecimalSlots {
	out := make(pricing.DecimalSlots, len(vals))
	for i, v := range vals {
		if v == "" {
			continue
		}
		d := dec(v)
		out[i] = &d
	}
	return &out
}

func (e *env) newDraft(t *testing.T, actor domain.Actor) *domain.Quote {
	t.Helper()
	quote, err := e.svc.CreateDraft(context.Background(), actor, domain.CreateDraftRequest{
		Kind:          catalogdomain.KindProduct,
		CustomerName:  "Constructora Rivera",
		CustomerEmail: "compras@rivera.example",
	})
	require.NoError(t, err)
	return quote
}

func TestCreateDraftDefaults(t *testing.T) {
	e := newEnv(t)

	quote := e.newDraft(t, e.ventas)
	require.Equal(t, domain.StatusDraft, quote.Status)
	require.Equal(t, domain.DocsNone, quote.DocsStatus)
	require.Equal(t, 2, quote.Slots())
	require.True(t, quote.TaxPct.Equal(dec("16")))
	require.Nil(t, quote.Folio)
	require.Equal(t, e.ventas.ID, quote.OwnerID)
	require.Len(t, quote.Totals, 2)
	for _, slot := range quote.Totals {
		require.True(t, slot.Total.IsZero())
	}
}

func TestCreateDraftTaxOverride(t *testing.T) {
	e := newEnv(t)

	quote, err := e.svc.CreateDraft(context.Background(), e.ventas, domain.CreateDraftRequest{
		Kind:   catalogdomain.KindService,
		TaxPct: decPtr("8"),
	})
	require.NoError(t, err)
	require.True(t, quote.TaxPct.Equal(dec("8")))

	_, err = e.svc.CreateDraft(context.Background(), e.ventas, domain.CreateDraftRequest{
		Kind:   catalogdomain.KindProduct,
		TaxPct: decPtr("-1"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidTaxPct)
}

func TestCreateDraftWithoutActiveTemplates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	all, err := e.templates.List(ctx)
	require.NoError(t, err)
	off := false
	for _, tpl := range all {
		_, err := e.templates.Update(ctx, tpl.ID, templatedomain.UpdateRequest{Active: &off})
		require.NoError(t, err)
	}

	_, err = e.svc.CreateDraft(ctx, e.ventas, domain.CreateDraftRequest{Kind: catalogdomain.KindProduct})
	require.ErrorIs(t, err, domain.ErrNoActiveSlots)
}

func TestAddItemsWorkedScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	detail, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 2, Margins: marginSlots("20", "")},
	})
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)

	item := detail.Items[0]
	require.True(t, item.UnitCost.Equal(dec("100")))
	require.True(t, item.Prices.At(1).Equal(dec("120")))
	require.Nil(t, item.Prices.At(2))
	require.True(t, item.Subtotals.At(1).Equal(dec("240")))
	require.True(t, item.Subtotals.At(2).Equal(dec("200")), "null margin books cost basis on the line")

	detail, err = e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.valve.ID, Quantity: 1, Margins: marginSlots("10")},
	})
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)

	totals := detail.Quote.Totals
	require.True(t, totals[0].Subtotal.Equal(dec("295")))
	require.True(t, totals[0].Tax.Equal(dec("47.20")))
	require.True(t, totals[0].Total.Equal(dec("342.20")))
	require.True(t, totals[0].Margin.Equal(dec("45")))
	require.True(t, totals[1].Total.IsZero(), "slot without priced lines stays zero")
}

func TestAddItemsKindMismatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{Kind: catalogdomain.KindService, SubjectID: e.cleaning.ID, Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrKindMismatch)

	detail, err := e.svc.Get(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Empty(t, detail.Items)
}

func TestAddItemsAllOrNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1},
		{SubjectID: 999999, Quantity: 1},
	})
	require.ErrorIs(t, err, catalogdomain.ErrNotFound)

	detail, err := e.svc.Get(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Empty(t, detail.Items, "a failed input must roll back the whole batch")
}

func TestAddItemsInactiveSubject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.retired.ID, Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrInactiveSubject)
}

func TestAddItemsValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 0},
	})
	require.ErrorIs(t, err, pricing.ErrInvalidQuantity)

	_, err = e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1, Cost: decPtr("10.123")},
	})
	require.ErrorIs(t, err, pricing.ErrInvalidCost)

	_, err = e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1, Margins: marginSlots("-5")},
	})
	require.ErrorIs(t, err, pricing.ErrInvalidMargin)

	_, err = e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1, Margins: marginSlots("10", "10", "10")},
	})
	require.ErrorIs(t, err, pricing.ErrSlotMismatch)
}

func TestItemCostSnapshotSurvivesCatalogEdits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	detail, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1, Margins: marginSlots("20")},
	})
	require.NoError(t, err)

	_, err = e.catalog.UpdateProduct(ctx, e.pump.ID, catalogdomain.UpdateProductRequest{Cost: decPtr("999")})
	require.NoError(t, err)

	detail, err = e.svc.Get(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.True(t, detail.Items[0].UnitCost.Equal(dec("100")))
	require.True(t, detail.Items[0].Prices.At(1).Equal(dec("120")))
}

func TestUpdateItemRecomputes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	detail, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 2, Margins: marginSlots("20", "")},
	})
	require.NoError(t, err)
	itemID := detail.Items[0].ID

	qty := 3
	detail, err = e.svc.UpdateItem(ctx, e.ventas, quote.ID, itemID, domain.ItemEdit{
		Quantity: &qty,
		Margins:  marginSlots("10", "30"),
	})
	require.NoError(t, err)

	item := detail.Items[0]
	require.True(t, item.Prices.At(1).Equal(dec("110")))
	require.True(t, item.Subtotals.At(1).Equal(dec("330")))
	require.True(t, item.Prices.At(2).Equal(dec("130")))
	require.True(t, item.Subtotals.At(2).Equal(dec("390")))

	totals := detail.Quote.Totals
	require.True(t, totals[0].Subtotal.Equal(dec("330")))
	require.True(t, totals[1].Subtotal.Equal(dec("390")))

	badQty := 0
	_, err = e.svc.UpdateItem(ctx, e.ventas, quote.ID, itemID, domain.ItemEdit{Quantity: &badQty})
	require.ErrorIs(t, err, pricing.ErrInvalidQuantity)
}

func TestApplyBatchPartialSuccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	detail, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 2, Margins: marginSlots("20", "")},
		{SubjectID: e.valve.ID, Quantity: 1, Margins: marginSlots("10", "")},
	})
	require.NoError(t, err)

	unknown := snowflake.ID(424242)
	qty := 4
	result, err := e.svc.ApplyBatch(ctx, e.ventas, quote.ID, domain.BatchRequest{
		TaxPct: decPtr("8"),
		Items: []domain.BatchItemEdit{
			{ItemID: detail.Items[0].ID, Quantity: &qty},
			{ItemID: unknown, Cost: decPtr("1")},
		},
	})
	require.NoError(t, err, "unknown item ids are skipped, not fatal")
	require.Equal(t, 1, result.Updated)
	require.Equal(t, []snowflake.ID{unknown}, result.Skipped)

	require.True(t, result.Quote.Quote.TaxPct.Equal(dec("8")))
	totals := result.Quote.Quote.Totals
	// Slot 1: 120*4 + 55 = 535, tax 8% = 42.80.
	require.True(t, totals[0].Subtotal.Equal(dec("535")))
	require.True(t, totals[0].Tax.Equal(dec("42.80")))
	require.True(t, totals[0].Total.Equal(dec("577.80")))
}

func TestRemoveItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	detail, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 2, Margins: marginSlots("20")},
		{SubjectID: e.valve.ID, Quantity: 1, Margins: marginSlots("10")},
	})
	require.NoError(t, err)

	detail, err = e.svc.RemoveItem(ctx, e.ventas, quote.ID, detail.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	require.True(t, detail.Quote.Totals[0].Subtotal.Equal(dec("55")))

	_, err = e.svc.RemoveItem(ctx, e.ventas, quote.ID, snowflake.ID(31337))
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestSendLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 2, Margins: marginSlots("20", "15")},
	})
	require.NoError(t, err)

	detail, err := e.svc.Send(ctx, e.ventas, quote.ID)
	require.NoError(t, err)

	sent := detail.Quote
	require.Equal(t, domain.StatusSent, sent.Status)
	require.NotNil(t, sent.Folio)
	require.True(t, strings.HasPrefix(*sent.Folio, "COT-"))
	require.NotNil(t, sent.SentAt)
	require.Equal(t, domain.DocsReady, sent.DocsStatus)

	docs, err := e.svc.Documents(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2, "one branded document per active template")
	for _, doc := range docs {
		blob, err := e.blobs.Get(ctx, doc.BlobID)
		require.NoError(t, err)
		require.Equal(t, "application/pdf", blob.ContentType)
	}

	require.Equal(t, []string{"compras@rivera.example"}, e.email.recipients)
	require.Equal(t, 2, e.email.attachments)

	// A sent quote rejects edits and a second send.
	_, err = e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.valve.ID, Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = e.svc.Send(ctx, e.ventas, quote.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSendEmptyDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	detail, err := e.svc.Send(ctx, e.ventas, quote.ID)
	require.NoError(t, err, "sending an empty draft is permitted")
	for _, slot := range detail.Quote.Totals {
		require.True(t, slot.Subtotal.IsZero())
		require.True(t, slot.Total.IsZero())
	}
}

func TestSendSurvivesRenderFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1, Margins: marginSlots("20")},
	})
	require.NoError(t, err)

	e.renderer.setFail(true)
	detail, err := e.svc.Send(ctx, e.ventas, quote.ID)
	require.NoError(t, err, "the state transition is durable even when rendering fails")
	require.Equal(t, domain.StatusSent, detail.Quote.Status)
	require.Equal(t, domain.DocsFailed, detail.Quote.DocsStatus)
	require.NotEmpty(t, detail.Quote.DocsError)

	e.renderer.setFail(false)
	detail, err = e.svc.RetryDocuments(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DocsReady, detail.Quote.DocsStatus)
	require.Empty(t, detail.Quote.DocsError)

	docs, err := e.svc.Documents(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	_, err = e.svc.RetryDocuments(ctx, e.ventas, quote.ID)
	require.ErrorIs(t, err, domain.ErrDocsNotFailed)
}

func TestReopen(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.ventas, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1, Margins: marginSlots("20")},
	})
	require.NoError(t, err)

	// Reopening a draft is a no-op.
	detail, err := e.svc.Reopen(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, detail.Quote.Status)

	sent, err := e.svc.Send(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	docs, err := e.svc.Documents(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	_, err = e.svc.Reopen(ctx, e.other, quote.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	detail, err = e.svc.Reopen(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, detail.Quote.Status)
	require.Nil(t, detail.Quote.SentAt)
	require.Equal(t, domain.DocsNone, detail.Quote.DocsStatus)
	require.Equal(t, sent.Quote.Folio, detail.Quote.Folio, "the folio sticks across reopen")

	docs, err = e.svc.Documents(ctx, e.ventas, quote.ID)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestResolve(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.Resolve(ctx, e.ventas, quote.ID, domain.StatusApproved)
	require.ErrorIs(t, err, domain.ErrInvalidState, "only sent quotes resolve")

	_, err = e.svc.Send(ctx, e.ventas, quote.ID)
	require.NoError(t, err)

	_, err = e.svc.Resolve(ctx, e.ventas, quote.ID, domain.StatusDraft)
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	detail, err := e.svc.Resolve(ctx, e.ventas, quote.ID, domain.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, detail.Quote.Status)

	_, err = e.svc.Reopen(ctx, e.ventas, quote.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState, "resolved quotes stay resolved")
}

func TestDeleteIsAdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	require.ErrorIs(t, e.svc.Delete(ctx, e.ventas, quote.ID), domain.ErrPermissionDenied)

	require.NoError(t, e.svc.Delete(ctx, e.admin, quote.ID))
	_, err := e.svc.Get(ctx, e.admin, quote.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOwnershipGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	quote := e.newDraft(t, e.ventas)

	_, err := e.svc.AddItems(ctx, e.other, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = e.svc.AddItems(ctx, e.admin, quote.ID, []domain.AddItemInput{
		{SubjectID: e.pump.ID, Quantity: 1},
	})
	require.NoError(t, err, "admins may edit any quote")
}

func TestListVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mine := e.newDraft(t, e.ventas)
	theirs := e.newDraft(t, e.other)
	_, err := e.svc.Send(ctx, e.other, theirs.ID)
	require.NoError(t, err)

	drafts, _, err := e.svc.ListDrafts(ctx, e.ventas, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	require.Equal(t, mine.ID, drafts[0].ID)

	adminDrafts, _, err := e.svc.ListDrafts(ctx, e.admin, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, adminDrafts, 1, "the other draft was sent")

	sent, _, err := e.svc.ListSent(ctx, e.ventas, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Equal(t, theirs.ID, sent[0].ID)

	own, _, err := e.svc.ListMine(ctx, e.other, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, own, 1)
}
