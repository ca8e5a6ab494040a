package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	orderdomain "github.com/smallbiznis/cotiza/internal/order/domain"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	"github.com/smallbiznis/cotiza/internal/report/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	now  = time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	week = domain.Range{From: now.AddDate(0, 0, -7), To: now.Add(time.Hour)}
)

func newDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&authdomain.User{},
		&authdomain.LoginEvent{},
		&quotedomain.Quote{},
		&quotedomain.QuoteItem{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	))
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	return db, node
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedQuote(t *testing.T, db *gorm.DB, node *snowflake.Node, status quotedomain.Status, sentAt time.Time, totals pricing.SlotTotals) *quotedomain.Quote {
	t.Helper()
	quote := &quotedomain.Quote{
		ID:        node.Generate(),
		Kind:      catalogdomain.KindProduct,
		Status:    status,
		TaxPct:    dec("16"),
		SlotCount: len(totals),
		Totals:    totals,
		OwnerID:   node.Generate(),
		CreatedAt: sentAt,
		UpdatedAt: sentAt,
	}
	if status != quotedomain.StatusDraft {
		quote.SentAt = &sentAt
	}
	require.NoError(t, db.Create(quote).Error)
	return quote
}

func TestResolveRange(t *testing.T) {
	_, err := domain.ResolveRange("bogus", time.Time{}, time.Time{}, now)
	require.ErrorIs(t, err, domain.ErrInvalidRange)

	rng, err := domain.ResolveRange(domain.Preset7d, time.Time{}, time.Time{}, now)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, -7), rng.From)

	rng, err = domain.ResolveRange(domain.PresetMonth, time.Time{}, time.Time{}, now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), rng.From)

	_, err = domain.ResolveRange(domain.PresetCustom, now, now, now)
	require.ErrorIs(t, err, domain.ErrInvalidRange, "custom needs from before to")

	rng, err = domain.ResolveRange(domain.PresetCustom, now.AddDate(0, 0, -1), now, now)
	require.NoError(t, err)
	require.True(t, rng.From.Before(rng.To))
}

func TestQuoteOverview(t *testing.T) {
	db, node := newDB(t)
	svc := New(zap.NewNop(), db)

	totalsA := pricing.SlotTotals{
		{Slot: 1, Subtotal: dec("295"), Tax: dec("47.20"), Total: dec("342.20"), Margin: dec("45")},
		{Slot: 2, Subtotal: dec("0"), Tax: dec("0"), Total: dec("0"), Margin: dec("0")},
	}
	totalsB := pricing.SlotTotals{
		{Slot: 1, Subtotal: dec("100"), Tax: dec("16"), Total: dec("116"), Margin: dec("10")},
	}
	seedQuote(t, db, node, quotedomain.StatusSent, now.AddDate(0, 0, -1), totalsA)
	seedQuote(t, db, node, quotedomain.StatusApproved, now.AddDate(0, 0, -2), totalsB)
	seedQuote(t, db, node, quotedomain.StatusDraft, now.AddDate(0, 0, -1), pricing.SlotTotals{})
	// Outside the window.
	seedQuote(t, db, node, quotedomain.StatusSent, now.AddDate(0, 0, -30), totalsB)

	overview, err := svc.QuoteOverview(context.Background(), week)
	require.NoError(t, err)

	require.Equal(t, 1, overview.CountByStatus["sent"])
	require.Equal(t, 1, overview.CountByStatus["approved"])
	require.Equal(t, 1, overview.CountByStatus["draft"])
	require.Equal(t, 2, overview.SentCount)

	require.Len(t, overview.SentPerSlot, 2)
	require.True(t, overview.SentPerSlot[0].Subtotal.Equal(dec("395")))
	require.True(t, overview.SentPerSlot[0].Total.Equal(dec("458.20")))
	require.True(t, overview.SentPerSlot[0].Margin.Equal(dec("55")))
	require.True(t, overview.SentPerSlot[1].Total.IsZero())
}

func TestTopProducts(t *testing.T) {
	db, node := newDB(t)
	svc := New(zap.NewNop(), db)

	sent := seedQuote(t, db, node, quotedomain.StatusSent, now.AddDate(0, 0, -1), pricing.SlotTotals{})
	pumpID := node.Generate()
	valveID := node.Generate()
	items := []quotedomain.QuoteItem{
		{ID: node.Generate(), QuoteID: sent.ID, Kind: catalogdomain.KindProduct, SubjectID: pumpID, Name: "Bomba", UnitCost: dec("100"), Quantity: 5},
		{ID: node.Generate(), QuoteID: sent.ID, Kind: catalogdomain.KindProduct, SubjectID: valveID, Name: "Valvula", UnitCost: dec("50"), Quantity: 2},
	}
	require.NoError(t, db.Create(&items).Error)

	top, err := svc.TopProducts(context.Background(), week, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, pumpID, top[0].ProductID)
	require.Equal(t, 5, top[0].Units)
	require.Equal(t, 1, top[0].Quotes)
}

func TestOrderStats(t *testing.T) {
	db, node := newDB(t)
	svc := New(zap.NewNop(), db)

	order := &orderdomain.Order{
		ID: node.Generate(), Status: orderdomain.StatusPartiallyApproved,
		OwnerID: node.Generate(), CreatedAt: now.AddDate(0, 0, -3), UpdatedAt: now,
	}
	require.NoError(t, db.Create(order).Error)
	items := []orderdomain.OrderItem{
		{ID: node.Generate(), OrderID: order.ID, ProductID: node.Generate(), Name: "A", UnitCost: dec("10"), Quantity: 1, Subtotal: dec("10"), Status: orderdomain.ItemApproved},
		{ID: node.Generate(), OrderID: order.ID, ProductID: node.Generate(), Name: "B", UnitCost: dec("20"), Quantity: 1, Subtotal: dec("20"), Status: orderdomain.ItemRejected},
		{ID: node.Generate(), OrderID: order.ID, ProductID: node.Generate(), Name: "C", UnitCost: dec("30"), Quantity: 1, Subtotal: dec("30"), Status: orderdomain.ItemPending},
	}
	require.NoError(t, db.Create(&items).Error)

	stats, err := svc.OrderStats(context.Background(), week)
	require.NoError(t, err)
	require.Equal(t, 1, stats.CountByStatus["partially_approved"])
	require.Equal(t, 1, stats.ItemsApproved)
	require.Equal(t, 1, stats.ItemsRejected)
	require.Equal(t, 1, stats.ItemsPending)
}

func TestLoginActivity(t *testing.T) {
	db, node := newDB(t)
	svc := New(zap.NewNop(), db)

	userID := node.Generate()
	events := []authdomain.LoginEvent{
		{ID: node.Generate(), UserID: &userID, Email: "a@b.c", Success: true, CreatedAt: now.AddDate(0, 0, -1)},
		{ID: node.Generate(), UserID: &userID, Email: "a@b.c", Success: true, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: node.Generate(), Email: "ghost@b.c", Success: false, CreatedAt: now.AddDate(0, 0, -1)},
	}
	require.NoError(t, db.Create(&events).Error)

	activity, err := svc.LoginActivity(context.Background(), week)
	require.NoError(t, err)
	require.Equal(t, 3, activity.Attempts)
	require.Equal(t, 2, activity.Successes)
	require.Equal(t, 1, activity.Failures)
	require.Equal(t, 1, activity.DistinctUsers)
}
