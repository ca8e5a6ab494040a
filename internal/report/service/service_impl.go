package service

import (
	"context"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	orderdomain "github.com/smallbiznis/cotiza/internal/order/domain"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	"github.com/smallbiznis/cotiza/internal/report/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTopLimit = 10

type Service struct {
	log *zap.Logger
	db  *gorm.DB
}

func New(log *zap.Logger, db *gorm.DB) domain.Service {
	return &Service{log: log.Named("report.service"), db: db}
}

type statusCount struct {
	Status string
	Count  int
}

func (s *Service) QuoteOverview(ctx context.Context, rng domain.Range) (*domain.QuoteOverview, error) {
	overview := &domain.QuoteOverview{
		Range:         rng,
		CountByStatus: map[string]int{},
	}

	var counts []statusCount
	err := s.db.WithContext(ctx).
		Model(&quotedomain.Quote{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", rng.From, rng.To).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		overview.CountByStatus[c.Status] = c.Count
	}

	// Slot totals live in a JSON column, so the per-slot revenue is folded
	// in process rather than in SQL.
	var sent []quotedomain.Quote
	err = s.db.WithContext(ctx).
		Where("status <> ? AND sent_at >= ? AND sent_at < ?", quotedomain.StatusDraft, rng.From, rng.To).
		Find(&sent).Error
	if err != nil {
		return nil, err
	}

	overview.SentCount = len(sent)
	slots := 0
	for _, quote := range sent {
		if quote.Slots() > slots {
			slots = quote.Slots()
		}
	}
	perSlot := make([]domain.SlotRevenue, slots)
	for k := range perSlot {
		perSlot[k] = domain.SlotRevenue{
			Slot:     k + 1,
			Subtotal: decimal.Zero,
			Tax:      decimal.Zero,
			Total:    decimal.Zero,
			Margin:   decimal.Zero,
		}
	}
	for _, quote := range sent {
		for _, total := range quote.Totals {
			if total.Slot < 1 || total.Slot > slots {
				continue
			}
			rev := &perSlot[total.Slot-1]
			rev.Subtotal = pricing.Round2(rev.Subtotal.Add(total.Subtotal))
			rev.Tax = pricing.Round2(rev.Tax.Add(total.Tax))
			rev.Total = pricing.Round2(rev.Total.Add(total.Total))
			rev.Margin = pricing.Round2(rev.Margin.Add(total.Margin))
		}
	}
	overview.SentPerSlot = perSlot
	return overview, nil
}

func (s *Service) TopProducts(ctx context.Context, rng domain.Range, limit int) ([]domain.TopProduct, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultTopLimit
	}

	var rows []domain.TopProduct
	err := s.db.WithContext(ctx).
		Table("quote_items AS qi").
		Select("qi.subject_id AS product_id, qi.name AS name, SUM(qi.quantity) AS units, COUNT(DISTINCT qi.quote_id) AS quotes").
		Joins("JOIN quotes q ON q.id = qi.quote_id").
		Where("qi.kind = ?", catalogdomain.KindProduct).
		Where("q.status <> ? AND q.sent_at >= ? AND q.sent_at < ?", quotedomain.StatusDraft, rng.From, rng.To).
		Group("qi.subject_id, qi.name").
		Order("units DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) OrderStats(ctx context.Context, rng domain.Range) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{
		Range:         rng,
		CountByStatus: map[string]int{},
	}

	var counts []statusCount
	err := s.db.WithContext(ctx).
		Model(&orderdomain.Order{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", rng.From, rng.To).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.CountByStatus[c.Status] = c.Count
	}

	var itemCounts []statusCount
	err = s.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.status AS status, COUNT(*) AS count").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at >= ? AND o.created_at < ?", rng.From, rng.To).
		Group("oi.status").
		Scan(&itemCounts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range itemCounts {
		switch orderdomain.ItemStatus(c.Status) {
		case orderdomain.ItemApproved:
			stats.ItemsApproved = c.Count
		case orderdomain.ItemRejected:
			stats.ItemsRejected = c.Count
		case orderdomain.ItemPending:
			stats.ItemsPending = c.Count
		}
	}
	return stats, nil
}

func (s *Service) LoginActivity(ctx context.Context, rng domain.Range) (*domain.LoginActivity, error) {
	activity := &domain.LoginActivity{Range: rng}

	type loginRow struct {
		Attempts      int
		Successes     int
		DistinctUsers int
	}
	var row loginRow
	err := s.db.WithContext(ctx).
		Table("login_events").
		Select("COUNT(*) AS attempts, SUM(CASE WHEN success THEN 1 ELSE 0 END) AS successes, COUNT(DISTINCT user_id) AS distinct_users").
		Where("created_at >= ? AND created_at < ?", rng.From, rng.To).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	activity.Attempts = row.Attempts
	activity.Successes = row.Successes
	activity.Failures = row.Attempts - row.Successes
	activity.DistinctUsers = row.DistinctUsers
	return activity, nil
}
