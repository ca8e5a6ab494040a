package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/cotiza/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/observability/metrics"
	"github.com/smallbiznis/cotiza/internal/order/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Catalog catalogdomain.Service
	Blobs   storagedomain.Store
	Metrics *metrics.Metrics `optional:"true"`
	Audit   auditdomain.Service
	Clock   clock.Clock
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	catalog catalogdomain.Service
	blobs   storagedomain.Store
	metrics *metrics.Metrics
	audit   auditdomain.Service
	clock   clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("order.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		catalog: p.Catalog,
		blobs:   p.Blobs,
		metrics: p.Metrics,
		audit:   p.Audit,
		clock:   p.Clock,
	}
}

func (s *Service) CreateDraft(ctx context.Context, actor domain.Actor, req domain.CreateDraftRequest) (*domain.Order, error) {
	now := s.clock.Now()
	order := &domain.Order{
		ID:           s.genID.Generate(),
		Status:       domain.StatusDraft,
		SupplierName: strings.TrimSpace(req.SupplierName),
		Notes:        strings.TrimSpace(req.Notes),
		OwnerID:      actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, order); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, "order.created", "order", order.ID.String(), nil)
	return order, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id snowflake.ID) (*domain.OrderDetail, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &domain.OrderDetail{Order: *order, Items: items}, nil
}

func (s *Service) List(ctx context.Context, actor domain.Actor, status domain.Status, page pagination.Pagination) ([]domain.Order, *pagination.PageInfo, error) {
	filter := domain.ListFilter{Status: status, Page: page}
	if !actor.IsAdmin() {
		filter.OwnerID = &actor.ID
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) ListMine(ctx context.Context, actor domain.Actor, page pagination.Pagination) ([]domain.Order, *pagination.PageInfo, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{OwnerID: &actor.ID, Page: page})
}

func (s *Service) AddItem(ctx context.Context, actor domain.Actor, orderID snowflake.ID, input domain.AddItemInput) (*domain.OrderDetail, error) {
	var detail *domain.OrderDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockDraft(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if input.Quantity < 1 {
			return pricing.ErrInvalidQuantity
		}

		product, err := s.catalog.Resolve(ctx, catalogdomain.KindProduct, input.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return domain.ErrInactiveProduct
		}

		cost := product.Cost
		if input.Cost != nil {
			cost = *input.Cost
		}
		if !pricing.ValidCost(cost) {
			return pricing.ErrInvalidCost
		}
		cost = pricing.Round2(cost)

		now := s.clock.Now()
		existing, err := s.repo.FindItemByProduct(ctx, tx, orderID, input.ProductID)
		switch {
		case err == nil:
			// Same product twice merges into one line.
			qty := existing.Quantity + input.Quantity
			if err := s.repo.UpdateItemFields(ctx, tx, orderID, existing.ID, map[string]any{
				"quantity":   qty,
				"unit_cost":  cost,
				"subtotal":   lineSubtotal(cost, qty),
				"updated_at": now,
			}); err != nil {
				return err
			}
		case err == domain.ErrItemNotFound:
			item := &domain.OrderItem{
				ID:        s.genID.Generate(),
				OrderID:   orderID,
				ProductID: product.ID,
				Name:      product.Name,
				UnitCost:  cost,
				Quantity:  input.Quantity,
				Subtotal:  lineSubtotal(cost, input.Quantity),
				Status:    domain.ItemPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.CreateItem(ctx, tx, item); err != nil {
				return err
			}
		default:
			return err
		}

		detail, err = s.recompute(ctx, tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) UpdateItem(ctx context.Context, actor domain.Actor, orderID, itemID snowflake.ID, edit domain.ItemEdit) (*domain.OrderDetail, error) {
	var detail *domain.OrderDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockDraft(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		item, err := s.repo.FindItem(ctx, tx, orderID, itemID)
		if err != nil {
			return err
		}

		qty := item.Quantity
		if edit.Quantity != nil {
			qty = *edit.Quantity
		}
		if qty < 1 {
			return pricing.ErrInvalidQuantity
		}
		cost := item.UnitCost
		if edit.Cost != nil {
			cost = *edit.Cost
		}
		if !pricing.ValidCost(cost) {
			return pricing.ErrInvalidCost
		}
		cost = pricing.Round2(cost)

		if err := s.repo.UpdateItemFields(ctx, tx, orderID, itemID, map[string]any{
			"quantity":   qty,
			"unit_cost":  cost,
			"subtotal":   lineSubtotal(cost, qty),
			"updated_at": s.clock.Now(),
		}); err != nil {
			return err
		}
		detail, err = s.recompute(ctx, tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor domain.Actor, orderID, itemID snowflake.ID) (*domain.OrderDetail, error) {
	var detail *domain.OrderDetail
	var evidence *snowflake.ID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockDraft(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		item, err := s.repo.FindItem(ctx, tx, orderID, itemID)
		if err != nil {
			return err
		}
		evidence = item.EvidenceBlobID
		if err := s.repo.DeleteItem(ctx, tx, orderID, itemID); err != nil {
			return err
		}
		detail, err = s.recompute(ctx, tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	if evidence != nil {
		if err := s.blobs.Delete(ctx, *evidence); err != nil {
			s.log.Warn("delete orphaned evidence blob", zap.Error(err))
		}
	}
	return detail, nil
}

func (s *Service) AttachEvidence(ctx context.Context, actor domain.Actor, orderID, itemID snowflake.ID, filename, contentType string, data []byte) (*domain.OrderItem, error) {
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, order) {
		return nil, domain.ErrPermissionDenied
	}
	if order.Status != domain.StatusDraft {
		return nil, domain.ErrInvalidState
	}
	item, err := s.repo.FindItem(ctx, s.db, orderID, itemID)
	if err != nil {
		return nil, err
	}

	blob, err := s.blobs.Put(ctx, filename, contentType, data)
	if err != nil {
		return nil, err
	}
	previous := item.EvidenceBlobID
	if err := s.repo.UpdateItemFields(ctx, s.db, orderID, itemID, map[string]any{
		"evidence_blob_id": blob.ID,
		"updated_at":       s.clock.Now(),
	}); err != nil {
		return nil, err
	}
	if previous != nil {
		if err := s.blobs.Delete(ctx, *previous); err != nil {
			s.log.Warn("delete replaced evidence blob", zap.Error(err))
		}
	}

	item.EvidenceBlobID = &blob.ID
	return item, nil
}

func (s *Service) Evidence(ctx context.Context, actor domain.Actor, orderID, itemID snowflake.ID) (*storagedomain.Blob, error) {
	item, err := s.repo.FindItem(ctx, s.db, orderID, itemID)
	if err != nil {
		return nil, err
	}
	if item.EvidenceBlobID == nil {
		return nil, storagedomain.ErrBlobNotFound
	}
	return s.blobs.Get(ctx, *item.EvidenceBlobID)
}

func (s *Service) Send(ctx context.Context, actor domain.Actor, id snowflake.ID) (*domain.OrderDetail, error) {
	var detail *domain.OrderDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockDraft(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		items, err := s.repo.ListItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrNoItems
		}
		for _, item := range items {
			if item.EvidenceBlobID == nil {
				return domain.ErrEvidenceRequired
			}
		}

		now := s.clock.Now()
		fields := map[string]any{
			"status":     domain.StatusSent,
			"sent_at":    now,
			"updated_at": now,
		}
		if order.Folio == nil {
			folio := "OC-" + ulid.Make().String()
			order.Folio = &folio
			fields["folio"] = folio
		}
		if err := s.repo.UpdateFields(ctx, tx, id, fields); err != nil {
			return err
		}

		order.Status = domain.StatusSent
		order.SentAt = &now
		detail = &domain.OrderDetail{Order: *order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, "order.sent", "order", id.String(), map[string]any{
		"folio": derefString(detail.Order.Folio),
		"items": len(detail.Items),
	})
	return detail, nil
}

func (s *Service) ResolveItem(ctx context.Context, actor domain.Actor, orderID, itemID snowflake.ID, req domain.ResolveItemRequest) (*domain.OrderDetail, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}
	reason := strings.TrimSpace(req.Reason)
	if !req.Approve && reason == "" {
		return nil, domain.ErrReasonRequired
	}

	var detail *domain.OrderDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusSent && order.Status != domain.StatusPartiallyApproved {
			return domain.ErrInvalidState
		}
		item, err := s.repo.FindItem(ctx, tx, orderID, itemID)
		if err != nil {
			return err
		}
		if item.Status != domain.ItemPending {
			return domain.ErrItemResolved
		}

		status := domain.ItemApproved
		if !req.Approve {
			status = domain.ItemRejected
		}
		now := s.clock.Now()
		if err := s.repo.UpdateItemFields(ctx, tx, orderID, itemID, map[string]any{
			"status":      status,
			"reason":      reason,
			"resolved_by": actor.ID,
			"resolved_at": now,
			"updated_at":  now,
		}); err != nil {
			return err
		}

		detail, err = s.settle(ctx, tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	outcome := "rejected"
	if req.Approve {
		outcome = "approved"
	}
	s.metrics.RecordOrderResolution(ctx, outcome)
	s.audit.Record(ctx, &actor.ID, "order.item_resolved", "order", orderID.String(), map[string]any{
		"item_id": itemID.String(),
		"outcome": outcome,
	})
	return detail, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id snowflake.ID) error {
	if !actor.IsAdmin() {
		return domain.ErrPermissionDenied
	}

	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	for _, item := range items {
		if item.EvidenceBlobID == nil {
			continue
		}
		if err := s.blobs.Delete(ctx, *item.EvidenceBlobID); err != nil {
			s.log.Warn("delete evidence blob", zap.Error(err))
		}
	}

	s.audit.Record(ctx, &actor.ID, "order.deleted", "order", id.String(), nil)
	return nil
}

func (s *Service) lockDraft(ctx context.Context, tx *gorm.DB, actor domain.Actor, id snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, order) {
		return nil, domain.ErrPermissionDenied
	}
	if order.Status != domain.StatusDraft {
		return nil, domain.ErrInvalidState
	}
	return order, nil
}

// recompute rebuilds the order total from its lines.
func (s *Service) recompute(ctx context.Context, tx *gorm.DB, order *domain.Order) (*domain.OrderDetail, error) {
	items, err := s.repo.ListItems(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	now := s.clock.Now()
	order.Total = pricing.Round2(total)
	order.UpdatedAt = now
	if err := s.repo.UpdateFields(ctx, tx, order.ID, map[string]any{
		"total":      order.Total,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	return &domain.OrderDetail{Order: *order, Items: items}, nil
}

// settle recomputes progress and derives the order's lifecycle state after
// an item resolution. The order settles on approved or rejected only when
// every item landed on that side; a mixed outcome stays partially_approved
// with resolvedAt stamped once everything is resolved.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, order *domain.Order) (*domain.OrderDetail, error) {
	items, err := s.repo.ListItems(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}

	resolved, approved, rejected := 0, 0, 0
	for _, item := range items {
		switch item.Status {
		case domain.ItemApproved:
			resolved++
			approved++
		case domain.ItemRejected:
			resolved++
			rejected++
		}
	}

	progress := decimal.Zero
	if len(items) > 0 {
		progress = pricing.Round2(decimal.NewFromInt(int64(resolved * 100)).Div(decimal.NewFromInt(int64(len(items)))))
	}

	status := domain.StatusPartiallyApproved
	fields := map[string]any{
		"progress_pct": progress,
		"updated_at":   s.clock.Now(),
	}
	if resolved == len(items) {
		switch {
		case approved == len(items):
			status = domain.StatusApproved
		case rejected == len(items):
			status = domain.StatusRejected
		}
		now := s.clock.Now()
		order.ResolvedAt = &now
		fields["resolved_at"] = now
	}
	fields["status"] = status
	if err := s.repo.UpdateFields(ctx, tx, order.ID, fields); err != nil {
		return nil, err
	}

	order.Status = status
	order.ProgressPct = progress
	return &domain.OrderDetail{Order: *order, Items: items}, nil
}

func canMutate(actor domain.Actor, order *domain.Order) bool {
	return actor.IsAdmin() || order.OwnerID == actor.ID
}

func lineSubtotal(cost decimal.Decimal, qty int) decimal.Decimal {
	return pricing.Round2(cost.Mul(decimal.NewFromInt(int64(qty))))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
