package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/cotiza/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/config"
	"github.com/smallbiznis/cotiza/internal/observability/metrics"
	"github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	"github.com/smallbiznis/cotiza/internal/ratelimit"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Catalog   catalogdomain.Service
	Templates templatedomain.Service
	Blobs     storagedomain.Store
	Renderer  domain.DocumentRenderer
	Email     domain.EmailSender            `optional:"true"`
	Limiter   *ratelimit.QuoteSendLimiter   `optional:"true"`
	Metrics   *metrics.Metrics              `optional:"true"`
	Audit     auditdomain.Service
	Branding  *config.BrandingConfigHolder
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	catalog   catalogdomain.Service
	templates templatedomain.Service
	blobs     storagedomain.Store
	renderer  domain.DocumentRenderer
	email     domain.EmailSender
	limiter   *ratelimit.QuoteSendLimiter
	metrics   *metrics.Metrics
	audit     auditdomain.Service
	branding  *config.BrandingConfigHolder
	clock     clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("quote.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		catalog:   p.Catalog,
		templates: p.Templates,
		blobs:     p.Blobs,
		renderer:  p.Renderer,
		email:     p.Email,
		limiter:   p.Limiter,
		metrics:   p.Metrics,
		audit:     p.Audit,
		branding:  p.Branding,
		clock:     p.Clock,
	}
}

func (s *Service) CreateDraft(ctx context.Context, actor domain.Actor, req domain.CreateDraftRequest) (*domain.Quote, error) {
	kind, ok := catalogdomain.ParseKind(string(req.Kind))
	if !ok {
		return nil, catalogdomain.ErrInvalidKind
	}

	taxPct := decimal.NewFromFloat(s.branding.Get().DefaultTaxPct)
	if req.TaxPct != nil {
		taxPct = *req.TaxPct
	}
	if taxPct.IsNegative() {
		return nil, domain.ErrInvalidTaxPct
	}

	active, err := s.templates.Active(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, domain.ErrNoActiveSlots
	}
	slots := maxSlot(active)

	now := s.clock.Now()
	quote := &domain.Quote{
		ID:            s.genID.Generate(),
		Kind:          kind,
		Status:        domain.StatusDraft,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Notes:         strings.TrimSpace(req.Notes),
		TaxPct:        taxPct.Round(2),
		SlotCount:     slots,
		Totals:        pricing.ComputeTotals(nil, taxPct, slots),
		DocsStatus:    domain.DocsNone,
		OwnerID:       actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, s.db, quote); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, "quote.created", "quote", quote.ID.String(), map[string]any{
		"kind":  string(kind),
		"slots": slots,
	})
	return quote, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id snowflake.ID) (*domain.QuoteDetail, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &domain.QuoteDetail{Quote: *quote, Items: items}, nil
}

func (s *Service) ListDrafts(ctx context.Context, actor domain.Actor, page pagination.Pagination) ([]domain.Quote, *pagination.PageInfo, error) {
	filter := domain.ListFilter{Status: domain.StatusDraft, Page: page}
	if !actor.IsAdmin() {
		filter.OwnerID = &actor.ID
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) ListSent(ctx context.Context, actor domain.Actor, page pagination.Pagination) ([]domain.Quote, *pagination.PageInfo, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{Status: domain.StatusSent, Page: page})
}

func (s *Service) ListMine(ctx context.Context, actor domain.Actor, page pagination.Pagination) ([]domain.Quote, *pagination.PageInfo, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{OwnerID: &actor.ID, Page: page})
}

func (s *Service) AddItems(ctx context.Context, actor domain.Actor, quoteID snowflake.ID, inputs []domain.AddItemInput) (*domain.QuoteDetail, error) {
	var detail *domain.QuoteDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.lockDraft(ctx, tx, actor, quoteID)
		if err != nil {
			return err
		}

		position, err := s.repo.MaxItemPosition(ctx, tx, quoteID)
		if err != nil {
			return err
		}

		items := make([]domain.QuoteItem, 0, len(inputs))
		now := s.clock.Now()
		for _, input := range inputs {
			if input.Kind != "" && input.Kind != quote.Kind {
				return domain.ErrKindMismatch
			}
			subject, err := s.catalog.Resolve(ctx, quote.Kind, input.SubjectID)
			if err != nil {
				return err
			}
			if !subject.Active {
				return domain.ErrInactiveSubject
			}

			cost := subject.Cost
			if input.Cost != nil {
				cost = *input.Cost
			}
			margins, err := normalizeMargins(input.Margins, quote.Slots())
			if err != nil {
				return err
			}
			figures, err := pricing.ComputeItem(cost, input.Quantity, margins)
			if err != nil {
				return err
			}

			position++
			items = append(items, domain.QuoteItem{
				ID:          s.genID.Generate(),
				QuoteID:     quote.ID,
				Kind:        quote.Kind,
				SubjectID:   subject.ID,
				Name:        subject.Name,
				Description: subject.Description,
				Unit:        subject.Unit,
				UnitCost:    pricing.Round2(cost),
				Quantity:    input.Quantity,
				Position:    position,
				Margins:     margins,
				Prices:      figures.Prices,
				Subtotals:   figures.Subtotals,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}

		if err := s.repo.CreateItems(ctx, tx, items); err != nil {
			return err
		}
		detail, err = s.recompute(ctx, tx, quote)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, "quote.items_added", "quote", quoteID.String(), map[string]any{
		"count": len(inputs),
	})
	return detail, nil
}

func (s *Service) UpdateItem(ctx context.Context, actor domain.Actor, quoteID, itemID snowflake.ID, edit domain.ItemEdit) (*domain.QuoteDetail, error) {
	var detail *domain.QuoteDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.lockDraft(ctx, tx, actor, quoteID)
		if err != nil {
			return err
		}
		item, err := s.repo.FindItem(ctx, tx, quoteID, itemID)
		if err != nil {
			return err
		}

		if err := s.applyItemEdit(ctx, tx, quote, item, edit); err != nil {
			return err
		}
		detail, err = s.recompute(ctx, tx, quote)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor domain.Actor, quoteID, itemID snowflake.ID) (*domain.QuoteDetail, error) {
	var detail *domain.QuoteDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.lockDraft(ctx, tx, actor, quoteID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteItem(ctx, tx, quoteID, itemID); err != nil {
			return err
		}
		detail, err = s.recompute(ctx, tx, quote)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) ApplyBatch(ctx context.Context, actor domain.Actor, quoteID snowflake.ID, req domain.BatchRequest) (*domain.BatchResult, error) {
	result := &domain.BatchResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.lockDraft(ctx, tx, actor, quoteID)
		if err != nil {
			return err
		}

		if req.TaxPct != nil {
			if req.TaxPct.IsNegative() {
				return domain.ErrInvalidTaxPct
			}
			quote.TaxPct = req.TaxPct.Round(2)
			if err := s.repo.UpdateFields(ctx, tx, quote.ID, map[string]any{
				"tax_pct": quote.TaxPct,
			}); err != nil {
				return err
			}
		}

		items, err := s.repo.ListItems(ctx, tx, quoteID)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]*domain.QuoteItem, len(items))
		for i := range items {
			byID[items[i].ID] = &items[i]
		}

		for _, edit := range req.Items {
			item, ok := byID[edit.ItemID]
			if !ok {
				// Unknown ids are skipped, the rest of the batch commits.
				s.log.Warn("batch edit skipped unknown item",
					zap.String("quote_id", quoteID.String()),
					zap.String("item_id", edit.ItemID.String()),
				)
				result.Skipped = append(result.Skipped, edit.ItemID)
				continue
			}
			if err := s.applyItemEdit(ctx, tx, quote, item, domain.ItemEdit{
				Quantity: edit.Quantity,
				Cost:     edit.Cost,
				Margins:  edit.Margins,
			}); err != nil {
				return err
			}
			result.Updated++
		}

		result.Quote, err = s.recompute(ctx, tx, quote)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) Send(ctx context.Context, actor domain.Actor, id snowflake.ID) (*domain.QuoteDetail, error) {
	if s.limiter.Enabled() {
		allowed, err := s.limiter.AllowRender(ctx, actor.ID.String())
		if err != nil {
			s.log.Warn("render rate limiter unavailable", zap.Error(err))
		} else {
			s.metrics.RecordRateLimit(ctx, allowed)
			if !allowed {
				return nil, domain.ErrRateLimited
			}
		}

		token, ok, err := s.limiter.TryLockQuote(ctx, id.String())
		if err != nil {
			s.log.Warn("send lock unavailable", zap.Error(err))
		} else if !ok {
			return nil, domain.ErrSendInProgress
		} else {
			defer func() {
				if err := s.limiter.ReleaseQuote(context.WithoutCancel(ctx), id.String(), token); err != nil {
					s.log.Warn("release send lock", zap.Error(err))
				}
			}()
		}
	}

	var detail *domain.QuoteDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canMutate(actor, quote) {
			return domain.ErrPermissionDenied
		}
		if quote.Status != domain.StatusDraft {
			return domain.ErrInvalidState
		}

		items, err := s.repo.ListItems(ctx, tx, id)
		if err != nil {
			return err
		}
		totals := pricing.ComputeTotals(itemFacts(items), quote.TaxPct, quote.Slots())

		now := s.clock.Now()
		fields := map[string]any{
			"status":      domain.StatusSent,
			"totals":      totals,
			"sent_at":     now,
			"docs_status": domain.DocsPending,
			"docs_error":  "",
			"updated_at":  now,
		}
		if quote.Folio == nil {
			folio := newFolio()
			quote.Folio = &folio
			fields["folio"] = folio
		}
		if err := s.repo.UpdateFields(ctx, tx, id, fields); err != nil {
			return err
		}

		quote.Status = domain.StatusSent
		quote.Totals = totals
		quote.SentAt = &now
		quote.DocsStatus = domain.DocsPending
		quote.DocsError = ""
		detail = &domain.QuoteDetail{Quote: *quote, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordQuoteSent(ctx, string(detail.Quote.Kind))
	s.audit.Record(ctx, &actor.ID, "quote.sent", "quote", id.String(), map[string]any{
		"folio": derefString(detail.Quote.Folio),
	})

	// The send is durable at this point; rendering is a separate,
	// retriable step tracked by docs_status.
	s.renderDocuments(ctx, detail)
	return detail, nil
}

func (s *Service) RetryDocuments(ctx context.Context, actor domain.Actor, id snowflake.ID) (*domain.QuoteDetail, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, quote) {
		return nil, domain.ErrPermissionDenied
	}
	if quote.Status != domain.StatusSent && quote.Status != domain.StatusApproved && quote.Status != domain.StatusRejected {
		return nil, domain.ErrInvalidState
	}
	if quote.DocsStatus != domain.DocsFailed && quote.DocsStatus != domain.DocsPending {
		return nil, domain.ErrDocsNotFailed
	}

	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	detail := &domain.QuoteDetail{Quote: *quote, Items: items}
	s.renderDocuments(ctx, detail)
	return detail, nil
}

func (s *Service) Reopen(ctx context.Context, actor domain.Actor, id snowflake.ID) (*domain.QuoteDetail, error) {
	var detail *domain.QuoteDetail
	var removedBlobs []snowflake.ID
	reopened := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canMutate(actor, quote) {
			return domain.ErrPermissionDenied
		}
		if quote.Status == domain.StatusDraft {
			// Reopening a draft is a no-op.
			items, err := s.repo.ListItems(ctx, tx, id)
			if err != nil {
				return err
			}
			detail = &domain.QuoteDetail{Quote: *quote, Items: items}
			return nil
		}
		if quote.Status != domain.StatusSent {
			return domain.ErrInvalidState
		}

		docs, err := s.repo.DeleteDocuments(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			removedBlobs = append(removedBlobs, doc.BlobID)
		}

		now := s.clock.Now()
		if err := s.repo.UpdateFields(ctx, tx, id, map[string]any{
			"status":      domain.StatusDraft,
			"sent_at":     nil,
			"docs_status": domain.DocsNone,
			"docs_error":  "",
			"updated_at":  now,
		}); err != nil {
			return err
		}

		quote.Status = domain.StatusDraft
		quote.SentAt = nil
		quote.DocsStatus = domain.DocsNone
		quote.DocsError = ""
		items, err := s.repo.ListItems(ctx, tx, id)
		if err != nil {
			return err
		}
		detail = &domain.QuoteDetail{Quote: *quote, Items: items}
		reopened = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, blobID := range removedBlobs {
		if err := s.blobs.Delete(ctx, blobID); err != nil {
			s.log.Warn("delete stale document blob", zap.Error(err))
		}
	}
	if reopened {
		s.audit.Record(ctx, &actor.ID, "quote.reopened", "quote", id.String(), nil)
	}
	return detail, nil
}

func (s *Service) Resolve(ctx context.Context, actor domain.Actor, id snowflake.ID, status domain.Status) (*domain.QuoteDetail, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, domain.ErrInvalidStatus
	}

	var detail *domain.QuoteDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canMutate(actor, quote) {
			return domain.ErrPermissionDenied
		}
		if quote.Status != domain.StatusSent {
			return domain.ErrInvalidState
		}

		if err := s.repo.UpdateFields(ctx, tx, id, map[string]any{
			"status":     status,
			"updated_at": s.clock.Now(),
		}); err != nil {
			return err
		}
		quote.Status = status
		items, err := s.repo.ListItems(ctx, tx, id)
		if err != nil {
			return err
		}
		detail = &domain.QuoteDetail{Quote: *quote, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, "quote.resolved", "quote", id.String(), map[string]any{
		"status": string(status),
	})
	return detail, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id snowflake.ID) error {
	if !actor.IsAdmin() {
		return domain.ErrPermissionDenied
	}

	docs, err := s.repo.ListDocuments(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.blobs.Delete(ctx, doc.BlobID); err != nil {
			s.log.Warn("delete document blob", zap.Error(err))
		}
	}

	s.audit.Record(ctx, &actor.ID, "quote.deleted", "quote", id.String(), nil)
	return nil
}

func (s *Service) Documents(ctx context.Context, actor domain.Actor, id snowflake.ID) ([]domain.QuoteDocument, error) {
	if _, err := s.repo.FindByID(ctx, s.db, id); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, s.db, id)
}

// lockDraft locks the quote row and verifies the actor may edit it while
// it is still a draft.
func (s *Service) lockDraft(ctx context.Context, tx *gorm.DB, actor domain.Actor, id snowflake.ID) (*domain.Quote, error) {
	quote, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, quote) {
		return nil, domain.ErrPermissionDenied
	}
	if quote.Status != domain.StatusDraft {
		return nil, domain.ErrInvalidState
	}
	return quote, nil
}

func (s *Service) applyItemEdit(ctx context.Context, tx *gorm.DB, quote *domain.Quote, item *domain.QuoteItem, edit domain.ItemEdit) error {
	newQty := item.Quantity
	if edit.Quantity != nil {
		newQty = *edit.Quantity
	}
	newCost := item.UnitCost
	if edit.Cost != nil {
		newCost = *edit.Cost
	}
	newMargins := item.Margins.Resize(quote.Slots())
	if edit.Margins != nil {
		normalized, err := normalizeMargins(edit.Margins, quote.Slots())
		if err != nil {
			return err
		}
		newMargins = normalized
	}

	figures, err := pricing.ComputeItem(newCost, newQty, newMargins)
	if err != nil {
		return err
	}

	item.Quantity = newQty
	item.UnitCost = pricing.Round2(newCost)
	item.Margins = newMargins
	item.Prices = figures.Prices
	item.Subtotals = figures.Subtotals
	item.UpdatedAt = s.clock.Now()

	return s.repo.UpdateItemFields(ctx, tx, quote.ID, item.ID, map[string]any{
		"quantity":   item.Quantity,
		"unit_cost":  item.UnitCost,
		"margins":    item.Margins,
		"prices":     item.Prices,
		"subtotals":  item.Subtotals,
		"updated_at": item.UpdatedAt,
	})
}

// normalizeMargins pads a user-provided margin array to the quote's slot
// count and validates every set entry.
func normalizeMargins(margins *pricing.DecimalSlots, slots int) (pricing.DecimalSlots, error) {
	if margins == nil {
		return pricing.NewSlots(slots), nil
	}
	if len(*margins) > slots {
		return nil, pricing.ErrSlotMismatch
	}
	out := margins.Resize(slots)
	if err := pricing.ValidateMargins(out, slots); err != nil {
		return nil, err
	}
	return out, nil
}

// recompute rebuilds the aggregate totals from the stored lines, once per
// mutating operation.
func (s *Service) recompute(ctx context.Context, tx *gorm.DB, quote *domain.Quote) (*domain.QuoteDetail, error) {
	items, err := s.repo.ListItems(ctx, tx, quote.ID)
	if err != nil {
		return nil, err
	}

	totals := pricing.ComputeTotals(itemFacts(items), quote.TaxPct, quote.Slots())
	now := s.clock.Now()
	if err := s.repo.UpdateFields(ctx, tx, quote.ID, map[string]any{
		"totals":     totals,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	quote.Totals = totals
	quote.UpdatedAt = now
	return &domain.QuoteDetail{Quote: *quote, Items: items}, nil
}

// renderDocuments runs the retriable document step: render one branded
// document per active template slot, store them, email them, and record
// the outcome in docs_status.
func (s *Service) renderDocuments(ctx context.Context, detail *domain.QuoteDetail) {
	quote := &detail.Quote
	s.setDocsStatus(ctx, quote, domain.DocsPending, "")

	active, err := s.templates.Active(ctx)
	if err != nil {
		s.setDocsStatus(ctx, quote, domain.DocsFailed, err.Error())
		return
	}

	docs := make([]domain.QuoteDocument, 0, len(active))
	attachments := make([]domain.Attachment, 0, len(active))
	for _, template := range active {
		if template.Slot < 1 || template.Slot > quote.Slots() {
			continue
		}

		var logo []byte
		if template.LogoBlobID != nil {
			if blob, err := s.blobs.Get(ctx, *template.LogoBlobID); err == nil {
				logo = blob.Data
			}
		}

		data, err := s.renderer.RenderQuoteDocument(ctx, domain.RenderRequest{
			Quote:    *quote,
			Items:    detail.Items,
			Slot:     template.Slot,
			Template: template,
			Logo:     logo,
		})
		if err != nil {
			s.metrics.RecordDocRenderFailure(ctx, template.Slot)
			s.setDocsStatus(ctx, quote, domain.DocsFailed, err.Error())
			return
		}
		s.metrics.RecordDocRendered(ctx, template.Slot)

		filename := fmt.Sprintf("%s-%s.pdf", derefString(quote.Folio), template.Slug)
		blob, err := s.blobs.Put(ctx, filename, "application/pdf", data)
		if err != nil {
			s.setDocsStatus(ctx, quote, domain.DocsFailed, err.Error())
			return
		}

		docs = append(docs, domain.QuoteDocument{
			ID:         s.genID.Generate(),
			QuoteID:    quote.ID,
			Slot:       template.Slot,
			BlobID:     blob.ID,
			RenderedAt: s.clock.Now(),
		})
		attachments = append(attachments, domain.Attachment{
			Filename:    filename,
			ContentType: "application/pdf",
			Data:        data,
		})
	}

	if err := s.repo.ReplaceDocuments(ctx, s.db, quote.ID, docs); err != nil {
		s.setDocsStatus(ctx, quote, domain.DocsFailed, err.Error())
		return
	}

	if s.email != nil && quote.CustomerEmail != "" {
		if err := s.email.SendQuoteDocuments(ctx, quote.CustomerEmail, *quote, attachments); err != nil {
			s.log.Warn("email quote documents",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err),
			)
			s.setDocsStatus(ctx, quote, domain.DocsFailed, err.Error())
			return
		}
	}

	s.setDocsStatus(ctx, quote, domain.DocsReady, "")
}

func (s *Service) setDocsStatus(ctx context.Context, quote *domain.Quote, status domain.DocsStatus, message string) {
	if err := s.repo.UpdateFields(ctx, s.db, quote.ID, map[string]any{
		"docs_status": status,
		"docs_error":  message,
		"updated_at":  s.clock.Now(),
	}); err != nil {
		s.log.Warn("update docs status", zap.Error(err))
		return
	}
	quote.DocsStatus = status
	quote.DocsError = message
}

func canMutate(actor domain.Actor, quote *domain.Quote) bool {
	return actor.IsAdmin() || quote.OwnerID == actor.ID
}

func itemFacts(items []domain.QuoteItem) []pricing.ItemFacts {
	facts := make([]pricing.ItemFacts, 0, len(items))
	for _, item := range items {
		facts = append(facts, pricing.ItemFacts{
			Cost:      item.UnitCost,
			Qty:       item.Quantity,
			Prices:    item.Prices,
			Subtotals: item.Subtotals,
		})
	}
	return facts
}

func newFolio() string {
	return "COT-" + ulid.Make().String()
}

func maxSlot(templates []templatedomain.Template) int {
	max := 0
	for _, t := range templates {
		if t.Slot > max {
			max = t.Slot
		}
	}
	if max > config.MaxMarginSlots {
		max = config.MaxMarginSlots
	}
	return max
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
