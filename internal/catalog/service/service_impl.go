package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cotiza/internal/cache"
	"github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver snapshots are display data, a short TTL keeps edits visible
// quickly while absorbing add-item bursts.
const resolveTTL = 30 * time.Second

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	subjects cache.Cache[string, domain.Subject]
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("catalog.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		clock:    p.Clock,
		subjects: cache.NewTTLCache[string, domain.Subject](),
	}
}

func (s *Service) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, domain.ErrInvalidSKU
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if err := validateCost(req.Cost); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, s.db, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "pieza"
	}

	now := s.clock.Now()
	product := &domain.Product{
		ID:          s.genID.Generate(),
		CategoryID:  req.CategoryID,
		SKU:         sku,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Unit:        unit,
		Cost:        req.Cost.Round(2),
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProduct(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEntry
		}
		return nil, err
	}
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id snowflake.ID) (*domain.Product, error) {
	return s.repo.FindProductByID(ctx, s.db, id)
}

func (s *Service) ListProducts(ctx context.Context, req domain.ListRequest) ([]domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	return s.repo.ListProducts(ctx, s.db, req)
}

func (s *Service) UpdateProduct(ctx context.Context, id snowflake.ID, req domain.UpdateProductRequest) (*domain.Product, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Unit != nil {
		fields["unit"] = strings.TrimSpace(*req.Unit)
	}
	if req.Cost != nil {
		if err := validateCost(*req.Cost); err != nil {
			return nil, err
		}
		fields["cost"] = req.Cost.Round(2)
	}
	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, s.db, *req.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateProductFields(ctx, s.db, id, fields); err != nil {
			return nil, err
		}
	}
	s.subjects.Delete(subjectKey(domain.KindProduct, id))
	return s.repo.FindProductByID(ctx, s.db, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeleteProduct(ctx, s.db, id); err != nil {
		return err
	}
	s.subjects.Delete(subjectKey(domain.KindProduct, id))
	return nil
}

func (s *Service) CreateService(ctx context.Context, req domain.CreateServiceRequest) (*domain.ServiceItem, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if err := validateCost(req.Cost); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, s.db, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	item := &domain.ServiceItem{
		ID:          s.genID.Generate(),
		CategoryID:  req.CategoryID,
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Cost:        req.Cost.Round(2),
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateService(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEntry
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) GetService(ctx context.Context, id snowflake.ID) (*domain.ServiceItem, error) {
	return s.repo.FindServiceByID(ctx, s.db, id)
}

func (s *Service) ListServices(ctx context.Context, req domain.ListRequest) ([]domain.ServiceItem, error) {
	req.Name = strings.TrimSpace(req.Name)
	return s.repo.ListServices(ctx, s.db, req)
}

func (s *Service) UpdateService(ctx context.Context, id snowflake.ID, req domain.UpdateServiceRequest) (*domain.ServiceItem, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Cost != nil {
		if err := validateCost(*req.Cost); err != nil {
			return nil, err
		}
		fields["cost"] = req.Cost.Round(2)
	}
	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, s.db, *req.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateServiceFields(ctx, s.db, id, fields); err != nil {
			return nil, err
		}
	}
	s.subjects.Delete(subjectKey(domain.KindService, id))
	return s.repo.FindServiceByID(ctx, s.db, id)
}

func (s *Service) DeleteService(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeleteService(ctx, s.db, id); err != nil {
		return err
	}
	s.subjects.Delete(subjectKey(domain.KindService, id))
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	kind, ok := domain.ParseKind(string(req.Kind))
	if !ok {
		return nil, domain.ErrInvalidKind
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	category := &domain.Category{
		ID:        s.genID.Generate(),
		Kind:      kind,
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCategory(ctx, s.db, category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEntry
		}
		return nil, err
	}
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context, kind domain.Kind) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, s.db, kind)
}

func (s *Service) UpdateCategory(ctx context.Context, id snowflake.ID, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if err := s.repo.UpdateCategoryFields(ctx, s.db, id, map[string]any{
		"name":       name,
		"slug":       slug.Make(name),
		"updated_at": s.clock.Now(),
	}); err != nil {
		return nil, err
	}
	return s.repo.FindCategoryByID(ctx, s.db, id)
}

func (s *Service) DeleteCategory(ctx context.Context, id snowflake.ID) error {
	category, err := s.repo.FindCategoryByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.CountCategoryRefs(ctx, s.db, id, category.Kind)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrCategoryInUse
	}
	return s.repo.DeleteCategory(ctx, s.db, id)
}

func (s *Service) Resolve(ctx context.Context, kind domain.Kind, id snowflake.ID) (*domain.Subject, error) {
	kind, ok := domain.ParseKind(string(kind))
	if !ok {
		return nil, domain.ErrInvalidKind
	}

	key := subjectKey(kind, id)
	if subject, ok := s.subjects.Get(key); ok {
		return &subject, nil
	}

	var subject domain.Subject
	switch kind {
	case domain.KindProduct:
		product, err := s.repo.FindProductByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		subject = domain.Subject{
			Kind:        domain.KindProduct,
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			Unit:        product.Unit,
			Cost:        product.Cost,
			Active:      product.Active,
		}
	case domain.KindService:
		item, err := s.repo.FindServiceByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		subject = domain.Subject{
			Kind:        domain.KindService,
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Unit:        "servicio",
			Cost:        item.Cost,
			Active:      item.Active,
		}
	}

	s.subjects.Set(key, subject, resolveTTL)
	return &subject, nil
}

func subjectKey(kind domain.Kind, id snowflake.ID) string {
	return fmt.Sprintf("%s|%s", kind, id)
}

func validateCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return domain.ErrInvalidCost
	}
	if cost.Exponent() < -2 {
		return domain.ErrInvalidCost
	}
	return nil
}
