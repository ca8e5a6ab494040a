package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/config"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	"github.com/smallbiznis/cotiza/internal/template/domain"
	"github.com/smallbiznis/cotiza/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var accentHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Blobs storagedomain.Store
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	blobs storagedomain.Store
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("template.service"),
		genID: p.GenID,
		blobs: p.Blobs,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Template, error) {
	if req.Slot < 1 || req.Slot > config.MaxMarginSlots {
		return nil, domain.ErrInvalidSlot
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	accent := strings.TrimSpace(req.AccentHex)
	if accent == "" {
		accent = "#0F172A"
	}
	if !accentHexPattern.MatchString(accent) {
		return nil, domain.ErrInvalidAccent
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	template := &domain.Template{
		ID:         s.genID.Generate(),
		Slot:       req.Slot,
		Name:       name,
		Slug:       slug.Make(name),
		City:       strings.TrimSpace(req.City),
		Footer:     strings.TrimSpace(req.Footer),
		AccentHex:  strings.ToUpper(accent),
		Conditions: strings.TrimSpace(req.Conditions),
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(template).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlotTaken
		}
		return nil, err
	}
	return template, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Template, error) {
	var template domain.Template
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Template, error) {
	var templates []domain.Template
	err := s.db.WithContext(ctx).Order("slot ASC").Find(&templates).Error
	return templates, err
}

func (s *Service) Active(ctx context.Context) ([]domain.Template, error) {
	var templates []domain.Template
	err := s.db.WithContext(ctx).Where("active = ?", true).Order("slot ASC").Find(&templates).Error
	return templates, err
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (*domain.Template, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
		fields["slug"] = slug.Make(name)
	}
	if req.City != nil {
		fields["city"] = strings.TrimSpace(*req.City)
	}
	if req.Footer != nil {
		fields["footer"] = strings.TrimSpace(*req.Footer)
	}
	if req.AccentHex != nil {
		accent := strings.TrimSpace(*req.AccentHex)
		if !accentHexPattern.MatchString(accent) {
			return nil, domain.ErrInvalidAccent
		}
		fields["accent_hex"] = strings.ToUpper(accent)
	}
	if req.Conditions != nil {
		fields["conditions"] = strings.TrimSpace(*req.Conditions)
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		tx := s.db.WithContext(ctx).Model(&domain.Template{}).Where("id = ?", id).Updates(fields)
		if tx.Error != nil {
			return nil, tx.Error
		}
		if tx.RowsAffected == 0 {
			return nil, domain.ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	template, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Template{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	if template.LogoBlobID != nil {
		if err := s.blobs.Delete(ctx, *template.LogoBlobID); err != nil && !errors.Is(err, storagedomain.ErrBlobNotFound) {
			s.log.Warn("delete template logo blob", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) SetLogo(ctx context.Context, id snowflake.ID, blobID snowflake.ID) (*domain.Template, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.blobs.Get(ctx, blobID); err != nil {
		return nil, err
	}

	previous := template.LogoBlobID
	tx := s.db.WithContext(ctx).Model(&domain.Template{}).Where("id = ?", id).Updates(map[string]any{
		"logo_blob_id": blobID,
		"updated_at":   s.clock.Now(),
	})
	if tx.Error != nil {
		return nil, tx.Error
	}

	if previous != nil && *previous != blobID {
		if err := s.blobs.Delete(ctx, *previous); err != nil && !errors.Is(err, storagedomain.ErrBlobNotFound) {
			s.log.Warn("delete replaced logo blob", zap.Error(err))
		}
	}
	return s.Get(ctx, id)
}
