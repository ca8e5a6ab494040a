package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/internal/audit/domain"
	"github.com/smallbiznis/cotiza/internal/clock"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultListLimit = 100

type Service struct {
	log   *zap.Logger
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func New(log *zap.Logger, db *gorm.DB, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &Service{
		log:   log.Named("audit.service"),
		db:    db,
		genID: genID,
		clock: clk,
	}
}

func (s *Service) Record(ctx context.Context, actorID *snowflake.ID, action, objectType, objectID string, detail map[string]any) {
	event := domain.Event{
		ID:         s.genID.Generate(),
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Detail:     datatypes.JSONMap(detail),
		CreatedAt:  s.clock.Now(),
	}
	if event.Detail == nil {
		event.Detail = datatypes.JSONMap{}
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		s.log.Warn("record audit event",
			zap.String("action", action),
			zap.String("object_type", objectType),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListRequest) ([]domain.Event, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}

	stmt := s.db.WithContext(ctx).Model(&domain.Event{})
	if filter.ObjectType != "" {
		stmt = stmt.Where("object_type = ?", filter.ObjectType)
	}
	if filter.ObjectID != "" {
		stmt = stmt.Where("object_id = ?", filter.ObjectID)
	}
	if filter.ActorID != nil {
		stmt = stmt.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Since != nil {
		stmt = stmt.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		stmt = stmt.Where("created_at < ?", *filter.Until)
	}

	var events []domain.Event
	err := stmt.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error
	return events, err
}
