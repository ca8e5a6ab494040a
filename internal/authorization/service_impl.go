package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectQuote    = "quote"
	ObjectOrder    = "order"
	ObjectProduct  = "product"
	ObjectService  = "service"
	ObjectCategory = "category"
	ObjectTemplate = "template"
	ObjectReport   = "report"
	ObjectUser     = "user"
	ObjectAuditLog = "audit_log"
)

const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionSend    = "send"
	ActionApprove = "approve"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor)
	if err != nil {
		return err
	}

	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string) (string, string, error) {
	if actor == "system" {
		return actor, "role:admin", nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", ErrInvalidActor
		}
		role, err := s.roleForUser(ctx, userID)
		if err != nil {
			return "", "", err
		}
		return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), nil
	}
	return "", "", ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).
		Model(&authdomain.User{}).
		Select("role").
		Where("id = ?", userID).
		Limit(1).
		Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	crud := []string{ActionView, ActionCreate, ActionUpdate, ActionDelete}

	policies := [][]string{}

	// Admin has every action on every object.
	for _, object := range []string{ObjectQuote, ObjectOrder, ObjectProduct, ObjectService, ObjectCategory, ObjectTemplate, ObjectUser} {
		for _, action := range crud {
			policies = append(policies, []string{"role:admin", object, action})
		}
	}
	policies = append(policies,
		[]string{"role:admin", ObjectQuote, ActionSend},
		[]string{"role:admin", ObjectOrder, ActionSend},
		[]string{"role:admin", ObjectOrder, ActionApprove},
		[]string{"role:admin", ObjectReport, ActionView},
		[]string{"role:admin", ObjectAuditLog, ActionView},
	)

	// Ventas works quotes against the catalog.
	for _, object := range []string{ObjectProduct, ObjectService, ObjectCategory, ObjectTemplate} {
		policies = append(policies, []string{"role:ventas", object, ActionView})
	}
	policies = append(policies,
		[]string{"role:ventas", ObjectQuote, ActionView},
		[]string{"role:ventas", ObjectQuote, ActionCreate},
		[]string{"role:ventas", ObjectQuote, ActionUpdate},
		[]string{"role:ventas", ObjectQuote, ActionSend},
		[]string{"role:ventas", ObjectReport, ActionView},
	)

	// Compras works purchase orders.
	policies = append(policies,
		[]string{"role:compras", ObjectProduct, ActionView},
		[]string{"role:compras", ObjectCategory, ActionView},
		[]string{"role:compras", ObjectOrder, ActionView},
		[]string{"role:compras", ObjectOrder, ActionCreate},
		[]string{"role:compras", ObjectOrder, ActionUpdate},
		[]string{"role:compras", ObjectOrder, ActionSend},
		[]string{"role:compras", ObjectReport, ActionView},
	)

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
