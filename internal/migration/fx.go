package migration

import (
	"strings"

	auditdomain "github.com/smallbiznis/cotiza/internal/audit/domain"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/internal/config"
	orderdomain "github.com/smallbiznis/cotiza/internal/order/domain"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/internal/seed"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, branding *config.BrandingConfigHolder) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite deployments get the schema via gorm.
			if err := conn.AutoMigrate(models()...); err != nil {
				return err
			}
		}

		if err := seed.EnsureBrandingTemplates(conn, branding.Get()); err != nil {
			return err
		}
		if cfg.Bootstrap.EnsureDefaultAdmin {
			return seed.EnsureDefaultAdmin(conn)
		}
		return nil
	}),
)

func models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&authdomain.LoginEvent{},
		&storagedomain.Blob{},
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&catalogdomain.ServiceItem{},
		&templatedomain.Template{},
		&quotedomain.Quote{},
		&quotedomain.QuoteItem{},
		&quotedomain.QuoteDocument{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&auditdomain.Event{},
	}
}
