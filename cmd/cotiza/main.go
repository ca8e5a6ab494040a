package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cotiza/internal/audit"
	"github.com/smallbiznis/cotiza/internal/auth"
	"github.com/smallbiznis/cotiza/internal/auth/session"
	"github.com/smallbiznis/cotiza/internal/authorization"
	"github.com/smallbiznis/cotiza/internal/catalog"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/config"
	"github.com/smallbiznis/cotiza/internal/migration"
	"github.com/smallbiznis/cotiza/internal/observability"
	"github.com/smallbiznis/cotiza/internal/order"
	"github.com/smallbiznis/cotiza/internal/providers/email"
	"github.com/smallbiznis/cotiza/internal/providers/pdf"
	"github.com/smallbiznis/cotiza/internal/quote"
	"github.com/smallbiznis/cotiza/internal/ratelimit"
	"github.com/smallbiznis/cotiza/internal/report"
	"github.com/smallbiznis/cotiza/internal/server"
	"github.com/smallbiznis/cotiza/internal/storage"
	"github.com/smallbiznis/cotiza/internal/template"
	"github.com/smallbiznis/cotiza/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,

		authorization.Module,
		session.Module,
		auth.Module,
		storage.Module,
		audit.Module,
		catalog.Module,
		template.Module,
		ratelimit.Module,
		pdf.Module,
		email.Module,
		quote.Module,
		order.Module,
		report.Module,

		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
