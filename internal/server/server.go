// Package server exposes the HTTP surface: session auth, catalog and
// template management, quoting, purchase orders and reports.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/cotiza/internal/audit/domain"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	"github.com/smallbiznis/cotiza/internal/auth/session"
	"github.com/smallbiznis/cotiza/internal/authorization"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/config"
	"github.com/smallbiznis/cotiza/internal/observability"
	obslogger "github.com/smallbiznis/cotiza/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cotiza/internal/observability/metrics"
	obstracing "github.com/smallbiznis/cotiza/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/cotiza/internal/order/domain"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	reportdomain "github.com/smallbiznis/cotiza/internal/report/domain"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{Debug: obsCfg.Debug()}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	authSvc     authdomain.Service
	sessions    *session.Manager
	authzSvc    authorization.Service
	catalogSvc  catalogdomain.Service
	templateSvc templatedomain.Service
	quoteSvc    quotedomain.Service
	orderSvc    orderdomain.Service
	reportSvc   reportdomain.Service
	auditSvc    auditdomain.Service
	blobs       storagedomain.Store
	clk         clock.Clock
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	AuthSvc     authdomain.Service
	Sessions    *session.Manager
	AuthzSvc    authorization.Service
	CatalogSvc  catalogdomain.Service
	TemplateSvc templatedomain.Service
	QuoteSvc    quotedomain.Service
	OrderSvc    orderdomain.Service
	ReportSvc   reportdomain.Service
	AuditSvc    auditdomain.Service
	Blobs       storagedomain.Store
	Clock       clock.Clock
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		db:          p.DB,
		authSvc:     p.AuthSvc,
		sessions:    p.Sessions,
		authzSvc:    p.AuthzSvc,
		catalogSvc:  p.CatalogSvc,
		templateSvc: p.TemplateSvc,
		quoteSvc:    p.QuoteSvc,
		orderSvc:    p.OrderSvc,
		reportSvc:   p.ReportSvc,
		auditSvc:    p.AuditSvc,
		blobs:       p.Blobs,
		clk:         p.Clock,
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Users --------
	api.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionView), s.ListUsers)
	api.POST("/users", s.authorize(authorization.ObjectUser, authorization.ActionCreate), s.CreateUser)
	api.GET("/users/:id", s.authorize(authorization.ObjectUser, authorization.ActionView), s.GetUser)
	api.POST("/users/:id/role", s.authorize(authorization.ObjectUser, authorization.ActionUpdate), s.UpdateUserRole)
	api.POST("/users/:id/disable", s.authorize(authorization.ObjectUser, authorization.ActionUpdate), s.DisableUser)
	api.POST("/users/:id/enable", s.authorize(authorization.ObjectUser, authorization.ActionUpdate), s.EnableUser)

	// -------- Catalog: products --------
	api.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionView), s.ListProducts)
	api.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionCreate), s.CreateProduct)
	api.GET("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionView), s.GetProduct)
	api.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionUpdate), s.UpdateProduct)
	api.DELETE("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionDelete), s.DeleteProduct)

	// -------- Catalog: services --------
	api.GET("/services", s.authorize(authorization.ObjectService, authorization.ActionView), s.ListServices)
	api.POST("/services", s.authorize(authorization.ObjectService, authorization.ActionCreate), s.CreateService)
	api.GET("/services/:id", s.authorize(authorization.ObjectService, authorization.ActionView), s.GetService)
	api.PATCH("/services/:id", s.authorize(authorization.ObjectService, authorization.ActionUpdate), s.UpdateService)
	api.DELETE("/services/:id", s.authorize(authorization.ObjectService, authorization.ActionDelete), s.DeleteService)

	// -------- Catalog: categories --------
	api.GET("/categories", s.authorize(authorization.ObjectCategory, authorization.ActionView), s.ListCategories)
	api.POST("/categories", s.authorize(authorization.ObjectCategory, authorization.ActionCreate), s.CreateCategory)
	api.PATCH("/categories/:id", s.authorize(authorization.ObjectCategory, authorization.ActionUpdate), s.UpdateCategory)
	api.DELETE("/categories/:id", s.authorize(authorization.ObjectCategory, authorization.ActionDelete), s.DeleteCategory)

	// -------- Branding templates --------
	api.GET("/templates", s.authorize(authorization.ObjectTemplate, authorization.ActionView), s.ListTemplates)
	api.POST("/templates", s.authorize(authorization.ObjectTemplate, authorization.ActionCreate), s.CreateTemplate)
	api.GET("/templates/:id", s.authorize(authorization.ObjectTemplate, authorization.ActionView), s.GetTemplate)
	api.PATCH("/templates/:id", s.authorize(authorization.ObjectTemplate, authorization.ActionUpdate), s.UpdateTemplate)
	api.DELETE("/templates/:id", s.authorize(authorization.ObjectTemplate, authorization.ActionDelete), s.DeleteTemplate)
	api.POST("/templates/:id/logo", s.authorize(authorization.ObjectTemplate, authorization.ActionUpdate), s.UploadTemplateLogo)
	api.GET("/templates/:id/logo", s.authorize(authorization.ObjectTemplate, authorization.ActionView), s.DownloadTemplateLogo)

	// -------- Quotes --------
	api.GET("/quotes", s.authorize(authorization.ObjectQuote, authorization.ActionView), s.ListQuotes)
	api.POST("/quotes", s.authorize(authorization.ObjectQuote, authorization.ActionCreate), s.CreateQuote)
	api.GET("/quotes/:id", s.authorize(authorization.ObjectQuote, authorization.ActionView), s.GetQuote)
	api.DELETE("/quotes/:id", s.authorize(authorization.ObjectQuote, authorization.ActionDelete), s.DeleteQuote)
	api.POST("/quotes/:id/items", s.authorize(authorization.ObjectQuote, authorization.ActionUpdate), s.AddQuoteItems)
	api.PATCH("/quotes/:id/items/:itemId", s.authorize(authorization.ObjectQuote, authorization.ActionUpdate), s.UpdateQuoteItem)
	api.DELETE("/quotes/:id/items/:itemId", s.authorize(authorization.ObjectQuote, authorization.ActionUpdate), s.RemoveQuoteItem)
	api.POST("/quotes/:id/batch", s.authorize(authorization.ObjectQuote, authorization.ActionUpdate), s.ApplyQuoteBatch)
	api.POST("/quotes/:id/send", s.authorize(authorization.ObjectQuote, authorization.ActionSend), s.SendQuote)
	api.POST("/quotes/:id/documents/retry", s.authorize(authorization.ObjectQuote, authorization.ActionSend), s.RetryQuoteDocuments)
	api.POST("/quotes/:id/reopen", s.authorize(authorization.ObjectQuote, authorization.ActionUpdate), s.ReopenQuote)
	api.POST("/quotes/:id/resolve", s.authorize(authorization.ObjectQuote, authorization.ActionUpdate), s.ResolveQuote)
	api.GET("/quotes/:id/documents", s.authorize(authorization.ObjectQuote, authorization.ActionView), s.ListQuoteDocuments)
	api.GET("/quotes/:id/documents/:docId/download", s.authorize(authorization.ObjectQuote, authorization.ActionView), s.DownloadQuoteDocument)

	// -------- Purchase orders --------
	api.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.ListOrders)
	api.POST("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionCreate), s.CreateOrder)
	api.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.GetOrder)
	api.DELETE("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionDelete), s.DeleteOrder)
	api.POST("/orders/:id/items", s.authorize(authorization.ObjectOrder, authorization.ActionUpdate), s.AddOrderItem)
	api.PATCH("/orders/:id/items/:itemId", s.authorize(authorization.ObjectOrder, authorization.ActionUpdate), s.UpdateOrderItem)
	api.DELETE("/orders/:id/items/:itemId", s.authorize(authorization.ObjectOrder, authorization.ActionUpdate), s.RemoveOrderItem)
	api.POST("/orders/:id/items/:itemId/evidence", s.authorize(authorization.ObjectOrder, authorization.ActionUpdate), s.UploadOrderEvidence)
	api.GET("/orders/:id/items/:itemId/evidence", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.DownloadOrderEvidence)
	api.POST("/orders/:id/send", s.authorize(authorization.ObjectOrder, authorization.ActionSend), s.SendOrder)
	api.POST("/orders/:id/items/:itemId/resolve", s.authorize(authorization.ObjectOrder, authorization.ActionApprove), s.ResolveOrderItem)

	// -------- Reports --------
	api.GET("/reports/quotes", s.authorize(authorization.ObjectReport, authorization.ActionView), s.QuoteOverviewReport)
	api.GET("/reports/top-products", s.authorize(authorization.ObjectReport, authorization.ActionView), s.TopProductsReport)
	api.GET("/reports/orders", s.authorize(authorization.ObjectReport, authorization.ActionView), s.OrderStatsReport)
	api.GET("/reports/logins", s.authorize(authorization.ObjectReport, authorization.ActionView), s.LoginActivityReport)

	// -------- Audit log --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
