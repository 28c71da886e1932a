package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/glanzwerk/beleg/internal/cache"
	"github.com/glanzwerk/beleg/internal/config"
	customerdomain "github.com/glanzwerk/beleg/internal/customer/domain"
	documentdomain "github.com/glanzwerk/beleg/internal/document/domain"
	obsmetrics "github.com/glanzwerk/beleg/internal/observability/metrics"
	settingsdomain "github.com/glanzwerk/beleg/internal/settings/domain"
	vehicledomain "github.com/glanzwerk/beleg/internal/vehicle/domain"
	workrecorddomain "github.com/glanzwerk/beleg/internal/workrecord/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(obsmetrics.NewHTTPMetrics),
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	documentSvc   documentdomain.Service
	customerSvc   customerdomain.Service
	vehicleSvc    vehicledomain.Service
	workRecordSvc workrecorddomain.Service
	settingsSvc   settingsdomain.Service
	docCache      cache.DocumentCache
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	DocumentSvc   documentdomain.Service
	CustomerSvc   customerdomain.Service
	VehicleSvc    vehicledomain.Service
	WorkRecordSvc workrecorddomain.Service
	SettingsSvc   settingsdomain.Service
	DocCache      cache.DocumentCache
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		documentSvc:   p.DocumentSvc,
		customerSvc:   p.CustomerSvc,
		vehicleSvc:    p.VehicleSvc,
		workRecordSvc: p.WorkRecordSvc,
		settingsSvc:   p.SettingsSvc,
		docCache:      p.DocCache,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func registerRoutes(s *Server) {
	api := s.engine.Group("/api/v1")

	documents := api.Group("/documents")
	documents.POST("", s.CreateDocument)
	documents.GET("", s.ListDocuments)
	documents.GET("/:id", s.GetDocument)
	documents.PATCH("/:id", s.UpdateDocumentBasics)
	documents.DELETE("/:id", s.DeleteDocument)
	documents.PUT("/:id/customer", s.AssignDocumentCustomer)
	documents.PUT("/:id/vehicle", s.AssignDocumentVehicle)

	documents.POST("/:id/lines", s.AddDocumentLine)
	documents.PATCH("/:id/lines/:lineId", s.UpdateDocumentLine)
	documents.PUT("/:id/lines/:lineId/position", s.MoveDocumentLine)
	documents.DELETE("/:id/lines/:lineId", s.DeleteDocumentLine)

	documents.POST("/:id/finalize-toggle", s.ToggleFinalizeDocument)
	documents.PUT("/:id/paid", s.SetDocumentPaid)
	documents.POST("/:id/sent", s.SetDocumentSent)
	documents.POST("/:id/cancel", s.CancelDocument)

	documents.POST("/:id/convert", s.ConvertOfferToInvoice)
	documents.POST("/:id/credit-note", s.CreditNoteFromInvoice)
	documents.POST("/:id/storno", s.StornoFromInvoice)

	customers := api.Group("/customers")
	customers.POST("", s.CreateCustomer)
	customers.GET("", s.ListCustomers)
	customers.GET("/:id", s.GetCustomerByID)
	customers.GET("/:id/vehicles", s.ListCustomerVehicles)

	vehicles := api.Group("/vehicles")
	vehicles.POST("", s.CreateVehicle)
	vehicles.GET("/:id", s.GetVehicleByID)

	workRecords := api.Group("/work-records")
	workRecords.POST("", s.CreateWorkRecord)
	workRecords.GET("/:id", s.GetWorkRecordByID)
	workRecords.POST("/:id/time", s.AddWorkRecordTime)
	workRecords.POST("/:id/invoice", s.InvoiceWorkRecord)

	settings := api.Group("/settings")
	settings.GET("", s.GetSettings)
	settings.PUT("", s.UpdateSettings)
}
