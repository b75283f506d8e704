package httpapi

import (
	"workshop-backend/internal/config"
	"workshop-backend/pkg/health"
	"workshop-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("httpapi",
	fx.Provide(ProvideRouter),
)

// Registrar is implemented by every service that exposes HTTP routes. The fx
// graph collects them under the "routes" group so the router does not need to
// know the services by name.
type Registrar interface {
	Register(rg *gin.RouterGroup)
}

type RouterParams struct {
	fx.In
	Config     *config.Config
	Health     health.HealthService
	DB         *gorm.DB
	Registrars []Registrar `group:"routes"`
}

func ProvideRouter(p RouterParams) *gin.Engine {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(p.Config.AppName), middleware.RequestLog(), middleware.Error())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)

	api := r.Group("/api/v1")
	api.GET("/stats", Stats(p.DB))

	for _, reg := range p.Registrars {
		reg.Register(api)
	}

	return r
}

// AsRegistrar annotates a constructor so its result lands in the router's
// "routes" group.
func AsRegistrar(f any) any {
	return fx.Annotate(f,
		fx.As(new(Registrar)),
		fx.ResultTags(`group:"routes"`),
	)
}
