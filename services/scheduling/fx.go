package scheduling

import (
	"go.uber.org/fx"

	"workshop-backend/internal/httpapi"
)

var Module = fx.Module("scheduling.module",
	fx.Provide(
		NewService,
		httpapi.AsRegistrar(NewHandler),
	),
)
