package operator

import (
	"go.uber.org/fx"

	"workshop-backend/internal/httpapi"
)

var Module = fx.Module("operator.module",
	fx.Provide(
		NewService,
		httpapi.AsRegistrar(NewHandler),
	),
)
