package machine

import (
	"go.uber.org/fx"

	"workshop-backend/internal/httpapi"
)

var Module = fx.Module("machine.module",
	fx.Provide(
		NewService,
		httpapi.AsRegistrar(NewHandler),
	),
)
