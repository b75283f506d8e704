package task

import (
	"go.uber.org/fx"

	"workshop-backend/internal/httpapi"
)

var Module = fx.Module("task.module",
	fx.Provide(
		NewService,
		httpapi.AsRegistrar(NewHandler),
	),
)
