package project

import (
	"go.uber.org/fx"

	"workshop-backend/internal/httpapi"
)

var Module = fx.Module("project.module",
	fx.Provide(
		NewService,
		httpapi.AsRegistrar(NewHandler),
	),
)
