package main

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"workshop-backend/internal/config"
	"workshop-backend/internal/httpapi"
	"workshop-backend/internal/logger"
	"workshop-backend/internal/server"
	"workshop-backend/pkg/db"
	"workshop-backend/pkg/gen"
	"workshop-backend/pkg/health"
	"workshop-backend/pkg/otelcol"
	"workshop-backend/pkg/redis"
	"workshop-backend/services/machine"
	"workshop-backend/services/operator"
	"workshop-backend/services/project"
	"workshop-backend/services/scheduling"
	"workshop-backend/services/task"
)

func migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&project.Project{},
		&project.Item{},
		&machine.Machine{},
		&operator.Operator{},
		&task.Task{},
		&task.TimeSlot{},
	)
}

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		otelcol.Module,
		gen.Module,
		db.Module,
		redis.Module,
		health.Module,

		project.Module,
		machine.Module,
		operator.Module,
		task.Module,
		scheduling.Module,

		httpapi.Module,
		server.Module,

		fx.Invoke(migrate),
	)

	app.Run()
}
