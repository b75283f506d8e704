package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type statsResponse struct {
	Projects      int64         `json:"projects"`
	Items         int64         `json:"items"`
	Machines      int64         `json:"machines"`
	Operators     int64         `json:"operators"`
	TasksByStatus []statusCount `json:"tasks_by_status"`
}

// Stats gathers entity counts for the dashboard. Counts run concurrently;
// table names are used directly to keep this package out of the services'
// import graph.
func Stats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var out statsResponse

		g, ctx := errgroup.WithContext(ctx)

		count := func(table string, dst *int64) func() error {
			return func() error {
				return db.WithContext(ctx).Table(table).Count(dst).Error
			}
		}

		g.Go(count("projects", &out.Projects))
		g.Go(count("items", &out.Items))
		g.Go(count("machines", &out.Machines))
		g.Go(count("operators", &out.Operators))
		g.Go(func() error {
			return db.WithContext(ctx).
				Table("tasks").
				Select("status, count(*) as count").
				Group("status").
				Scan(&out.TasksByStatus).Error
		})

		if err := g.Wait(); err != nil {
			zap.L().Error("failed to gather stats", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "INTERNAL", "message": "failed to gather stats"}})
			return
		}

		c.JSON(http.StatusOK, out)
	}
}
