package gen

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"workshop-backend/internal/config"
)

var Module = fx.Module("gen",
	fx.Provide(NewNode),
)

// NewNode builds the process-wide snowflake node used for all entity IDs.
func NewNode(cfg *config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.Snowflake.NodeID)
}
