package workrecord

import (
	"github.com/glanzwerk/beleg/internal/workrecord/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workrecord.service",
	fx.Provide(service.New),
)
