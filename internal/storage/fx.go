package storage

import (
	"github.com/smallbiznis/cotiza/internal/storage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("storage",
	fx.Provide(service.New),
)
