package template

import (
	"github.com/smallbiznis/cotiza/internal/template/service"
	"go.uber.org/fx"
)

var Module = fx.Module("template.service",
	fx.Provide(service.New),
)
