package document

import (
	"github.com/glanzwerk/beleg/internal/document/numbering"
	"github.com/glanzwerk/beleg/internal/document/service"
	"go.uber.org/fx"
)

var Module = fx.Module("document.service",
	fx.Provide(numbering.NewAllocator),
	fx.Provide(service.New),
)
