package customer

import (
	"github.com/glanzwerk/beleg/internal/customer/repository"
	"github.com/glanzwerk/beleg/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
