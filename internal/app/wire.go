//go:build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/data"
	"github.com/gowvp/pothole/internal/web/api"
)

func wireApp(bc *conf.Bootstrap) (*App, func(), error) {
	panic(wire.Build(data.ProviderSet, api.ProviderSet, ProviderSet))
}
