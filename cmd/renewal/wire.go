//go:build wireinject
// +build wireinject

package main

import (
	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/conf"
	"feastly/membership-service/internal/data"

	"github.com/google/wire"
)

// wireApp initializes the renewal batch application.
func wireApp(*conf.Bootstrap) (*RenewalApp, func(), error) {
	panic(wire.Build(
		newLogger,
		data.ProviderSet,
		biz.ProviderSet,
		wire.Struct(new(RenewalApp), "*"),
	))
}
