// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/flowgraph/flowgraph/pkg/components/agent"
	"github.com/flowgraph/flowgraph/pkg/components/childworkflow"
	"github.com/flowgraph/flowgraph/pkg/components/fileloader"
	"github.com/flowgraph/flowgraph/pkg/components/form"
	"github.com/flowgraph/flowgraph/pkg/components/httprequest"
	"github.com/flowgraph/flowgraph/pkg/components/logmsg"
	"github.com/flowgraph/flowgraph/pkg/components/manualtrigger"
	"github.com/flowgraph/flowgraph/pkg/components/transform"
	"github.com/flowgraph/flowgraph/pkg/registry"
)

func NewRegistry(logger *slog.Logger, childStarter childworkflow.Starter) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerNativeComponents(reg, childStarter)

	return reg
}

func registerNativeComponents(reg *registry.Registry, childStarter childworkflow.Starter) {
	reg.Register(manualtrigger.Component())
	reg.Register(httprequest.Component())
	reg.Register(fileloader.Component())
	reg.Register(transform.Component())
	reg.Register(logmsg.Component())
	reg.Register(form.Component())
	reg.Register(agent.Component())
	reg.Register(childworkflow.Component(childStarter))
}
