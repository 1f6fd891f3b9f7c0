//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

// InitializeBridge assembles the full overlay deployment: store, cache,
// clients, session, update hub and bridge server.
func InitializeBridge(configPath string) (*Bridge, error) {
	wire.Build(
		ProvideLogger,
		ProvideOverlayConfig,
		ProvideCredentials,
		ProvideStore,
		ProvideCache,
		ProvideVoicemailClient,
		ProvideTranscriptionClient,
		ProvideHub,
		ProvideMetrics,
		ProvideSession,
		ProvideServer,
		NewBridge,
	)
	return nil, nil
}
