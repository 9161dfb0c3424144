package cmd

import (
	"context"
	"errors"

	"github.com/iksnae/gemini-attach/internal"
)

// newRemoteClient builds the client for commands that talk to the service.
// Tests replace it.
var newRemoteClient = func(cfg *internal.Config) (internal.RemoteClient, error) {
	return internal.NewGeminiClient(cfg.ClientConfig())
}

// loadConfig reads the config and applies the global flags on top of it
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if !verbose {
		internal.SetLogLevel(internal.ParseLogLevel(cfg.LogLevel))
	}
	if cfg.Source != "" {
		internal.LogDebug("Using config file %s", cfg.Source)
	}
	return cfg, nil
}

// openPipeline wires the pipeline. Without remote, or without an API key,
// cached references still resolve and every call to the service fails with
// ErrMissingAPIKey.
func openPipeline(cfg *internal.Config, remote bool) (*internal.Pipeline, error) {
	var client internal.RemoteClient = offlineClient{}
	if remote {
		c, err := newRemoteClient(cfg)
		switch {
		case errors.Is(err, internal.ErrMissingAPIKey):
			internal.PrintWarning("No API key configured, only cached uploads can be reused")
		case err != nil:
			return nil, err
		default:
			client = c
		}
	}
	return internal.NewPipeline(cfg, client)
}

type offlineClient struct{}

func (offlineClient) CreateAndUpload(context.Context, []byte, string, string) (internal.RemoteObjectRef, error) {
	return internal.RemoteObjectRef{}, internal.ErrMissingAPIKey
}

func (offlineClient) FetchByName(context.Context, string) (internal.RemoteObjectRef, error) {
	return internal.RemoteObjectRef{}, internal.ErrMissingAPIKey
}

func (offlineClient) HandleForCachedRef(ref internal.RemoteObjectRef) internal.FileHandle {
	return internal.HandleFromRef(ref)
}
