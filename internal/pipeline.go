package internal

import (
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline wires the remote client, cache, uploader and converter from a Config
type Pipeline struct {
	Config    *Config
	Client    RemoteClient
	Cache     *RemoteObjectCache
	Converter *AttachmentConverter
	Registry  *prometheus.Registry
	// Store is the durable ref store, nil unless cache.db is set
	Store *SQLiteRefStore

	db *sql.DB
}

// NewPipeline builds a pipeline. client may be nil, in which case a
// GeminiClient is created from cfg.
func NewPipeline(cfg *Config, client RemoteClient) (*Pipeline, error) {
	p := &Pipeline{Config: cfg, Registry: prometheus.NewRegistry()}

	if client == nil {
		gemini, err := NewGeminiClient(cfg.ClientConfig())
		if err != nil {
			return nil, err
		}
		client = gemini
	}
	p.Client = client

	var opts []CacheOption
	if cfg.CacheDB != "" {
		db, err := OpenDatabase(cfg.CacheDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		p.db = db
		p.Store = NewSQLiteRefStore(db)
		opts = append(opts, WithRefStore(p.Store))
	}
	cache, err := NewRemoteObjectCache(cfg.CacheSize, opts...)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Cache = cache

	observer, err := NewPrometheusObserver("", p.Registry)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	uploader := NewUploadCoordinator(cache, WithUploadObserver(observer))
	p.Converter = NewAttachmentConverter(client, cache, uploader, observer)
	return p, nil
}

// Close writes the metrics textfile when configured and releases the cache database
func (p *Pipeline) Close() error {
	var firstErr error
	if p.Config != nil && p.Config.MetricsFile != "" && p.Registry != nil {
		if err := WriteMetrics(p.Config.MetricsFile, p.Registry); err != nil {
			firstErr = err
		}
	}
	if p.Cache != nil {
		p.Cache.Close()
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.db = nil
	}
	return firstErr
}
