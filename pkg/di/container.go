// Package di wires the components a command needs from its configuration
package di

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/api"
	"github.com/TheGoldLab/mxgram/pkg/config"
	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/TheGoldLab/mxgram/pkg/messenger"
	"github.com/TheGoldLab/mxgram/pkg/metrics"
	"github.com/TheGoldLab/mxgram/pkg/recording"
	"github.com/TheGoldLab/mxgram/pkg/storage"
	"github.com/TheGoldLab/mxgram/pkg/transport"
)

// TransportFactory opens the transport for a configuration
type TransportFactory func(ctx context.Context, cfg config.Transport) (transport.Transport, error)

// Container holds all the dependencies for the application. Components are
// created on first use and released by Close.
type Container struct {
	config *config.Config
	logger *log.Logger

	mu               sync.Mutex
	codec            *gram.Codec
	metrics          *metrics.Metrics
	archive          *storage.Archive
	recorder         *recording.Writer
	transport        transport.Transport
	messenger        *messenger.Messenger
	transportFactory TransportFactory
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) *Container {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Container{
		config:           cfg,
		logger:           log.Default(),
		transportFactory: transport.New,
	}
}

// Config returns the configuration the container was built from
func (c *Container) Config() *config.Config {
	return c.config
}

// SetTransportFactory allows overriding how transports are opened (for testing)
func (c *Container) SetTransportFactory(factory TransportFactory) {
	c.transportFactory = factory
}

// SetLogger replaces the logger handed to components
func (c *Container) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// Codec returns the codec configured by the codec section
func (c *Container) Codec() *gram.Codec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.codec == nil {
		cfg := gram.CodecConfig{MaxDepth: c.config.Codec.MaxDepth}
		if c.config.Codec.Callables {
			cfg.Stringifier = gram.SourceStringifier{}
		}
		c.codec = gram.NewCodec(cfg)
	}
	return c.codec
}

// Metrics returns the shared metrics
func (c *Container) Metrics() *metrics.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metrics == nil {
		c.metrics = metrics.New(nil)
	}
	return c.metrics
}

// Archive opens the archive. It returns nil without error when the archive
// is disabled.
func (c *Container) Archive() (*storage.Archive, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.config.Archive.Enabled {
		return nil, nil
	}
	if c.archive == nil {
		archive, err := storage.Open(c.config.Archive.DataDir)
		if err != nil {
			return nil, err
		}
		c.archive = archive
	}
	return c.archive, nil
}

// Recorder opens the session recording, or returns nil when recording.path
// is empty.
func (c *Container) Recorder() (*recording.Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.Recording.Path == "" {
		return nil, nil
	}
	if c.recorder == nil {
		w, err := recording.NewWriter(recording.WriterConfig{
			Path:          c.config.Recording.Path,
			FsyncInterval: time.Duration(c.config.Recording.FsyncInterval) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		c.recorder = w
	}
	return c.recorder, nil
}

// Transport opens the configured transport
func (c *Container) Transport(ctx context.Context) (transport.Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == nil {
		t, err := c.transportFactory(ctx, c.config.Transport)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	return c.transport, nil
}

// Messenger couples the codec, transport, archive and metrics
func (c *Container) Messenger(ctx context.Context) (*messenger.Messenger, error) {
	codec := c.Codec()
	m := c.Metrics()
	archive, err := c.Archive()
	if err != nil {
		return nil, err
	}
	recorder, err := c.Recorder()
	if err != nil {
		return nil, err
	}
	t, err := c.Transport(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.messenger == nil {
		opts := messenger.Options{
			Codec:      codec,
			Transport:  t,
			Metrics:    m,
			Logger:     c.logger,
			Debug:      c.config.Logging.Level == "debug",
			BufferSize: c.config.Codec.BufferSize,
		}
		if archive != nil {
			opts.Archive = archive
		}
		if recorder != nil {
			opts.Recorder = recorder
		}
		msg, err := messenger.New(opts)
		if err != nil {
			return nil, err
		}
		c.messenger = msg
	}
	return c.messenger, nil
}

// Server builds the API server. The transport is opened only when it can
// be, so the API still serves codec endpoints without one.
func (c *Container) Server(ctx context.Context) (*api.Server, error) {
	archive, err := c.Archive()
	if err != nil {
		return nil, err
	}

	var sender api.Sender
	if msg, err := c.Messenger(ctx); err != nil {
		c.logger.Printf("transport unavailable, /api/v1/send disabled: %v", err)
	} else {
		sender = msg
	}

	var gramArchive api.GramArchive
	if archive != nil {
		gramArchive = archive
	}

	cfg := api.ServerConfig{
		Bind:   c.config.API.Bind,
		Port:   c.config.API.Port,
		APIKey: c.config.API.APIKey,
	}
	if cfg.APIKey == "auto" {
		cfg.APIKey = ""
	}
	return api.NewServer(c.Codec(), gramArchive, sender, cfg, c.Metrics()), nil
}

// Close releases every component that was created
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.transport != nil {
		if err := c.transport.Close(); err != nil && !errors.Is(err, transport.ErrClosed) {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
		c.transport = nil
		c.messenger = nil
	}
	if c.archive != nil {
		if err := c.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
		c.archive = nil
	}
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close recording: %w", err))
		}
		c.recorder = nil
	}
	return errors.Join(errs...)
}
