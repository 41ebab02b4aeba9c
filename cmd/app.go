package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/config"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/database"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/logger"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/storage"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/feature/report"
	syncfeature "github.com/TheNetworkGuy/netbox-zabbix-sync/feature/sync"

	"go.uber.org/zap"
)

// application bundles the clients every subcommand needs.
type application struct {
	cfg    *config.Config
	logger *zap.Logger
	netbox *netbox.Client
	zabbix *zabbix.Client
	caps   zabbix.Capabilities
}

// newApplication loads configuration, builds both API clients and probes the
// Zabbix version so capability handling is settled before any sync starts.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	nb, err := netbox.NewClient(cfg.NetBox, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to create netbox client: %w", err)
	}

	zbx, err := zabbix.NewClient(cfg.Zabbix, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to create zabbix client: %w", err)
	}
	version, err := zbx.APIVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to probe zabbix version: %w", err)
	}
	if err := zbx.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("failed to authenticate with zabbix: %w", err)
	}
	caps := zabbix.NewCapabilities(version)
	logg.Info("Connected to Zabbix",
		zap.String("version", version),
		zap.Bool("proxy_groups", caps.SupportsProxyGroups()),
	)

	return &application{
		cfg:    cfg,
		logger: logg,
		netbox: nb,
		zabbix: zbx,
		caps:   caps,
	}, nil
}

// syncService builds the reconciliation service around the shared clients.
func (a *application) syncService(sink syncfeature.ResultSink) *syncfeature.Service {
	return syncfeature.NewService(a.netbox, a.zabbix, a.caps, &a.cfg.Sync, sink, a.logger)
}

// reportService assembles the optional run history components. Both the
// database store and the object storage uploader are independent: either,
// both or neither may be enabled.
func (a *application) reportService(ctx context.Context) (*report.Service, error) {
	var store *report.Store
	if a.cfg.Database.Enabled {
		db, err := database.Connect(a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to run history database: %w", err)
		}
		store = report.NewStore(db)
		if err := store.Migrate(); err != nil {
			return nil, err
		}
	}

	var uploader *report.Uploader
	if a.cfg.Storage.Enabled {
		client, err := storage.NewClient(a.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		uploader = report.NewUploader(client, a.cfg.Storage.Bucket)
		if err := uploader.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}

	retention := time.Duration(a.cfg.Storage.RetentionDays) * 24 * time.Hour
	return report.NewService(store, uploader, retention, a.logger), nil
}
