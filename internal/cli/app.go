package cli

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/config"
	"github.com/llehouerou/folio/internal/db"
	"github.com/llehouerou/folio/internal/downloads"
	"github.com/llehouerou/folio/internal/errmsg"
	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/logging"
	"github.com/llehouerou/folio/internal/progress"
)

// app holds the long-lived dependencies shared by commands.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *sqlx.DB
	store     progress.Interface
	catalog   *catalog.Client
	resolver  *feed.Resolver
	downloads *downloads.Manager
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, failed(errmsg.OpInitialize, "", err)
	}

	logCfg := cfg.GetLogConfig()
	log, err := logging.New(logCfg.Level, logCfg.File)
	if err != nil {
		return nil, failed(errmsg.OpInitialize, "", err)
	}

	dbPath := opts.dbPath
	if dbPath == "" {
		if dbPath, err = db.DefaultPath(); err != nil {
			_ = log.Sync()
			return nil, failed(errmsg.OpInitialize, "", err)
		}
	}
	conn, err := db.Open(ctx, dbPath)
	if err != nil {
		log.Error("open database", zap.String("path", dbPath), zap.Error(err))
		_ = log.Sync()
		return nil, failed(errmsg.OpInitialize, "", err)
	}

	store := progress.New(conn)
	return &app{
		cfg:       cfg,
		log:       log,
		db:        conn,
		store:     store,
		catalog:   catalog.New(cfg.GetCatalogConfig().BaseURL),
		resolver:  feed.NewResolver(nil, log.Named("feed")),
		downloads: downloads.New(afero.NewOsFs(), cfg.DownloadsDir(), store, log.Named("downloads")),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

// book looks up a catalog record, reporting failures in user terms.
func (a *app) book(ctx context.Context, id string) (*catalog.Audiobook, error) {
	b, err := a.catalog.Get(ctx, id)
	if err != nil {
		return nil, failed(errmsg.OpCatalogGet, id, err)
	}
	return b, nil
}

// opError carries the user-facing message of a failed operation while keeping
// the cause inspectable.
type opError struct {
	op      errmsg.Op
	context string
	err     error
}

func failed(op errmsg.Op, context string, err error) error {
	return &opError{op: op, context: context, err: err}
}

func (e *opError) Error() string { return errmsg.FormatWith(e.op, e.context, e.err) }

func (e *opError) Unwrap() error { return e.err }
