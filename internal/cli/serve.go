package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/matzehuels/nodeflow/pkg/server"
	"github.com/matzehuels/nodeflow/pkg/store"
)

const (
	defaultAddr = server.DefaultAddr

	defaultLogMaxSize    = 50 // megabytes
	defaultLogMaxBackups = 3
)

// serveOpts holds the serve command flags.
type serveOpts struct {
	addr      string
	dir       string
	sqlite    string
	mongoURI  string
	mongoDB   string
	redisAddr string
	rate      float64
	burst     int
	noCache   bool
	logFile   string
}

// serveCommand creates the HTTP service command.
func (c *CLI) serveCommand() *cobra.Command {
	var so serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagram definitions, layouts and renders over HTTP",
		Long: `Serve diagram definitions, layouts and renders over HTTP.

Definitions live in a directory (--dir), a SQLite file (--sqlite), MongoDB
(--mongo-uri) or, when none is given, in memory. Rendered artifacts are
cached in Redis when --redis-addr is set and in the local file cache
otherwise.

Routes:
  GET    /healthz
  GET    /diagrams
  POST   /diagrams
  GET    /diagrams/{id}
  PUT    /diagrams/{id}
  DELETE /diagrams/{id}
  GET    /diagrams/{id}/layout
  GET    /diagrams/{id}/render.{svg,png,pdf,dot,json}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyServeConfig(cmd, &so)
			return c.runServe(cmd.Context(), so)
		},
	}

	cmd.Flags().StringVar(&so.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&so.dir, "dir", "", "directory of definition files")
	cmd.Flags().StringVar(&so.sqlite, "sqlite", "", "SQLite database file")
	cmd.Flags().StringVar(&so.mongoURI, "mongo-uri", "", "MongoDB connection string")
	cmd.Flags().StringVar(&so.mongoDB, "mongo-database", store.DefaultMongoDatabase, "MongoDB database")
	cmd.Flags().StringVar(&so.redisAddr, "redis-addr", "", "Redis address for the artifact cache")
	cmd.Flags().Float64Var(&so.rate, "rate", server.DefaultRate, "requests per second (negative disables limiting)")
	cmd.Flags().IntVar(&so.burst, "burst", server.DefaultBurst, "request burst size")
	cmd.Flags().BoolVar(&so.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&so.logFile, "log-file", "", "also write logs to this file, rotated by size")
	cmd.MarkFlagsMutuallyExclusive("dir", "sqlite", "mongo-uri")

	return cmd
}

func (c *CLI) applyServeConfig(cmd *cobra.Command, so *serveOpts) {
	s := c.Config.Serve
	unset := func(name string) bool { return !cmd.Flags().Changed(name) }
	// A store chosen on the command line replaces the configured one.
	storeSet := !unset("dir") || !unset("sqlite") || !unset("mongo-uri")
	if unset("addr") && s.Addr != "" {
		so.addr = s.Addr
	}
	if !storeSet {
		so.dir, so.sqlite, so.mongoURI = s.Dir, s.SQLite, s.MongoURI
	}
	if unset("mongo-database") && s.MongoDB != "" {
		so.mongoDB = s.MongoDB
	}
	if unset("rate") && s.Rate != 0 {
		so.rate = s.Rate
	}
	if unset("burst") && s.Burst > 0 {
		so.burst = s.Burst
	}
	if unset("log-file") && s.LogFile != "" {
		so.logFile = s.LogFile
	}
	if !unset("redis-addr") {
		c.Config.Cache.RedisAddr = so.redisAddr
	}
}

// openStore picks the definition store from the flags.
func (c *CLI) openStore(ctx context.Context, so serveOpts) (store.Store, string, error) {
	set := 0
	for _, v := range []string{so.dir, so.sqlite, so.mongoURI} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, "", errors.New("--dir, --sqlite and --mongo-uri are mutually exclusive")
	}

	switch {
	case so.mongoURI != "":
		s, err := store.NewMongoStore(ctx, store.MongoOptions{URI: so.mongoURI, Database: so.mongoDB})
		if err != nil {
			return nil, "", fmt.Errorf("connect mongodb: %w", err)
		}
		return s, "mongodb " + so.mongoDB, nil
	case so.sqlite != "":
		path := expandHome(so.sqlite)
		s, err := store.NewSQLiteStore(ctx, path)
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite " + path, nil
	case so.dir != "":
		dir := expandHome(so.dir)
		s, err := store.NewDirStore(dir)
		if err != nil {
			return nil, "", err
		}
		return s, dir, nil
	default:
		return store.NewMemoryStore(), "memory", nil
	}
}

// logToFile tees the logger into a size-rotated file. The returned closer
// restores the original output.
func (c *CLI) logToFile(path string) io.Closer {
	maxSize, backups := c.Config.Serve.LogMaxSize, c.Config.Serve.LogMaxBackups
	if maxSize <= 0 {
		maxSize = defaultLogMaxSize
	}
	if backups <= 0 {
		backups = defaultLogMaxBackups
	}
	rotator := &lumberjack.Logger{
		Filename:   expandHome(path),
		MaxSize:    maxSize,
		MaxBackups: backups,
		Compress:   true,
	}
	c.Logger.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return closerFunc(func() error {
		c.Logger.SetOutput(os.Stderr)
		return rotator.Close()
	})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (c *CLI) runServe(ctx context.Context, so serveOpts) error {
	st, where, err := c.openStore(ctx, so)
	if err != nil {
		return err
	}
	defer st.Close()

	if so.logFile != "" {
		defer c.logToFile(so.logFile).Close()
	}

	runner, err := c.newRunner(ctx, so.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(server.Config{
		Addr:   so.addr,
		Store:  st,
		Runner: runner,
		Logger: c.Logger,
		Rate:   so.rate,
		Burst:  so.burst,
	})

	printSuccess("Serving diagrams")
	printKeyValue("address", "http://"+so.addr)
	printKeyValue("store", where)
	if so.rate > 0 {
		printKeyValue("rate limit", fmt.Sprintf("%.0f/s burst %d", so.rate, so.burst))
	}
	if so.logFile != "" {
		printKeyValue("log file", expandHome(so.logFile))
	}
	printNewline()

	return srv.Run(ctx)
}
