package cli

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/devilmonastery/shopfeed/internal/client"
	"github.com/devilmonastery/shopfeed/internal/credstore"
)

// openStore returns the credential store configured for a context. The
// returned close func releases backend connections.
func openStore(contextName string, ctx *Context) (credstore.Store, func() error, error) {
	switch ctx.Credentials.Backend {
	case BackendRedis:
		prefix := ctx.Credentials.RedisPrefix
		if prefix == "" {
			prefix = "shopfeed:" + contextName
		}
		rdb := redis.NewClient(&redis.Options{Addr: ctx.Credentials.RedisAddr})
		slog.Debug("using redis credential store",
			slog.String("component", "cli"),
			slog.String("addr", ctx.Credentials.RedisAddr),
			slog.String("prefix", prefix))
		return credstore.NewRedisStore(rdb, prefix), rdb.Close, nil

	case BackendFile, "":
		path, err := credstore.DefaultFilePath(contextName)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("using file credential store",
			slog.String("component", "cli"),
			slog.String("path", path))
		return credstore.NewFileStore(path), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown credential backend %q", ctx.Credentials.Backend)
	}
}

// newClient builds the API client for a context
func newClient(contextName string, ctx *Context, log *slog.Logger) (*client.Client, func() error, error) {
	store, closeStore, err := openStore(contextName, ctx)
	if err != nil {
		return nil, nil, err
	}

	c, err := client.NewClient(client.Options{
		BaseURL:        ctx.Server.URL,
		Store:          store,
		RefreshTimeout: ctx.RefreshTimeout,
		UserAgent:      "shopfeed-cli/1.0",
		Logger:         log,
	})
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return c, closeStore, nil
}
