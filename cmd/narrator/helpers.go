package main

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/pkg/adapters/file"
	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/adapters/redis"
	"github.com/aretw0/narrator/pkg/persistence/middleware"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/aretw0/narrator/pkg/settings"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

//go:embed demo.yaml
var demoDocument []byte

func loadDocument(cmd *cobra.Command) (*memory.Tree, error) {
	path, _ := cmd.Flags().GetString("doc")
	var r io.Reader = bytes.NewReader(demoDocument)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open document: %w", err)
		}
		defer f.Close()
		r = f
	}
	tree, err := memory.LoadYAML(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", displayName(path), err)
	}
	return tree, nil
}

func displayName(path string) string {
	if path == "" {
		return "demo"
	}
	return path
}

func loadSettings(cmd *cobra.Command) (settings.Settings, string, error) {
	path, _ := cmd.Flags().GetString("settings")
	s, err := settings.Load(path)
	if err != nil {
		return s, path, err
	}
	return s, path, nil
}

// newLogger builds the logger from the persistent flags. The returned func closes the JSON
// log file, if any.
func newLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	jsonPath, _ := cmd.Flags().GetString("log-json")
	if jsonPath == "" {
		return logging.New(level), func() {}, nil
	}
	f, err := os.OpenFile(jsonPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logging.New(level, logging.WithJSONFile(f)), func() { f.Close() }, nil
}

// addStoreFlags registers the session persistence flags.
func addStoreFlags(fs *pflag.FlagSet, defaultStore string) {
	fs.String("store", defaultStore, "Session store: memory, file or redis")
	fs.String("session-dir", file.DefaultDir, "Directory of the file session store")
	fs.String("redis-addr", "localhost:6379", "Redis address")
	fs.String("redis-password", "", "Redis password")
	fs.Int("redis-db", 0, "Redis database")
	fs.Duration("session-ttl", 24*time.Hour, "Expiry of Redis sessions (0 keeps them)")
	fs.String("encryption-key", os.Getenv("NARRATOR_ENCRYPTION_KEY"), "Base64 AES-256 key sealing stored sessions")
	fs.StringSlice("fallback-keys", nil, "Older base64 keys still accepted when loading sessions")
	fs.StringSlice("redact", nil, "Regexps of document IDs whose reading position is never stored")
}

// openStore builds the session store chosen by the store flags. Redis also provides a
// distributed locker.
func openStore(cmd *cobra.Command) (ports.SessionStore, ports.DistributedLocker, func(), error) {
	mws, err := storeMiddlewares(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	kind, _ := cmd.Flags().GetString("store")
	switch kind {
	case "", "memory":
		return middleware.Chain(memory.NewStore(), mws...), nil, func() {}, nil
	case "file":
		dir, _ := cmd.Flags().GetString("session-dir")
		return middleware.Chain(file.New(filepath.Clean(dir)), mws...), nil, func() {}, nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("session-ttl")
		store := redis.New(addr, password, db, redis.WithTTL(ttl))
		locker := redis.NewLocker(store.Client(), redis.DefaultPrefix)
		return middleware.Chain(store, mws...), locker, func() { store.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown session store %q", kind)
}

// storeMiddlewares builds redaction (outermost) and encryption from the store flags.
func storeMiddlewares(cmd *cobra.Command) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if patterns, _ := cmd.Flags().GetStringSlice("redact"); len(patterns) > 0 {
		mw, err := middleware.NewRedactionMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	encoded, _ := cmd.Flags().GetString("encryption-key")
	if encoded == "" {
		return mws, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: key}
	fallbacks, _ := cmd.Flags().GetStringSlice("fallback-keys")
	for _, f := range fallbacks {
		k, err := base64.StdEncoding.DecodeString(f)
		if err != nil {
			return nil, fmt.Errorf("decode fallback key: %w", err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, k)
	}
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	return append(mws, mw), nil
}

func sessionID(cmd *cobra.Command) string {
	if id, _ := cmd.Flags().GetString("session"); id != "" {
		return id
	}
	return uuid.NewString()
}
