// Package config implements the startup configuration loader (C6):
// resolving the four required values (root dir, coordinator host, port,
// password) and the optional tunables (bind address, endpoint paths,
// lease TTL, retry budget) from, in descending precedence, an explicit
// CLI flag, a positional CLI argument, an environment variable, a
// process property file, and finally a built-in default for the
// optional values only.
//
// Grounded on the teacher's command-registration idiom (cobra.Command
// with a Flags().StringP(...) block, see backend/torrent/cmd/backend.go)
// for how flags are declared; this package itself is transport-agnostic
// so it can be unit tested without invoking cobra at all — cmd/fosd
// wires the parsed flags and os.Args into a Source and calls Load.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Source is every external input the loader consults, factored out so
// tests can supply fakes instead of real argv/env/files.
type Source struct {
	// Args holds the four positional CLI arguments in spec.md §6's
	// order: root dir, redis host, redis port, redis password. A
	// missing index is treated as not supplied.
	Args []string
	// Flags holds explicit named-flag overrides, keyed by the flag
	// name without its leading "--" (e.g. "root-dir").
	Flags map[string]string
	// Getenv defaults to os.Getenv; overridable for tests.
	Getenv func(string) string
	// PropertiesPath is the path named by FOS_PROPERTIES, already
	// resolved by the caller (empty means no property file).
	PropertiesPath string
}

// Config is the resolved, validated startup configuration (SPEC_FULL.md
// §3's Config addition to the data model).
type Config struct {
	RootDir       string
	RedisHost     string
	RedisPort     int
	RedisPassword string

	BindAddr     string
	RPCPath      string
	HealthPath   string
	MetricsPath  string
	MaxBodyBytes int64
	LeaseTTL     time.Duration
	MaxAttempts  int
	RetryBase    time.Duration
}

const (
	defaultBindAddr     = ":8080"
	defaultRPCPath      = "/fos"
	defaultHealthPath   = "/health"
	defaultMetricsPath  = "/metrics"
	defaultMaxBodyBytes = 32 << 20
	defaultLeaseTTL     = 30 * time.Second
	defaultMaxAttempts  = 3
	defaultRetryBase    = 1 * time.Second
)

// Load resolves a Config from src, or a descriptive error naming the
// first missing or invalid required value, per spec.md §6: "If any
// required value is missing or invalid, the process fails to start
// with a descriptive message."
func Load(src Source) (*Config, error) {
	if src.Getenv == nil {
		src.Getenv = os.Getenv
	}
	props, err := loadProperties(src.PropertiesPath)
	if err != nil {
		return nil, fmt.Errorf("reading property file %q: %w", src.PropertiesPath, err)
	}
	r := resolver{src: src, props: props}

	rootDir, err := r.required("root-dir", 0, "FOS_ROOT_DIR", "fos.root.dir")
	if err != nil {
		return nil, err
	}
	info, statErr := os.Stat(rootDir)
	if statErr != nil {
		return nil, fmt.Errorf("root dir %q: %w", rootDir, statErr)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root dir %q is not a directory", rootDir)
	}
	absRoot, err := absPath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("root dir %q: %w", rootDir, err)
	}

	redisHost, err := r.required("redis-host", 1, "FOS_REDIS_HOST", "fos.redis.host")
	if err != nil {
		return nil, err
	}

	redisPortStr, err := r.required("redis-port", 2, "FOS_REDIS_PORT", "fos.redis.port")
	if err != nil {
		return nil, err
	}
	redisPort, err := strconv.Atoi(redisPortStr)
	if err != nil || redisPort < 1 || redisPort > 65535 {
		return nil, fmt.Errorf("redis port %q must be an integer between 1 and 65535", redisPortStr)
	}

	redisPassword, err := r.required("redis-password", 3, "FOS_REDIS_PASSWORD", "fos.redis.password")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RootDir:       absRoot,
		RedisHost:     redisHost,
		RedisPort:     redisPort,
		RedisPassword: redisPassword,

		BindAddr:     r.optional("bind-addr", "FOS_BIND_ADDR", "fos.bind.addr", defaultBindAddr),
		RPCPath:      r.optional("rpc-path", "FOS_RPC_PATH", "fos.rpc.path", defaultRPCPath),
		HealthPath:   r.optional("health-path", "FOS_HEALTH_PATH", "fos.health.path", defaultHealthPath),
		MetricsPath:  r.optional("metrics-path", "FOS_METRICS_PATH", "fos.metrics.path", defaultMetricsPath),
		MaxBodyBytes: defaultMaxBodyBytes,
		LeaseTTL:     defaultLeaseTTL,
		MaxAttempts:  defaultMaxAttempts,
		RetryBase:    defaultRetryBase,
	}

	if v := r.optional("max-body-bytes", "FOS_MAX_BODY_BYTES", "fos.max.body.bytes", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("max body bytes %q must be a positive integer", v)
		}
		cfg.MaxBodyBytes = n
	}
	if v := r.optional("lease-ttl", "FOS_LEASE_TTL", "fos.lease.ttl", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("lease ttl %q must be a positive duration", v)
		}
		cfg.LeaseTTL = d
	}
	if v := r.optional("retry-base", "FOS_RETRY_BASE", "fos.retry.base", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("retry base %q must be a positive duration", v)
		}
		cfg.RetryBase = d
	}
	if v := r.optional("max-attempts", "FOS_MAX_ATTEMPTS", "fos.max.attempts", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("max attempts %q must be a positive integer", v)
		}
		cfg.MaxAttempts = n
	}

	return cfg, nil
}

// resolver implements the shared precedence chain: flag > positional
// arg > environment variable > property file > (optional only) default.
type resolver struct {
	src   Source
	props map[string]string
}

func (r resolver) lookup(flagName string, argIndex int, envVar, propKey string) (string, bool) {
	if v, ok := r.src.Flags[flagName]; ok && v != "" {
		return v, true
	}
	if argIndex >= 0 && argIndex < len(r.src.Args) && r.src.Args[argIndex] != "" {
		return r.src.Args[argIndex], true
	}
	if v := r.src.Getenv(envVar); v != "" {
		return v, true
	}
	if v, ok := r.props[propKey]; ok && v != "" {
		return v, true
	}
	return "", false
}

func (r resolver) required(flagName string, argIndex int, envVar, propKey string) (string, error) {
	v, ok := r.lookup(flagName, argIndex, envVar, propKey)
	if !ok {
		return "", fmt.Errorf("missing required configuration value: set --%s, positional arg %d, %s, or %q in the property file",
			flagName, argIndex, envVar, propKey)
	}
	return v, nil
}

func (r resolver) optional(flagName string, envVar, propKey, def string) string {
	v, ok := r.lookup(flagName, -1, envVar, propKey)
	if !ok {
		return def
	}
	return v
}

// absPath resolves rootDir to an absolute, cleaned path so that every
// downstream fspath.Resolve call compares against a stable root string.
func absPath(rootDir string) (string, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// loadProperties parses a flat `key=value` file, one assignment per
// line, blank lines and lines starting with "#" ignored. Returns an
// empty map (not an error) when path is "".
func loadProperties(path string) (map[string]string, error) {
	props := map[string]string{}
	if path == "" {
		return props, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, fmt.Errorf("malformed property line %q: expected key=value", line)
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		props[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}
