package config

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/gametype"
	"github.com/vango-dev/gamewire/pkg/metrics"
	"github.com/vango-dev/gamewire/pkg/packet"
	"github.com/vango-dev/gamewire/pkg/transport"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "gamewire.json"

	DefaultProtocolVersion = 1
	DefaultListen          = ":8080"
	DefaultLogLevel        = "info"
	DefaultMetricsPath     = "/metrics"
	DefaultReadTimeout     = "60s"
	DefaultWriteTimeout    = "10s"
)

// Config is the contents of gamewire.json.
type Config struct {
	// ProtocolVersion selects the built-in type table and the version
	// written into packet headers.
	ProtocolVersion int `json:"protocolVersion,omitempty"`

	// TypesFile is an optional YAML type definition file that replaces the
	// built-in table. Relative paths resolve against the config directory.
	TypesFile string `json:"typesFile,omitempty"`

	// Listen is the address the serve command binds to.
	Listen string `json:"listen,omitempty"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty"`

	Packet    PacketConfig    `json:"packet,omitempty"`
	Transport TransportConfig `json:"transport,omitempty"`
	Metrics   MetricsConfig   `json:"metrics,omitempty"`
	Capture   CaptureConfig   `json:"capture,omitempty"`

	configPath string
}

// PacketConfig configures packet framing.
type PacketConfig struct {
	// Compress enables brotli compression of large payloads.
	Compress bool `json:"compress,omitempty"`

	// CompressThreshold is the smallest payload that gets compressed.
	CompressThreshold int `json:"compressThreshold,omitempty"`

	// MaxPayload caps the payload size in bytes.
	MaxPayload int `json:"maxPayload,omitempty"`
}

// TransportConfig configures WebSocket connections.
type TransportConfig struct {
	// ReadTimeout is a duration string such as "60s".
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout is a duration string such as "10s".
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// MaxMessageSize is the largest WebSocket message accepted, in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
}

// CaptureConfig configures packet capture storage. S3Bucket takes
// precedence over Dir.
type CaptureConfig struct {
	Dir      string `json:"dir,omitempty"`
	S3Bucket string `json:"s3Bucket,omitempty"`
	S3Prefix string `json:"s3Prefix,omitempty"`
	S3Region string `json:"s3Region,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		ProtocolVersion: DefaultProtocolVersion,
		Listen:          DefaultListen,
		LogLevel:        DefaultLogLevel,
		Packet: PacketConfig{
			CompressThreshold: packet.DefaultCompressThreshold,
			MaxPayload:        packet.MaxPayloadSize,
		},
		Transport: TransportConfig{
			ReadTimeout:    DefaultReadTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			MaxMessageSize: packet.MaxPayloadSize + packet.HeaderSize,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "gamewire",
			Path:      DefaultMetricsPath,
		},
	}
}

// Load reads gamewire.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W060").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Pass --config or run without a config file to use defaults")
		}
		return nil, errors.New("W061").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		e := errors.New("W061").
			WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON").
			Wrap(err)
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syn):
			e.WithOffset(path, data, syn.Offset)
		case stderrors.As(err, &typ):
			e.WithOffset(path, data, typ.Offset)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("W061").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("W061").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = DefaultProtocolVersion
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Packet.CompressThreshold == 0 {
		c.Packet.CompressThreshold = packet.DefaultCompressThreshold
	}
	if c.Packet.MaxPayload == 0 {
		c.Packet.MaxPayload = packet.MaxPayloadSize
	}
	if c.Transport.ReadTimeout == "" {
		c.Transport.ReadTimeout = DefaultReadTimeout
	}
	if c.Transport.WriteTimeout == "" {
		c.Transport.WriteTimeout = DefaultWriteTimeout
	}
	if c.Transport.MaxMessageSize == 0 {
		c.Transport.MaxMessageSize = int64(c.Packet.MaxPayload) + packet.HeaderSize
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "gamewire"
	}
}

func invalid(field, detail string) *errors.Error {
	return errors.New("W062").WithDetail(field + ": " + detail)
}

// Validate checks field ranges. It does not load the types file.
func (c *Config) Validate() error {
	if c.ProtocolVersion < 1 || c.ProtocolVersion > 255 {
		return invalid("protocolVersion", "must be between 1 and 255")
	}
	if c.TypesFile == "" && !containsInt(gametype.Versions(), c.ProtocolVersion) {
		return invalid("protocolVersion", fmt.Sprintf("no built-in type table for version %d", c.ProtocolVersion)).
			WithSuggestion(fmt.Sprintf("Use one of %v or set typesFile", gametype.Versions()))
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid("logLevel", err.Error()).
			WithSuggestion("Use debug, info, warn or error")
	}
	if c.Packet.MaxPayload < 1 || c.Packet.MaxPayload > packet.MaxPayloadSize {
		return invalid("packet.maxPayload", fmt.Sprintf("must be between 1 and %d", packet.MaxPayloadSize))
	}
	if c.Packet.CompressThreshold < 0 {
		return invalid("packet.compressThreshold", "must not be negative")
	}
	for _, f := range []struct{ name, value string }{
		{"readTimeout", c.Transport.ReadTimeout},
		{"writeTimeout", c.Transport.WriteTimeout},
	} {
		d, err := time.ParseDuration(f.value)
		if err != nil || d <= 0 {
			return invalid("transport."+f.name, fmt.Sprintf("%q is not a positive duration", f.value)).
				WithExample(`"` + f.name + `": "30s"`)
		}
	}
	if need := int64(c.Packet.MaxPayload) + packet.HeaderSize; c.Transport.MaxMessageSize < need {
		return invalid("transport.maxMessageSize", fmt.Sprintf("must be at least %d to fit a full packet", need))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "must start with /")
	}
	if c.Capture.S3Bucket != "" && c.Capture.S3Region == "" {
		return invalid("capture.s3Region", "required when s3Bucket is set")
	}
	return nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Listen
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// resolve makes path relative to the config directory.
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Types returns the game type table: TypesFile when set, otherwise the
// built-in table for ProtocolVersion.
func (c *Config) Types() (*gametype.Set, error) {
	if c.TypesFile == "" {
		set, err := gametype.Load(c.ProtocolVersion)
		if err != nil {
			return nil, errors.FromWire(err)
		}
		return set, nil
	}
	path := c.resolve(c.TypesFile)
	set, err := gametype.LoadFile(path)
	if err != nil {
		return nil, errors.New("W063").
			WithDetail("Failed to load " + path).
			Wrap(err)
	}
	if set.Version() != c.ProtocolVersion {
		return nil, errors.New("W063").
			WithDetail(fmt.Sprintf("%s defines version %d but protocolVersion is %d", path, set.Version(), c.ProtocolVersion)).
			WithSuggestion("Make protocolVersion match the version in the types file")
	}
	return set, nil
}

// CodecOptions returns the packet codec options for the configured packet
// settings. Observer and tracer options are left to the caller.
func (c *Config) CodecOptions(types *gametype.Set) []packet.Option {
	opts := []packet.Option{
		packet.WithTypes(types),
		packet.WithMaxPayload(c.Packet.MaxPayload),
	}
	if c.Packet.Compress {
		opts = append(opts, packet.WithCompression(c.Packet.CompressThreshold))
	}
	return opts
}

// TransportConfig converts the transport section. Call Validate first.
func (c *Config) TransportConfig() *transport.Config {
	tc := transport.DefaultConfig()
	if d, err := time.ParseDuration(c.Transport.ReadTimeout); err == nil {
		tc.ReadTimeout = d
	}
	if d, err := time.ParseDuration(c.Transport.WriteTimeout); err == nil {
		tc.WriteTimeout = d
	}
	if c.Transport.MaxMessageSize > 0 {
		tc.MaxMessageSize = c.Transport.MaxMessageSize
	}
	return tc
}

// MetricsOptions returns the collector options for the metrics section.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{metrics.WithNamespace(c.Metrics.Namespace)}
}

// CaptureStore opens the configured capture store. It returns nil when no
// store is configured.
func (c *Config) CaptureStore(ctx context.Context) (capture.Store, error) {
	switch {
	case c.Capture.S3Bucket != "":
		client, err := capture.NewS3Client(ctx, c.Capture.S3Region)
		if err != nil {
			return nil, errors.New("W082").Wrap(err)
		}
		return capture.NewS3Store(client, c.Capture.S3Bucket, c.Capture.S3Prefix), nil
	case c.Capture.Dir != "":
		s, err := capture.NewDirStore(c.resolve(c.Capture.Dir))
		if err != nil {
			return nil, errors.New("W082").Wrap(err)
		}
		return s, nil
	default:
		return nil, nil
	}
}

// Exists reports whether dir holds a config file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindRoot walks up from startDir to the first directory holding a
// config file.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("W060").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// Resolve loads the config at path, or searches upward from the working
// directory when path is empty. With no file found it returns defaults.
func Resolve(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindRoot(wd)
	if err != nil {
		slog.Default().DebugContext(ctx, "no config file found, using defaults", "component", "config", "dir", wd)
		return New(), nil
	}
	return Load(root)
}
