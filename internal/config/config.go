// Package config assembles the operator's configuration: the
// constructor options named in SPEC_FULL §6's table plus the ambient
// sections (logging, metrics, health) every component in this repo
// needs. Loading follows the teacher's pkg/options convention — one
// struct per concern, each exposing AddFlags/Validate — bound through
// github.com/spf13/viper for file/env/flag precedence.
package config

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/btmesh-io/btmesh-operator/pkg/log"
	"github.com/btmesh-io/btmesh-operator/pkg/mqtt"
)

// IOptions is the contract every options group in this package
// satisfies, mirrored from the teacher's pkg/options pattern.
type IOptions interface {
	Validate() []error
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// OperatorOptions holds the reconciliation-scope options of SPEC_FULL
// §6: application scope, multi-replica group, and sweep interval.
type OperatorOptions struct {
	Application string        `json:"application" mapstructure:"application"`
	GroupID     string        `json:"group-id" mapstructure:"group-id"`
	Interval    time.Duration `json:"interval" mapstructure:"interval"`
}

var _ IOptions = (*OperatorOptions)(nil)

// NewOperatorOptions returns operator-scope defaults.
func NewOperatorOptions() *OperatorOptions {
	return &OperatorOptions{
		Application: "default",
		Interval:    30 * time.Second,
	}
}

func (o *OperatorOptions) Validate() []error {
	var errs []error
	if o.Application == "" {
		errs = append(errs, fmt.Errorf("operator.application must not be empty"))
	}
	if o.Interval <= 0 {
		errs = append(errs, fmt.Errorf("operator.interval must be positive"))
	}
	return errs
}

func (o *OperatorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Application, "operator.application", o.Application, "Application scope for device listing and topic derivation.")
	fs.StringVar(&o.GroupID, "operator.group-id", o.GroupID, "If set, enables a shared (multi-replica) event subscription.")
	fs.DurationVar(&o.Interval, "operator.interval", o.Interval, "Period of the reconcile sweep.")
}

// MqttOptions mirrors the teacher's pkg/options.MqttOptions, trimmed
// to the fields pkg/mqtt.ClientConfig actually uses.
type MqttOptions struct {
	Broker             string        `json:"broker" mapstructure:"broker"`
	Username           string        `json:"username" mapstructure:"username"`
	Password           string        `json:"password" mapstructure:"password"`
	ClientID           string        `json:"client-id" mapstructure:"client-id"`
	KeepAlive          time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout     time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	SessionExpiry      uint32        `json:"session-expiry" mapstructure:"session-expiry"`
	CleanStart         bool          `json:"clean-start" mapstructure:"clean-start"`
	InsecureSkipVerify bool          `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`
}

var _ IOptions = (*MqttOptions)(nil)

// NewMqttOptions returns broker-connection defaults.
func NewMqttOptions() *MqttOptions {
	return &MqttOptions{
		Broker:         "tcp://localhost:1883",
		KeepAlive:      60,
		ConnectTimeout: 5 * time.Second,
		CleanStart:     true,
	}
}

func (o *MqttOptions) Validate() []error {
	if o.Broker == "" {
		return []error{fmt.Errorf("mqtt.broker must not be empty")}
	}
	return nil
}

func (o *MqttOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Broker, "mqtt.broker", o.Broker, "The URL of the MQTT broker.")
	fs.StringVar(&o.Username, "mqtt.username", o.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.Password, "mqtt.password", o.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.ClientID, "mqtt.client-id", o.ClientID, "Explicit client ID (optional, usually generated).")
	fs.DurationVar(&o.ConnectTimeout, "mqtt.connect-timeout", o.ConnectTimeout, "Timeout for establishing the MQTT connection.")
	fs.Uint32Var(&o.SessionExpiry, "mqtt.session-expiry", o.SessionExpiry, "MQTT session expiry interval in seconds.")
	fs.BoolVar(&o.InsecureSkipVerify, "mqtt.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips TLS certificate verification.")
}

// ToClientConfig adapts these options to pkg/mqtt.ClientConfig.
func (o *MqttOptions) ToClientConfig() *mqtt.ClientConfig {
	return &mqtt.ClientConfig{
		BrokerURL:          o.Broker,
		Username:           o.Username,
		Password:           o.Password,
		ClientID:           o.ClientID,
		KeepAlive:          uint16(o.KeepAlive.Seconds()),
		ConnectTimeout:     o.ConnectTimeout,
		SessionExpiry:      o.SessionExpiry,
		CleanStart:         o.CleanStart,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}
}

// RegistryOptions addresses the out-of-scope registry client
// collaborator (§1/§6): just enough connection parameters for a
// concrete transport to dial with.
type RegistryOptions struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	Token    string `json:"token" mapstructure:"token"`
}

var _ IOptions = (*RegistryOptions)(nil)

func NewRegistryOptions() *RegistryOptions {
	return &RegistryOptions{Endpoint: "http://localhost:8080"}
}

func (o *RegistryOptions) Validate() []error {
	if o.Endpoint == "" {
		return []error{fmt.Errorf("registry.endpoint must not be empty")}
	}
	return nil
}

func (o *RegistryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "registry.endpoint", o.Endpoint, "Device registry API endpoint.")
	fs.StringVar(&o.Token, "registry.token", o.Token, "Device registry API auth token.")
}

// ServerOptions is shared by the metrics and health HTTP options
// groups: just a bind address.
type ServerOptions struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

var _ IOptions = (*ServerOptions)(nil)

func (o *ServerOptions) Validate() []error {
	if _, _, err := net.SplitHostPort(o.Addr); err != nil {
		return []error{fmt.Errorf("invalid bind address %q: %w", o.Addr, err)}
	}
	return nil
}

func (o *ServerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	name := "server"
	if len(prefixes) > 0 {
		name = prefixes[0]
	}
	fs.StringVar(&o.Addr, name+".addr", o.Addr, fmt.Sprintf("Bind address for the %s server.", name))
}

// Config is the top-level assembly of every options group.
type Config struct {
	Operator *OperatorOptions `mapstructure:"operator"`
	Mqtt     *MqttOptions     `mapstructure:"mqtt"`
	Registry *RegistryOptions `mapstructure:"registry"`
	Metrics  *ServerOptions   `mapstructure:"metrics"`
	Health   *ServerOptions   `mapstructure:"health"`
	Log      *log.Options     `mapstructure:"log"`
}

// New returns a Config populated with every group's defaults.
func New() *Config {
	return &Config{
		Operator: NewOperatorOptions(),
		Mqtt:     NewMqttOptions(),
		Registry: NewRegistryOptions(),
		Metrics:  &ServerOptions{Addr: "0.0.0.0:9090"},
		Health:   &ServerOptions{Addr: "0.0.0.0:8081"},
		Log:      log.NewOptions(),
	}
}

// AddFlags registers every group's flags on fs.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	c.Operator.AddFlags(fs)
	c.Mqtt.AddFlags(fs)
	c.Registry.AddFlags(fs)
	c.Metrics.AddFlags(fs, "metrics")
	c.Health.AddFlags(fs, "health")
	c.Log.AddFlags(fs)
}

// Validate runs every group's Validate and concatenates the errors.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.Operator.Validate()...)
	errs = append(errs, c.Mqtt.Validate()...)
	errs = append(errs, c.Registry.Validate()...)
	errs = append(errs, c.Metrics.Validate()...)
	errs = append(errs, c.Health.Validate()...)
	return errs
}

// Load resolves a Config already bound to fs via AddFlags (flags must
// already be registered and, by the time Load runs, parsed) against
// environment variables and an optional config file, with viper's
// usual flag > env > file > default precedence.
//
// fs must have had AddFlags called on it exactly once, before the
// owning command parses arguments; Load itself never registers flags,
// since doing so twice on the same FlagSet panics.
func Load(cfg *Config, fs *pflag.FlagSet, configFile string) error {
	_, err := load(cfg, fs, configFile)
	return err
}

func load(cfg *Config, fs *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("BTMESH_OPERATOR")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return v, nil
}

// Reloadable holds the live sweep interval. The other hot-reloaded
// value, the log level, is applied straight to the global logger via
// log.SetLevel and is not stored here. Registry/bus endpoints stay
// fixed after Load, per §10.2.
type Reloadable struct {
	mu       sync.RWMutex
	interval time.Duration
}

// Interval returns the current hot-reloaded sweep interval.
func (r *Reloadable) Interval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.interval
}

func (r *Reloadable) setInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interval = d
}

// LoadAndWatch loads cfg like Load, then — if configFile is non-empty
// — arms a viper file watcher (backed by fsnotify) that re-reads only
// the operator interval and log level on change and applies them
// live. onReloadError, if non-nil, receives errors from a malformed
// reload (the prior values are kept). See Load for the fs precondition.
func LoadAndWatch(cfg *Config, fs *pflag.FlagSet, configFile string, onReloadError func(error)) (*Reloadable, error) {
	v, err := load(cfg, fs, configFile)
	if err != nil {
		return nil, err
	}

	live := &Reloadable{interval: cfg.Operator.Interval}
	if configFile == "" {
		return live, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		reloaded := New()
		if err := v.Unmarshal(reloaded); err != nil {
			if onReloadError != nil {
				onReloadError(fmt.Errorf("reload config: %w", err))
			}
			return
		}
		if errs := reloaded.Operator.Validate(); len(errs) > 0 {
			if onReloadError != nil {
				onReloadError(fmt.Errorf("reload config: invalid operator options: %v", errs))
			}
			return
		}
		live.setInterval(reloaded.Operator.Interval)
		if err := log.SetLevel(reloaded.Log.Level); err != nil && onReloadError != nil {
			onReloadError(fmt.Errorf("reload log level: %w", err))
		}
	})

	return live, nil
}
