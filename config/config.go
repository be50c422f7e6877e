package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/angas/nordpool-go/logging"
	"github.com/angas/nordpool-go/nordpool"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	// Nord Pool data portal address, default: https://dataportal-api.nordpoolgroup.com/api
	BaseURL *string `mapstructure:"base_url"`
	// Where responses are saved when a job has save enabled, default: "."
	OutputDir *string `mapstructure:"output_dir"`
}

func (a AppConfigApi) GetBaseURL() string {
	if a.BaseURL == nil || *a.BaseURL == "" {
		return nordpool.BaseURL
	}
	return *a.BaseURL
}

func (a AppConfigApi) GetOutputDir() string {
	if a.OutputDir == nil || *a.OutputDir == "" {
		return "."
	}
	return *a.OutputDir
}

type AppConfigDatabase struct {
	Path string
	// How many days fetched responses are kept before they get purged
	ResponseRetentionDays *int `mapstructure:"response_retention_days"`
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetPath() string {
	if d.Path == "" {
		return "nordpool.db"
	}
	return d.Path
}

func (d AppConfigDatabase) GetResponseRetentionDays() int {
	if d.ResponseRetentionDays == nil {
		return 90
	}
	return *d.ResponseRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigMqtt struct {
	Host     string // Leave empty to disable publishing
	Port     int16
	Username string
	Password string
	ClientId *string `mapstructure:"client_id"`
	// Responses are published to <topic_prefix>/<EndpointName>, default: "nordpool"
	TopicPrefix *string `mapstructure:"topic_prefix"`
	Retain      bool    `mapstructure:"retain"`
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Host != ""
}

func (m AppConfigMqtt) GetPort() int16 {
	if m.Port == 0 {
		return 1883
	}
	return m.Port
}

func (m AppConfigMqtt) GetClientId() string {
	if m.ClientId == nil || *m.ClientId == "" {
		return "nordpool-go"
	}
	return *m.ClientId
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "nordpool"
	}
	return strings.TrimRight(*m.TopicPrefix, "/")
}

// AppConfigJob is a query run on a cron schedule. Only the arguments the
// endpoint uses need to be set.
type AppConfigJob struct {
	Name     string
	Endpoint string
	RunAt    string `mapstructure:"run_at"`
	// Run once right away when the daemon starts
	RunOnStart bool `mapstructure:"run_on_start"`
	// Date expression: "today", "tomorrow", "yesterday", "+N", "-N" or YYYY-MM-DD
	Date string
	// Year expression: "this", "last", "next" or a literal year
	Year            string
	Area            string
	Areas           []string
	Currency        string
	Market          string
	MarketCode      string   `mapstructure:"market_code"`
	ClusterName     string   `mapstructure:"cluster_name"`
	FlowBasedDomain string   `mapstructure:"flow_based_domain"`
	Locations       []string `mapstructure:"locations"`
	Location        string
	// Extra query parameters as "key=value", kept as a list since viper lower cases map keys
	Params []string
	Save   bool
}

func (j AppConfigJob) GetName() string {
	if j.Name == "" {
		return j.Endpoint
	}
	return j.Name
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api      AppConfigApi
	Database AppConfigDatabase
	Mqtt     AppConfigMqtt
	Jobs     []AppConfigJob
	Logging  AppConfigLogging `mapstructure:"logging"`
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}
	return &c, nil
}

func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	return unmarshal(v)
}

// Watch loads the config and calls onChange with a freshly parsed config every
// time the file is written.
func Watch(path string, onChange func(c *AppConfig, e fsnotify.Event, err error)) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	c, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := unmarshal(v)
		onChange(next, e, err)
	})
	v.WatchConfig()

	return c, nil
}
