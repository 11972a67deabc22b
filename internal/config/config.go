package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage Storage `yaml:"storage"`
	AI      AI      `yaml:"ai"`
	Extract Extract `yaml:"extract"`
	Run     Run     `yaml:"run"`
	Journal Journal `yaml:"journal"`
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
}

type Storage struct {
	Backend             string `yaml:"backend"` // drive | bucket
	SourceFolderID      string `yaml:"source_folder_id"`
	DestinationFolderID string `yaml:"destination_folder_id"`

	Drive struct {
		CredentialsFile string `yaml:"credentials_file"`
		SharedDrives    bool   `yaml:"shared_drives"`
	} `yaml:"drive"`

	Bucket struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"bucket"`
}

type AI struct {
	Provider        string        `yaml:"provider"` // gemini | openai
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	ModelFamily     string        `yaml:"model_family"`
	Temperature     float64       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	PromptFile      string        `yaml:"prompt_file"`
}

type Extract struct {
	PlainTextLimit int    `yaml:"plain_text_limit"`
	DocumentLimit  int    `yaml:"document_limit"`
	TempPrefix     string `yaml:"temp_prefix"`
	RedactSecrets  bool   `yaml:"redact_secrets"`
}

type Run struct {
	Delay       time.Duration `yaml:"delay"`
	MaxDuration time.Duration `yaml:"max_duration"`
	MaxFiles    int           `yaml:"max_files"`
	DryRun      bool          `yaml:"dry_run"`
}

// Journal is the optional audit database. Driver "" disables it.
type Journal struct {
	Driver   string `yaml:"driver"` // sqlite | mysql | postgres
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type Server struct {
	Port        int      `yaml:"port"`
	APIKeys     []string `yaml:"api_keys"`
	RateLimit   float64  `yaml:"rate_limit"` // requests per second per key
	RateBurst   int      `yaml:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// Load baca file config.yaml, expand ${VAR}, isi default, validasi
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "drive"
	}
	// organize in place unless told otherwise
	if c.Storage.DestinationFolderID == "" {
		c.Storage.DestinationFolderID = c.Storage.SourceFolderID
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.ModelFamily == "" && c.AI.Provider == "gemini" {
		c.AI.ModelFamily = "gemini"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.2
	}
	if c.AI.MaxOutputTokens == 0 {
		c.AI.MaxOutputTokens = 1024
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Extract.PlainTextLimit == 0 {
		c.Extract.PlainTextLimit = 15000
	}
	if c.Extract.DocumentLimit == 0 {
		c.Extract.DocumentLimit = 30000
	}
	if c.Extract.TempPrefix == "" {
		c.Extract.TempPrefix = "[organizer-ocr] "
	}
	if c.Run.Delay == 0 {
		c.Run.Delay = 5 * time.Second
	}
	if c.Journal.Driver == "sqlite" && c.Journal.Path == "" {
		c.Journal.Path = "data/journal.db"
	}
	if c.Journal.Port == 0 {
		switch c.Journal.Driver {
		case "mysql":
			c.Journal.Port = 3306
		case "postgres":
			c.Journal.Port = 5432
		}
	}
	// unset ${VAR} entries expand to ""
	c.Server.APIKeys = slices.DeleteFunc(c.Server.APIKeys, func(k string) bool {
		return strings.TrimSpace(k) == ""
	})
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 5
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate names the offending key in every error.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case "drive":
	case "bucket":
		if c.Storage.Bucket.Endpoint == "" {
			errs = append(errs, errors.New("storage.bucket.endpoint is required for the bucket backend"))
		}
		if c.Storage.Bucket.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket.bucket is required for the bucket backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	// bucket root "" is a valid folder, a Drive folder id is not
	if c.Storage.Backend == "drive" && c.Storage.SourceFolderID == "" {
		errs = append(errs, errors.New("storage.source_folder_id is required"))
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unknown provider %q", c.AI.Provider))
	}
	if c.AI.APIKey == "" {
		errs = append(errs, errors.New("ai.api_key is required"))
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("ai.temperature must be within [0, 2], got %v", c.AI.Temperature))
	}
	if c.AI.MaxOutputTokens < 0 {
		errs = append(errs, errors.New("ai.max_output_tokens must not be negative"))
	}

	if c.Extract.PlainTextLimit < 0 || c.Extract.DocumentLimit < 0 {
		errs = append(errs, errors.New("extract limits must not be negative"))
	}
	if c.Run.Delay < 0 {
		errs = append(errs, errors.New("run.delay must not be negative"))
	}
	if c.Run.MaxDuration < 0 {
		errs = append(errs, errors.New("run.max_duration must not be negative"))
	}
	if c.Run.MaxFiles < 0 {
		errs = append(errs, errors.New("run.max_files must not be negative"))
	}

	switch c.Journal.Driver {
	case "", "sqlite":
	case "mysql", "postgres":
		if c.Journal.Host == "" || c.Journal.Name == "" {
			errs = append(errs, fmt.Errorf("journal.host and journal.name are required for driver %q", c.Journal.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("journal.driver: unknown driver %q", c.Journal.Driver))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// DSN builds the driver-specific connection string for the journal.
func (j Journal) DSN() string {
	switch j.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			j.User,
			j.Password,
			j.Host,
			j.Port,
			j.Name,
		)
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(j.User, j.Password),
			Host:   fmt.Sprintf("%s:%d", j.Host, j.Port),
			Path:   "/" + j.Name,
		}
		mode := j.SSLMode
		if mode == "" {
			mode = "disable"
		}
		u.RawQuery = "sslmode=" + url.QueryEscape(mode)
		return u.String()
	default:
		return j.Path
	}
}
