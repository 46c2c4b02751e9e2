// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/storage"
	"github.com/jeranaias/helpie/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete helpie configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Chat       ChatConfig       `toml:"chat" json:"chat"`
	Groq       GroqConfig       `toml:"groq" json:"groq"`
	Azure      AzureConfig      `toml:"azure" json:"azure"`
	OpenRouter OpenRouterConfig `toml:"openrouter" json:"openrouter"`
	Ollama     OllamaConfig     `toml:"ollama" json:"ollama"`
	Server     ServerConfig     `toml:"server" json:"server"`
	Tickets    TicketsConfig    `toml:"tickets" json:"tickets"`
}

// ChatConfig controls how a chat turn is generated.
type ChatConfig struct {
	// Providers is the fallback order: groq, azure, openrouter, ollama
	Providers []string `toml:"providers" json:"providers"`
	// Window is how many prior turns are sent with each message
	Window int `toml:"window" json:"window"`
	// MaxTokens caps each reply
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
	// Temperature for sampling
	Temperature float64 `toml:"temperature" json:"temperature"`
	// TimeoutSecs bounds each provider call
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// GroqConfig holds the primary provider settings.
type GroqConfig struct {
	APIKey string `toml:"api_key" json:"api_key"`
	Model  string `toml:"model" json:"model"`
}

// AzureConfig holds the Azure OpenAI settings. All three of endpoint, key
// and deployment are needed before Azure is considered configured.
type AzureConfig struct {
	Endpoint   string `toml:"endpoint" json:"endpoint"`
	APIKey     string `toml:"api_key" json:"api_key"`
	Deployment string `toml:"deployment" json:"deployment"`
	APIVersion string `toml:"api_version" json:"api_version"`
}

// OpenRouterConfig holds the tertiary provider settings.
type OpenRouterConfig struct {
	APIKey string `toml:"api_key" json:"api_key"`
	Model  string `toml:"model" json:"model"`
}

// OllamaConfig holds the local provider settings. Ollama is only used when
// listed in chat.providers.
type OllamaConfig struct {
	URL   string `toml:"url" json:"url"`
	Model string `toml:"model" json:"model"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port" json:"port"`
	// SessionIdleMins drops chat sessions after this much inactivity
	SessionIdleMins int `toml:"session_idle_mins" json:"session_idle_mins"`
	// MaxSessions caps live chat sessions
	MaxSessions int `toml:"max_sessions" json:"max_sessions"`
	// RateLimit is requests per minute per client IP (0 = unlimited)
	RateLimit int `toml:"rate_limit" json:"rate_limit"`
}

// TicketsConfig selects the ticket storage backend.
type TicketsConfig struct {
	// Backend is "json" or "sqlite"
	Backend string `toml:"backend" json:"backend"`
	Path    string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Chat: ChatConfig{
			Providers:   []string{"groq", "azure", "openrouter"},
			Window:      15,
			MaxTokens:   cloud.DefaultMaxTokens,
			Temperature: cloud.DefaultTemperature,
			TimeoutSecs: int(cloud.DefaultTimeout / time.Second),
		},

		Groq: GroqConfig{
			Model: cloud.DefaultGroqModel,
		},

		Azure: AzureConfig{
			APIVersion: cloud.DefaultAzureAPIVersion,
		},

		OpenRouter: OpenRouterConfig{
			Model: cloud.DefaultOpenRouterModel,
		},

		Ollama: OllamaConfig{
			URL: "http://127.0.0.1:11434",
		},

		Server: ServerConfig{
			Port:            5000,
			SessionIdleMins: 120,
			MaxSessions:     10000,
			RateLimit:       120,
		},

		Tickets: TicketsConfig{
			Backend: string(storage.BackendJSON),
			Path:    storage.DefaultTicketsPath,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the helpie configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".helpie"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions narrows config files holding API keys to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.helpie/config.toml when present, then .env and the
// environment. A missing config file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file with full validation.
// Files ending in .json are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

// ReadFile decodes path over the defaults. Unlike LoadFromPath it ignores
// .env and the environment and does not validate.
func ReadFile(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config from %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config from %s: %w", path, err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config from %s: %w", path, err)
	}
	return cfg, nil
}

// finish applies .env and environment overrides, fills zero values and
// validates.
func finish(cfg *Config) (*Config, error) {
	LoadDotEnv(".env")
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv exports the variables in path that are not already set. A
// missing file is ignored.
func LoadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", path, err)
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if len(c.Chat.Providers) == 0 {
		c.Chat.Providers = d.Chat.Providers
	}
	if c.Chat.Window == 0 {
		c.Chat.Window = d.Chat.Window
	}
	if c.Chat.MaxTokens == 0 {
		c.Chat.MaxTokens = d.Chat.MaxTokens
	}
	if c.Chat.TimeoutSecs == 0 {
		c.Chat.TimeoutSecs = d.Chat.TimeoutSecs
	}
	if c.Groq.Model == "" {
		c.Groq.Model = d.Groq.Model
	}
	if c.Azure.APIVersion == "" {
		c.Azure.APIVersion = d.Azure.APIVersion
	}
	if c.OpenRouter.Model == "" {
		c.OpenRouter.Model = d.OpenRouter.Model
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.SessionIdleMins == 0 {
		c.Server.SessionIdleMins = d.Server.SessionIdleMins
	}
	if c.Server.MaxSessions == 0 {
		c.Server.MaxSessions = d.Server.MaxSessions
	}
	if c.Tickets.Backend == "" {
		c.Tickets.Backend = d.Tickets.Backend
	}
	if c.Tickets.Path == "" {
		if strings.EqualFold(c.Tickets.Backend, string(storage.BackendSQLite)) {
			c.Tickets.Path = storage.DefaultTicketsDBPath
		} else {
			c.Tickets.Path = d.Tickets.Path
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to ~/.helpie/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# helpie configuration file\n")
	b.WriteString("# API keys may also come from the environment or a .env file.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors listing
// every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if len(c.Chat.Providers) == 0 {
		errs = append(errs, ValidationError{Field: "chat.providers", Message: "at least one provider is required"})
	}
	seen := make(map[string]bool)
	for _, p := range c.Chat.Providers {
		if _, err := cloud.ParseProviderID(p); err != nil {
			errs = append(errs, ValidationError{Field: "chat.providers", Message: err.Error()})
			continue
		}
		key := strings.ToLower(strings.TrimSpace(p))
		if seen[key] {
			errs = append(errs, ValidationError{Field: "chat.providers", Message: fmt.Sprintf("duplicate provider '%s'", p)})
		}
		seen[key] = true
	}

	if c.Chat.Window <= 0 {
		errs = append(errs, ValidationError{Field: "chat.window", Message: "must be positive"})
	}
	if c.Chat.MaxTokens <= 0 {
		errs = append(errs, ValidationError{Field: "chat.max_tokens", Message: "must be positive"})
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "chat.temperature", Message: "must be between 0 and 2"})
	}
	if c.Chat.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "chat.timeout_secs", Message: "must be positive"})
	}

	for field, raw := range map[string]string{"azure.endpoint": c.Azure.Endpoint, "ollama.url": c.Ollama.URL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid URL '%s'", raw)})
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{Field: "server.port", Message: fmt.Sprintf("port %d out of range 1-65535", c.Server.Port)})
	}
	if c.Server.SessionIdleMins < 0 {
		errs = append(errs, ValidationError{Field: "server.session_idle_mins", Message: "cannot be negative"})
	}
	if c.Server.MaxSessions < 0 {
		errs = append(errs, ValidationError{Field: "server.max_sessions", Message: "cannot be negative"})
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "cannot be negative"})
	}

	if _, err := storage.ParseBackend(c.Tickets.Backend); err != nil {
		errs = append(errs, ValidationError{Field: "tickets.backend", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - GROQ_API_KEY, GROQ_MODEL
//   - AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY, AZURE_OPENAI_DEPLOYMENT,
//     AZURE_OPENAI_API_VERSION
//   - OPENROUTER_API_KEY, OPENROUTER_MODEL
//   - OLLAMA_URL, OLLAMA_MODEL
//   - MAX_TOKENS, PORT
//   - HELPIE_PROVIDERS (comma separated), HELPIE_TICKETS_PATH,
//     HELPIE_TICKETS_BACKEND
//
// Malformed numbers are ignored and leave the current value.
func (c *Config) ApplyEnvOverrides() {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString(&c.Groq.APIKey, "GROQ_API_KEY")
	setString(&c.Groq.Model, "GROQ_MODEL")

	setString(&c.Azure.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&c.Azure.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&c.Azure.Deployment, "AZURE_OPENAI_DEPLOYMENT")
	setString(&c.Azure.APIVersion, "AZURE_OPENAI_API_VERSION")

	setString(&c.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setString(&c.OpenRouter.Model, "OPENROUTER_MODEL")

	setString(&c.Ollama.URL, "OLLAMA_URL")
	setString(&c.Ollama.Model, "OLLAMA_MODEL")

	setInt(&c.Chat.MaxTokens, "MAX_TOKENS")
	setInt(&c.Server.Port, "PORT")

	if v := strings.TrimSpace(os.Getenv("HELPIE_PROVIDERS")); v != "" {
		var ids []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ids = append(ids, p)
			}
		}
		c.Chat.Providers = ids
	}
	setString(&c.Tickets.Path, "HELPIE_TICKETS_PATH")
	setString(&c.Tickets.Backend, "HELPIE_TICKETS_BACKEND")
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Preference parses the provider list into provider ids.
func (c ChatConfig) Preference() ([]cloud.ProviderID, error) {
	ids := make([]cloud.ProviderID, 0, len(c.Providers))
	for _, p := range c.Providers {
		id, err := cloud.ParseProviderID(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Timeout returns the per-call provider timeout.
func (c ChatConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SessionIdle returns the chat session idle timeout.
func (s ServerConfig) SessionIdle() time.Duration {
	return time.Duration(s.SessionIdleMins) * time.Minute
}

// Addr returns the listen address for the port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// AzureSettings converts the Azure section for the cloud client.
func (a AzureConfig) AzureSettings() cloud.AzureSettings {
	return cloud.AzureSettings{
		Endpoint:   a.Endpoint,
		APIKey:     a.APIKey,
		Deployment: a.Deployment,
		APIVersion: a.APIVersion,
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.window").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type; list fields take comma separated values.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct by toml tag.
func (c *Config) lookup(key string) (reflect.Value, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, strings.ToLower(part))
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		section := f.Tag.Get("toml")
		if f.Type.Kind() != reflect.Struct {
			keys = append(keys, section)
			continue
		}
		for j := 0; j < f.Type.NumField(); j++ {
			keys = append(keys, section+"."+f.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Chat.Providers != nil {
		clone.Chat.Providers = append([]string(nil), c.Chat.Providers...)
	}
	return &clone
}

// Redacted returns a copy with API keys masked.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	for _, key := range []*string{&safe.Groq.APIKey, &safe.Azure.APIKey, &safe.OpenRouter.APIKey} {
		*key = cloud.MaskKey(*key)
	}
	return safe
}

// String returns the config as JSON with API keys masked.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}
