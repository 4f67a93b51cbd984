// Package config provides application settings loaded from an optional
// YAML file and environment variables.
//
// Settings are created via Load() or New() which handle:
// - YAML file decoding (unknown keys rejected)
// - Environment variable parsing with validation, overriding the file
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds all application configuration.
type Settings struct {
	LLM       LLMConfig       `yaml:"llm"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Tools     ToolsConfig     `yaml:"tools"`
	Storage   StorageConfig   `yaml:"storage"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Host        string  `yaml:"host"` // Ollama server, empty for OLLAMA_HOST
	Temperature float64 `yaml:"temperature"`
}

// ReasoningConfig holds the reasoning loop limits.
type ReasoningConfig struct {
	ThinkingTokens    int    `yaml:"thinking_tokens"`
	FinalAnswerTokens int    `yaml:"final_answer_tokens"`
	MaxSteps          int    `yaml:"max_steps"`
	Accounting        string `yaml:"accounting"` // reported or budget
}

// ToolsConfig holds tool execution configuration.
type ToolsConfig struct {
	Python      string        `yaml:"python"`
	CodeTimeout time.Duration `yaml:"code_timeout"`
	ExaAPIKey   string        `yaml:"exa_api_key"`
}

// StorageConfig holds the session database location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Defaults.
const (
	DefaultProvider          = "ollama"
	DefaultTemperature       = 0.2
	DefaultThinkingTokens    = 600
	DefaultFinalAnswerTokens = 1200
	DefaultMaxSteps          = 15
	DefaultAccounting        = "reported"
	DefaultPython            = "python3"
	DefaultCodeTimeout       = 5 * time.Second
	DefaultDBPath            = ".llao1/llao1.db"
)

// EnvConfigFile names the YAML file read when Load gets no path.
const EnvConfigFile = "LLAO1_CONFIG"

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"ollama":    {"OLLAMA_MODEL", "llama3.2-vision", ""},
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"local":  "ollama",
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// Defaults returns the settings used when neither a file nor the
// environment sets a value.
func Defaults() Settings {
	return Settings{
		LLM: LLMConfig{
			Provider:    DefaultProvider,
			Temperature: DefaultTemperature,
		},
		Reasoning: ReasoningConfig{
			ThinkingTokens:    DefaultThinkingTokens,
			FinalAnswerTokens: DefaultFinalAnswerTokens,
			MaxSteps:          DefaultMaxSteps,
			Accounting:        DefaultAccounting,
		},
		Tools: ToolsConfig{
			Python:      DefaultPython,
			CodeTimeout: DefaultCodeTimeout,
		},
		Storage: StorageConfig{
			Path: defaultDBPath(),
		},
	}
}

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider selects LLAO1_PROVIDER, then ollama.
func New(provider string) (Settings, error) {
	return Load("", provider)
}

// Load reads the YAML file at path (or $LLAO1_CONFIG when path is empty),
// applies environment overrides and then the explicit provider, if any.
// Without either path no file is read.
func Load(path, provider string) (Settings, error) {
	settings := Defaults()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := settings.readFile(path); err != nil {
			return Settings{}, err
		}
	}

	fileProvider := normalizeProvider(settings.LLM.Provider)
	if err := settings.applyEnv(); err != nil {
		return Settings{}, err
	}
	if provider != "" {
		settings.LLM.Provider = provider
	}
	settings.LLM.Provider = normalizeProvider(settings.LLM.Provider)

	info, err := getProviderInfo(settings.LLM.Provider)
	if err != nil {
		return Settings{}, err
	}

	// a model from the file only belongs to the provider the file names
	if settings.LLM.Provider != fileProvider {
		settings.LLM.Model = ""
	}
	if model := os.Getenv(info.modelEnv); model != "" {
		settings.LLM.Model = model
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = info.defaultModel
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Validate reports the first out-of-range value.
func (s Settings) Validate() error {
	switch {
	case s.Reasoning.ThinkingTokens <= 0:
		return fmt.Errorf("thinking tokens must be positive, got %d", s.Reasoning.ThinkingTokens)
	case s.Reasoning.FinalAnswerTokens <= 0:
		return fmt.Errorf("final answer tokens must be positive, got %d", s.Reasoning.FinalAnswerTokens)
	case s.Reasoning.MaxSteps <= 0:
		return fmt.Errorf("max steps must be positive, got %d", s.Reasoning.MaxSteps)
	case s.LLM.Temperature < 0 || s.LLM.Temperature > 2:
		return fmt.Errorf("temperature must be within [0, 2], got %g", s.LLM.Temperature)
	case s.Tools.CodeTimeout <= 0:
		return fmt.Errorf("code timeout must be positive, got %s", s.Tools.CodeTimeout)
	}
	switch s.Reasoning.Accounting {
	case "budget", "reported":
	default:
		return fmt.Errorf("unknown accounting mode: %q", s.Reasoning.Accounting)
	}
	return nil
}

// APIKey returns the API key for the configured provider.
func (s Settings) APIKey() (string, error) {
	return APIKeyFor(s.LLM.Provider)
}

func (s *Settings) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (s *Settings) applyEnv() error {
	var err error

	setString(&s.LLM.Provider, "LLAO1_PROVIDER")
	setString(&s.LLM.Host, "OLLAMA_HOST")
	setString(&s.Reasoning.Accounting, "LLAO1_ACCOUNTING")
	setString(&s.Tools.Python, "LLAO1_PYTHON")
	setString(&s.Tools.ExaAPIKey, "EXA_API_KEY")
	setString(&s.Storage.Path, "LLAO1_DB")

	if s.LLM.Temperature, err = getEnvFloat64("LLM_TEMPERATURE", s.LLM.Temperature); err != nil {
		return err
	}
	if s.Reasoning.ThinkingTokens, err = getEnvInt("LLAO1_THINKING_TOKENS", s.Reasoning.ThinkingTokens); err != nil {
		return err
	}
	if s.Reasoning.FinalAnswerTokens, err = getEnvInt("LLAO1_FINAL_TOKENS", s.Reasoning.FinalAnswerTokens); err != nil {
		return err
	}
	if s.Reasoning.MaxSteps, err = getEnvInt("LLAO1_MAX_STEPS", s.Reasoning.MaxSteps); err != nil {
		return err
	}
	if s.Tools.CodeTimeout, err = getEnvDuration("LLAO1_CODE_TIMEOUT", s.Tools.CodeTimeout); err != nil {
		return err
	}
	return nil
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if provider == "" {
		return DefaultProvider
	}
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// Providers that need no key return "".
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.apiKeyEnv == "" {
		return "", nil
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDBPath
	}
	return filepath.Join(home, DefaultDBPath)
}

// Environment variable helpers with proper error handling

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
