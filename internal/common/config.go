package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is loaded from the working directory when no --config is given
const DefaultConfigFile = "cbredeem.toml"

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Storage StorageConfig `toml:"storage"`
	Browser BrowserConfig `toml:"browser"`
	Augment AugmentConfig `toml:"augment"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"` // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                      // default "15:04:05"
	Dir        string   `toml:"dir"`                                              // log and crash file directory
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup
}

// BrowserConfig controls the headless Chrome session used to render pages.
// Durations are Go duration strings ("3s", "500ms").
type BrowserConfig struct {
	Headless          bool   `toml:"headless"`
	NoSandbox         bool   `toml:"no_sandbox"`
	ChromePath        string `toml:"chrome_path"` // empty = let chromedp locate Chrome
	UserAgent         string `toml:"user_agent" validate:"required"`
	PageSettle        string `toml:"page_settle" validate:"duration"`        // fixed wait after navigation
	TabSettle         string `toml:"tab_settle" validate:"duration"`         // wait after the announcements tab click
	RequestTimeout    string `toml:"request_timeout" validate:"duration"`    // upper bound for one page fetch
	WaitReadySelector string `toml:"wait_ready_selector"`                    // optional readiness selector before the settle wait
	AnnouncementsTab  string `toml:"announcements_tab"`                      // element clicked to reveal announcements
	DetailURLTemplate string `toml:"detail_url_template" validate:"required,contains=%s"`
	LoginURL          string `toml:"login_url" validate:"required,url"`
	LoginWait         string `toml:"login_wait" validate:"duration"`
	DelistedURL       string `toml:"delisted_url" validate:"required,url"`
	DelistedSettle    string `toml:"delisted_settle" validate:"duration"`
}

// AugmentConfig names the instrument table columns and the row filter
type AugmentConfig struct {
	CodeColumn      string `toml:"code_column" validate:"required"`
	NameColumn      string `toml:"name_column" validate:"required"`
	ReasonColumn    string `toml:"reason_column" validate:"required"`
	DateColumn      string `toml:"date_column" validate:"required"`
	PriceColumn     string `toml:"price_column" validate:"required"`
	TargetReason    string `toml:"target_reason" validate:"required"`
	Sheet           string `toml:"sheet" validate:"required"`
	InstrumentDelay string `toml:"instrument_delay" validate:"duration"` // pause between instruments
	Resume          bool   `toml:"resume"`                               // reuse results cached by an earlier run
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
			Dir:        "./logs",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			PageSettle:        "3s",
			TabSettle:         "1s",
			RequestTimeout:    "60s",
			AnnouncementsTab:  "#lnk_annos",
			DetailURLTemplate: "https://www.jisilu.cn/data/convert_bond_detail/%s",
			LoginURL:          "https://www.jisilu.cn/account/login/",
			LoginWait:         "50s",
			DelistedURL:       "https://www.jisilu.cn/web/data/cb/delisted",
			DelistedSettle:    "10s",
		},
		Augment: AugmentConfig{
			CodeColumn:      "代码",
			NameColumn:      "名称",
			ReasonColumn:    "退市原因",
			DateColumn:      "强赎时间",
			PriceColumn:     "强赎价格",
			TargetReason:    "强赎",
			Sheet:           "jsl",
			InstrumentDelay: "1s",
			Resume:          true,
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env.
// CLI flags are applied by the caller afterwards. When no paths are given and
// cbredeem.toml exists in the working directory, it is used.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	if len(paths) == 0 {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			paths = []string{DefaultConfigFile}
		}
	}

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal merges over existing values
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies CBREDEEM_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Logging
	if level := os.Getenv("CBREDEEM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CBREDEEM_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitString(output, ",")
	}
	if dir := os.Getenv("CBREDEEM_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}

	// Storage
	if badgerPath := os.Getenv("CBREDEEM_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Browser
	if headless := os.Getenv("CBREDEEM_BROWSER_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = b
		}
	}
	if noSandbox := os.Getenv("CBREDEEM_BROWSER_NO_SANDBOX"); noSandbox != "" {
		if b, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = b
		}
	}
	if chromePath := os.Getenv("CBREDEEM_CHROME_PATH"); chromePath != "" {
		config.Browser.ChromePath = chromePath
	}
	if userAgent := os.Getenv("CBREDEEM_USER_AGENT"); userAgent != "" {
		config.Browser.UserAgent = userAgent
	}
	if pageSettle := os.Getenv("CBREDEEM_PAGE_SETTLE"); pageSettle != "" {
		config.Browser.PageSettle = pageSettle
	}
	if tabSettle := os.Getenv("CBREDEEM_TAB_SETTLE"); tabSettle != "" {
		config.Browser.TabSettle = tabSettle
	}
	if timeout := os.Getenv("CBREDEEM_REQUEST_TIMEOUT"); timeout != "" {
		config.Browser.RequestTimeout = timeout
	}
	if loginWait := os.Getenv("CBREDEEM_LOGIN_WAIT"); loginWait != "" {
		config.Browser.LoginWait = loginWait
	}

	// Augment
	if targetReason := os.Getenv("CBREDEEM_TARGET_REASON"); targetReason != "" {
		config.Augment.TargetReason = targetReason
	}
	if sheet := os.Getenv("CBREDEEM_SHEET"); sheet != "" {
		config.Augment.Sheet = sheet
	}
	if delay := os.Getenv("CBREDEEM_INSTRUMENT_DELAY"); delay != "" {
		config.Augment.InstrumentDelay = delay
	}
	if resume := os.Getenv("CBREDEEM_RESUME"); resume != "" {
		if b, err := strconv.ParseBool(resume); err == nil {
			config.Augment.Resume = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Empty values leave the config untouched.
func ApplyFlagOverrides(config *Config, logLevel string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return c.Browser.validateTimeouts()
}

// validateTimeouts requires request_timeout to cover every fixed wait that
// runs inside one page request.
func (b BrowserConfig) validateTimeouts() error {
	timeout := b.RequestTimeoutDuration()
	if page := b.PageSettleDuration() + b.TabSettleDuration(); timeout <= page {
		return fmt.Errorf("invalid configuration: browser.request_timeout (%s) must exceed page_settle + tab_settle (%s)", timeout, page)
	}
	if settle := b.DelistedSettleDuration(); timeout <= settle {
		return fmt.Errorf("invalid configuration: browser.request_timeout (%s) must exceed delisted_settle (%s)", timeout, settle)
	}
	return nil
}

// validateDuration accepts empty strings and anything time.ParseDuration accepts
func validateDuration(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	d, err := time.ParseDuration(s)
	return err == nil && d >= 0
}

// parseDuration returns fallback when s is empty or invalid
func parseDuration(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func (b BrowserConfig) PageSettleDuration() time.Duration {
	return parseDuration(b.PageSettle, 3*time.Second)
}

func (b BrowserConfig) TabSettleDuration() time.Duration {
	return parseDuration(b.TabSettle, time.Second)
}

func (b BrowserConfig) RequestTimeoutDuration() time.Duration {
	return parseDuration(b.RequestTimeout, 60*time.Second)
}

func (b BrowserConfig) LoginWaitDuration() time.Duration {
	return parseDuration(b.LoginWait, 50*time.Second)
}

func (b BrowserConfig) DelistedSettleDuration() time.Duration {
	return parseDuration(b.DelistedSettle, 10*time.Second)
}

// DetailURL formats the instrument detail page URL
func (b BrowserConfig) DetailURL(code string) string {
	return fmt.Sprintf(b.DetailURLTemplate, code)
}

func (a AugmentConfig) InstrumentDelayDuration() time.Duration {
	return parseDuration(a.InstrumentDelay, time.Second)
}

// splitString splits s by sep, trimming whitespace and dropping empty parts
func splitString(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
