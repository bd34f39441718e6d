package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyHeadless          = "crawl.headless"
	keyLoadImages        = "crawl.load_images"
	keyLocale            = "crawl.locale"
	keyPostalCode        = "crawl.postal_code"
	keyStableRounds      = "crawl.stable_rounds"
	keyMaxPages          = "crawl.max_pages"
	keyMaxRounds         = "crawl.max_rounds"
	keyScrollStep        = "crawl.scroll_step"
	keyScrollPause       = "crawl.scroll_pause"
	keyWaitTimeout       = "crawl.wait_timeout"
	keyNavigationTimeout = "crawl.navigation_timeout"
	keyActionsPerSecond  = "crawl.actions_per_second"
	keyCategories        = "crawl.categories"
	keyBrowserBin        = "browser.bin"
	keyStorageDriver     = "storage.driver"
	keyStorageDataDir    = "storage.data_dir"
	keyStorageDSN        = "storage.dsn"
)

// setting binds one config key to a field of domain.AppSettings.
type setting struct {
	key   string
	load  func(s *SettingsService, a *domain.AppSettings)
	value func(a *domain.AppSettings) any
	parse func(a *domain.AppSettings, raw string) error
}

var settingsTable = []setting{
	boolSetting(keyHeadless, func(a *domain.AppSettings) *bool { return &a.Browser.Headless }),
	boolSetting(keyLoadImages, func(a *domain.AppSettings) *bool { return &a.Browser.LoadImages }),
	stringSetting(keyLocale, func(a *domain.AppSettings) *string { return &a.Browser.Locale }),
	stringSetting(keyPostalCode, func(a *domain.AppSettings) *string { return &a.Crawl.PostalCode }),
	intSetting(keyStableRounds, func(a *domain.AppSettings) *int { return &a.Crawl.StableRounds }),
	intSetting(keyMaxPages, func(a *domain.AppSettings) *int { return &a.Crawl.MaxPages }),
	intSetting(keyMaxRounds, func(a *domain.AppSettings) *int { return &a.Crawl.MaxRounds }),
	intSetting(keyScrollStep, func(a *domain.AppSettings) *int { return &a.Crawl.ScrollStep }),
	durationSetting(keyScrollPause, func(a *domain.AppSettings) *time.Duration { return &a.Crawl.ScrollPause }),
	durationSetting(keyWaitTimeout, func(a *domain.AppSettings) *time.Duration { return &a.Crawl.WaitTimeout }),
	durationSetting(keyNavigationTimeout, func(a *domain.AppSettings) *time.Duration { return &a.Browser.NavigationTimeout }),
	floatSetting(keyActionsPerSecond, func(a *domain.AppSettings) *float64 { return &a.Crawl.ActionsPerSecond }),
	listSetting(keyCategories, func(a *domain.AppSettings) *[]string { return &a.Crawl.Categories }),
	stringSetting(keyBrowserBin, func(a *domain.AppSettings) *string { return &a.Browser.BinaryPath }),
	{
		key: keyStorageDriver,
		load: func(s *SettingsService, a *domain.AppSettings) {
			if d := domain.StorageDriver(s.configStore.GetString(keyStorageDriver)); d.IsValid() {
				a.Storage.Driver = d
			}
		},
		value: func(a *domain.AppSettings) any { return a.Storage.Driver.String() },
		parse: func(a *domain.AppSettings, raw string) error {
			d := domain.StorageDriver(strings.ToLower(strings.TrimSpace(raw)))
			if !d.IsValid() {
				return fmt.Errorf("%w: storage driver %q (want sqlite or postgres)", domain.ErrInvalidInput, raw)
			}
			a.Storage.Driver = d
			return nil
		},
	},
	stringSetting(keyStorageDataDir, func(a *domain.AppSettings) *string { return &a.Storage.DataDir }),
	stringSetting(keyStorageDSN, func(a *domain.AppSettings) *string { return &a.Storage.DSN }),
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing keys take defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	for _, st := range settingsTable {
		st.load(s, &settings)
	}
	return &settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	for _, st := range settingsTable {
		if err := s.configStore.Set(st.key, st.value(settings)); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}
	return nil
}

// Set parses value for key and persists the result.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := st.parse(settings, value); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.configStore.Set(st.key, st.value(settings))
}

// Keys returns the supported setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsTable))
	for _, st := range settingsTable {
		keys = append(keys, st.key)
	}
	return keys
}

// Value renders the current value of key for display.
func (s *SettingsService) Value(settings *domain.AppSettings, key string) string {
	st, ok := lookupSetting(key)
	if !ok {
		return ""
	}
	if list, ok := st.value(settings).([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprint(st.value(settings))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func lookupSetting(key string) (setting, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

func boolSetting(key string, field func(*domain.AppSettings) *bool) setting {
	return setting{
		key: key,
		load: func(s *SettingsService, a *domain.AppSettings) {
			if _, exists := s.configStore.Get(key); exists {
				*field(a) = s.configStore.GetBool(key)
			}
		},
		value: func(a *domain.AppSettings) any { return *field(a) },
		parse: func(a *domain.AppSettings, raw string) error {
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("%w: %s wants true or false, got %q", domain.ErrInvalidInput, key, raw)
			}
			*field(a) = v
			return nil
		},
	}
}

func stringSetting(key string, field func(*domain.AppSettings) *string) setting {
	return setting{
		key: key,
		load: func(s *SettingsService, a *domain.AppSettings) {
			if v := s.configStore.GetString(key); v != "" {
				*field(a) = v
			}
		},
		value: func(a *domain.AppSettings) any { return *field(a) },
		parse: func(a *domain.AppSettings, raw string) error {
			*field(a) = strings.TrimSpace(raw)
			return nil
		},
	}
}

func intSetting(key string, field func(*domain.AppSettings) *int) setting {
	return setting{
		key: key,
		load: func(s *SettingsService, a *domain.AppSettings) {
			if v := s.configStore.GetInt(key); v != 0 {
				*field(a) = v
			}
		},
		value: func(a *domain.AppSettings) any { return *field(a) },
		parse: func(a *domain.AppSettings, raw string) error {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || v < 0 {
				return fmt.Errorf("%w: %s wants a non-negative integer, got %q", domain.ErrInvalidInput, key, raw)
			}
			*field(a) = v
			return nil
		},
	}
}

func floatSetting(key string, field func(*domain.AppSettings) *float64) setting {
	return setting{
		key: key,
		load: func(s *SettingsService, a *domain.AppSettings) {
			if _, exists := s.configStore.Get(key); exists {
				*field(a) = s.configStore.GetFloat(key)
			}
		},
		value: func(a *domain.AppSettings) any { return *field(a) },
		parse: func(a *domain.AppSettings, raw string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil || v < 0 {
				return fmt.Errorf("%w: %s wants a non-negative number, got %q", domain.ErrInvalidInput, key, raw)
			}
			*field(a) = v
			return nil
		},
	}
}

func durationSetting(key string, field func(*domain.AppSettings) *time.Duration) setting {
	return setting{
		key: key,
		load: func(s *SettingsService, a *domain.AppSettings) {
			if v := s.configStore.GetDuration(key); v > 0 {
				*field(a) = v
			}
		},
		value: func(a *domain.AppSettings) any { return field(a).String() },
		parse: func(a *domain.AppSettings, raw string) error {
			v, err := time.ParseDuration(strings.TrimSpace(raw))
			if err != nil || v <= 0 {
				return fmt.Errorf("%w: %s wants a duration such as 300ms, got %q", domain.ErrInvalidInput, key, raw)
			}
			*field(a) = v
			return nil
		},
	}
}

// listSetting stores a comma-separated value as a TOML array.
func listSetting(key string, field func(*domain.AppSettings) *[]string) setting {
	return setting{
		key: key,
		load: func(s *SettingsService, a *domain.AppSettings) {
			if v := s.configStore.GetStringSlice(key); len(v) > 0 {
				*field(a) = v
			}
		},
		value: func(a *domain.AppSettings) any {
			if *field(a) == nil {
				return []string{}
			}
			return *field(a)
		},
		parse: func(a *domain.AppSettings, raw string) error {
			var list []string
			for _, item := range strings.Split(raw, ",") {
				if item = strings.TrimSpace(item); item != "" {
					list = append(list, item)
				}
			}
			*field(a) = list
			return nil
		},
	}
}
