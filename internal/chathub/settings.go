package chathub

import (
	"html"
	"randomchat/backend/internal/analysis"
	"randomchat/backend/internal/clock"
	"randomchat/backend/internal/config"
	"randomchat/backend/internal/localization"
	"randomchat/backend/internal/storage"
	"time"

	"go.uber.org/zap"
)

// Settings are the timing and limit knobs of the engine.
type Settings struct {
	PendingTimeout     time.Duration
	PairedIdleTimeout  time.Duration
	ChannelIdleTimeout time.Duration
	StreamTick         time.Duration
	ReapInterval       time.Duration
	MaxMessageLength   int
	Language           string
}

// DefaultSettings returns the values from the config package.
func DefaultSettings() Settings {
	return Settings{
		PendingTimeout:     config.PendingTimeout,
		PairedIdleTimeout:  config.PairedIdleTimeout,
		ChannelIdleTimeout: config.ChannelIdleTimeout,
		StreamTick:         config.StreamTick,
		ReapInterval:       config.ReapInterval,
		MaxMessageLength:   config.MaxMessageLength,
		Language:           config.DefaultLanguage,
	}
}

// SettingsFromConfig overlays the runtime configuration on the defaults.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	s.PendingTimeout = cfg.PendingTimeout
	s.PairedIdleTimeout = cfg.PairedIdleTimeout
	s.ChannelIdleTimeout = cfg.ChannelIdleTimeout
	s.StreamTick = cfg.StreamTick
	s.ReapInterval = cfg.ReapInterval
	return s
}

// Options wires the collaborators of the engine. Zero values get defaults.
type Options struct {
	Storage   storage.Storage
	Clock     clock.Clock
	Logger    *zap.Logger
	Sanitizer func(string) string
	Localizer *localization.Localizer
	Chatters  *analysis.ChatterTracker
	Settings  Settings
}

func (o Options) withDefaults() Options {
	if o.Storage == nil {
		o.Storage = storage.NewStorageService()
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Sanitizer == nil {
		o.Sanitizer = html.EscapeString
	}
	if o.Localizer == nil {
		o.Localizer = localization.Default()
	}
	if o.Chatters == nil {
		o.Chatters = analysis.NewChatterTracker(config.RecentChatterCapacity)
	}
	if o.Settings == (Settings{}) {
		o.Settings = DefaultSettings()
	}
	return o
}
