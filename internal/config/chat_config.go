package config

import "time"

const (
	// Messages
	MaxMessageLength = 999

	// Matchmaking
	PendingTimeout = 5 * time.Minute

	// Reaper
	ReapInterval       = 60 * time.Second
	PairedIdleTimeout  = 10 * time.Minute
	ChannelIdleTimeout = 30 * time.Minute

	// Streaming
	StreamTick         = 1 * time.Second
	SearchRefreshTicks = 3
	SearchDotStep      = 3 * time.Second
	MaxSearchDots      = 3

	// Chatter counter
	ChatterWindow         = time.Hour
	RecentChatterCapacity = 1000

	// Credentials
	SessionIDBytes   = 32
	AuthTokenBytes   = 32
	CredentialTTL    = 72 * time.Hour
	CredentialIssuer = "randomchat-service"

	DefaultLanguage = "en"
)
