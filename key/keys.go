// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Server - the plst4 instance the client joins.
const (
	ServerURL = "server.url"
)

// Connection channel reconnect policy.
const (
	SocketBackoffBaseMs = "socket.backoff_base_ms"
	SocketBackoffCap    = "socket.backoff_cap"
)

// Advance requests.
const (
	AdvanceMinIntervalMs = "advance.min_interval_ms"
)

// Inline playback through mpv.
const (
	PlayerMpvPath   = "player.mpv_path"
	PlayerAutomated = "player.automated"
	PlayerVideo     = "player.video"
)

// Embed bridge hosting the third-party iframes.
const (
	EmbedListen      = "embed.listen"
	EmbedOpenBrowser = "embed.open_browser"
	EmbedBrowser     = "embed.browser"
)

// Page swap timings.
const (
	PageSwapDelayMs   = "page.swap_delay_ms"
	PageSettleDelayMs = "page.settle_delay_ms"
)

const (
	MetricsEnable = "metrics.enable"
)

const (
	HistorySave = "history.save"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	IconsVariant    = "icons.variant"
)
