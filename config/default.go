package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is one documented configuration entry and its factory default.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env returns the environment variable that overrides this field.
func (f *Field) Env() string {
	return strings.ToUpper(constant.Plst4 + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Pretty renders the field for `plst4 config info`.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// MarshalJSON reports the current value next to the default.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Env         string `json:"env"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
	}{
		Key:         f.Key,
		Env:         f.Env(),
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
	})
}

// Parse converts raw CLI input into a value of the field's type.
func (f *Field) Parse(raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no value given for %s", f.Key)
	}

	switch f.Value.(type) {
	case string:
		return raw[0], nil
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value %q: %w", raw[0], err)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value %q: %w", raw[0], err)
		}
		return b, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported field type %T", f.Value)
	}
}

// Default holds every known configuration field by key.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func register(k string, v any, desc string) {
	if _, exists := Default[k]; exists {
		panic("duplicate config key: " + k)
	}
	Default[k] = Field{Key: k, Value: v, Description: desc}
	EnvExposed = append(EnvExposed, k)
}

func init() {
	register(key.ServerURL, "http://localhost:6972", "Base URL of the plst4 server.\nThe websocket endpoint mirrors its scheme (http -> ws, https -> wss)")
	register(key.SocketBackoffBaseMs, 1000, "Base reconnect delay in milliseconds.\nThe n-th retry waits a random fraction of base * 2^min(n, cap)")
	register(key.SocketBackoffCap, 6, "Maximum number of delay doublings between reconnect attempts")
	register(key.AdvanceMinIntervalMs, 100, "Minimum spacing in milliseconds between two advance requests")
	register(key.PlayerMpvPath, "mpv", "mpv executable used for inline audio and video")
	register(key.PlayerAutomated, false, "Mark this client as automated (CI, headless).\nUnsupported-format playback errors then never request an advance")
	register(key.PlayerVideo, true, "Open an mpv window for inline video.\nWhen disabled, inline video is played audio-only")
	register(key.EmbedListen, "127.0.0.1:7384", "Listen address of the local embed bridge hosting YouTube, SoundCloud and Niconico players")
	register(key.EmbedOpenBrowser, true, "Open the embed bridge page in the default browser on watch")
	register(key.EmbedBrowser, "", "Browser used for the embed bridge page.\nEmpty means the system default")
	register(key.PageSwapDelayMs, 100, "Delay in milliseconds before a swapped fragment is applied")
	register(key.PageSettleDelayMs, 20, "Delay in milliseconds between applying a fragment and notifying listeners")
	register(key.MetricsEnable, false, "Expose Prometheus metrics at /metrics on the embed bridge")
	register(key.HistorySave, true, "Remember joined sessions for --continue")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Check for a newer plst4 release when printing help and version")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")
}

// Millis reads an integer millisecond setting as a duration.
func Millis(k string) time.Duration {
	return time.Duration(viper.GetInt(k)) * time.Millisecond
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"blue":     style.Fg(color.Blue),
	"purple":   style.Fg(color.Purple),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			if value {
				return style.Fg(color.Green)("true")
			}
			return style.Fg(color.Red)("false")
		case string:
			return style.Fg(color.Yellow)(strconv.Quote(value))
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl .Value }}
{{ blue "Type:" }}    {{ typename .Value }}`))
