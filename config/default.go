package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/anisan-cli/anistream/color"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
	// Choices, when set, are the only accepted values of a string field.
	Choices []string
	// Bounds, when set, limit an int field.
	Bounds *Bounds
}

// Bounds is an inclusive int range.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Validate reports whether v is acceptable for the field.
func (f *Field) Validate(v any) error {
	switch value := v.(type) {
	case string:
		if len(f.Choices) > 0 && !lo.Contains(f.Choices, value) {
			return fmt.Errorf("invalid value %q for %s, expected one of: %s", value, f.Key, strings.Join(f.Choices, ", "))
		}
	case int:
		if f.Bounds != nil && (value < f.Bounds.Min || value > f.Bounds.Max) {
			return fmt.Errorf("value %d for %s is out of range [%d, %d]", value, f.Key, f.Bounds.Min, f.Bounds.Max)
		}
	}
	return nil
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Anistream + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON includes the current and default values alongside the description.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string   `json:"description"`
		Type        string   `json:"type"`
		Choices     []string `json:"choices,omitempty"`
		Bounds      *Bounds  `json:"bounds,omitempty"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
		Choices:     f.Choices,
		Bounds:      f.Bounds,
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

type fieldOption func(*Field)

func oneOf(choices ...string) fieldOption {
	return func(f *Field) { f.Choices = choices }
}

func between(min, max int) fieldOption {
	return func(f *Field) { f.Bounds = &Bounds{Min: min, Max: max} }
}

func init() {
	register := func(k string, v any, desc string, opts ...fieldOption) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		for _, opt := range opts {
			opt(&f)
		}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Log verbosity, from least to most verbose", oneOf("panic", "fatal", "error", "warn", "info", "debug", "trace"))
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Check for a newer release when printing help or the version")
	register(key.IconsVariant, "plain", "Icons variant. nerd requires a nerd font", oneOf("emoji", "kaomoji", "plain", "squares", "nerd"))

	register(key.Player, "mpv", "Playback surface to use", oneOf("mpv"))
	register(key.PlayerMpvPath, "mpv", "Path to the mpv executable")
	register(key.PlayerManifestClient, true, "Resolve adaptive manifests in-process.\nWhen disabled the surface plays manifests natively")
	register(key.PlayerLoadTimeout, 15, "Seconds before the loading indicator is forced off", between(1, 600))
	register(key.PlayerMaxBufferSecs, 30, "Maximum forward buffer length in seconds", between(1, 3600))
	register(key.PlayerBackBufferSecs, 90, "Maximum back buffer length in seconds", between(0, 3600))
	register(key.PlayerManifestRetries, 2, "Retries for a failed manifest load", between(0, 10))
	register(key.PlayerLevelRetries, 2, "Retries for a failed level playlist load", between(0, 10))
	register(key.PlayerFragmentRetries, 3, "Retries for a failed fragment load", between(0, 10))
	register(key.PlayerRetryDelayMs, 1000, "Base retry delay in milliseconds. Doubles per attempt", between(0, 60000))
	register(key.Aniskip, true, "Fill missing intro/outro ranges from AniSkip")

	register(key.ProxyURL, "", "Base URL of an external proxy gateway.\nLeave empty to run the embedded gateway")
	register(key.ProxyListen, "127.0.0.1:0", "Listen address of the embedded proxy gateway")
	register(key.ProxyRPS, 0, "Requests per second accepted by the gateway. 0 disables the limit", between(0, 100000))
	register(key.ProxyBurst, 64, "Request burst accepted by the gateway when proxy.rps is set", between(1, 100000))

	register(key.PrefsBackend, "file", "Preference store backend", oneOf("file", "redis"))
	register(key.PrefsRedisAddr, "localhost:6379", "Redis address for the redis preference backend")
	register(key.PrefsRedisDB, 0, "Redis database index for the redis preference backend", between(0, 15))

	register(key.InputProfile, "auto", "Input profile. auto picks mobile on narrow terminals", oneOf("auto", "desktop", "mobile"))
	register(key.InputMobileWidth, 768, "Viewport width (columns) below which the mobile profile is used", between(0, 10000))
	register(key.InputMobileHideSecs, 5, "Controls auto-hide delay on the mobile profile", between(5, 8))
	register(key.InputSeekStep, 10, "Seconds skipped by arrow keys and horizontal swipes", between(1, 600))

	register(key.SubtitleFetchTimeout, 10, "Seconds before a subtitle fetch is abandoned", between(1, 300))
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"join":     strings.Join,
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}{{ if .Choices }}
{{ blue "Choices:" }} {{ join .Choices ", " }}{{ end }}{{ if .Bounds }}
{{ blue "Range:" }}   {{ .Bounds.Min }} to {{ .Bounds.Max }}{{ end }}`))
