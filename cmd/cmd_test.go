package cmd

import (
	"encoding/json"
	"testing"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/icon"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/where"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/exp/slices"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestParseValue(t *testing.T) {
	Convey("Given config fields of every type", t, func() {
		Convey("Strings are taken verbatim", func() {
			v, err := parseValue(config.Default[key.PrefsBackend], []string{"redis"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "redis")
		})

		Convey("Integers are parsed", func() {
			v, err := parseValue(config.Default[key.PlayerLoadTimeout], []string{"20"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 20)

			_, err = parseValue(config.Default[key.PlayerLoadTimeout], []string{"soon"})
			So(err, ShouldNotBeNil)
		})

		Convey("Booleans are parsed", func() {
			v, err := parseValue(config.Default[key.Aniskip], []string{"false"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)

			_, err = parseValue(config.Default[key.Aniskip], []string{"maybe"})
			So(err, ShouldNotBeNil)
		})

		Convey("Values outside a field's choices are rejected", func() {
			_, err := parseValue(config.Default[key.PrefsBackend], []string{"sqlite"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "file, redis")

			_, err = parseValue(config.Default[key.InputProfile], []string{"tablet"})
			So(err, ShouldNotBeNil)
		})

		Convey("Integers outside a field's bounds are rejected", func() {
			_, err := parseValue(config.Default[key.InputMobileHideSecs], []string{"9"})
			So(err, ShouldNotBeNil)

			v, err := parseValue(config.Default[key.InputMobileHideSecs], []string{"7"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 7)
		})

		Convey("A missing value is an error", func() {
			_, err := parseValue(config.Default[key.Aniskip], nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestConfigCompletion(t *testing.T) {
	Convey("Keys are completed first, then the values the key accepts", t, func() {
		keys, _ := completionConfigSet(nil, nil, "")
		So(keys, ShouldContain, key.PrefsBackend)
		So(slices.IsSorted(keys), ShouldBeTrue)

		values, _ := completionConfigSet(nil, []string{key.LogsLevel}, "")
		So(values, ShouldContain, "debug")

		values, _ = completionConfigSet(nil, []string{key.Aniskip}, "")
		So(values, ShouldResemble, []string{"true", "false"})

		values, _ = completionConfigSet(nil, []string{key.ProxyListen}, "")
		So(values, ShouldBeEmpty)
	})

	Convey("The icon variants accepted by config match the icon set", t, func() {
		So(config.Default[key.IconsVariant].Choices, ShouldHaveLength, len(icon.AvailableVariants()))
		for _, variant := range icon.AvailableVariants() {
			So(config.Default[key.IconsVariant].Choices, ShouldContain, variant)
		}
	})
}

func TestSchemaOutput(t *testing.T) {
	Convey("scripts run --schema describes the episode list without --episode", t, func() {
		out, err := json.Marshal(runSchema(""))
		So(err, ShouldBeNil)
		So(string(out), ShouldContainSubstring, `"malId"`)
		So(string(out), ShouldContainSubstring, `"array"`)
	})

	Convey("scripts run --schema describes the stream descriptor with --episode", t, func() {
		out, err := json.Marshal(runSchema("s01e01"))
		So(err, ShouldBeNil)
		So(string(out), ShouldContainSubstring, `"isM3U8"`)
		So(string(out), ShouldContainSubstring, `"subtitles"`)
	})
}

func TestErrUnknownKey(t *testing.T) {
	Convey("A near miss suggests the closest key", t, func() {
		err := errUnknownKey("player.mpv_pth")
		So(err.Error(), ShouldContainSubstring, key.PlayerMpvPath)
	})
}

func TestExposedEnv(t *testing.T) {
	Convey("Every config key is exposed as a prefixed environment variable", t, func() {
		names := exposedEnv()
		So(names, ShouldContain, "ANISTREAM_PROXY_URL")
		So(names, ShouldContain, "ANISTREAM_PLAYER_MPV_PATH")
		So(names, ShouldContain, where.EnvConfigPath)
		So(slices.IsSorted(names), ShouldBeTrue)
	})
}

func TestScripts(t *testing.T) {
	Convey("Given an installed script", t, func() {
		So(filesystem.API().WriteFile(where.Scripts()+"/show.lua", []byte("-- empty"), 0o644), ShouldBeNil)

		Convey("It is listed by name", func() {
			So(installedScripts(), ShouldContain, "show")
		})

		Convey("Completion offers it only for the first argument", func() {
			names, _ := completionScripts(nil, nil, "")
			So(names, ShouldContain, "show")

			names, _ = completionScripts(nil, []string{"show"}, "")
			So(names, ShouldBeEmpty)
		})
	})
}
