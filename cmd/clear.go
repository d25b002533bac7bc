package cmd

import (
	"fmt"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/icon"
	"github.com/anisan-cli/anistream/internal/cache"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/style"
	"github.com/anisan-cli/anistream/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	clear    func() error
}

func removeAll(location func() string) func() error {
	return func() error {
		return filesystem.API().RemoveAll(location())
	}
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), removeAll(where.Cache)},
	{"staged subtitles", "subtitles", mo.Some("s"), removeAll(where.Subtitles)},
	{"temporary files", "temp", mo.Some("t"), removeAll(where.Temp)},
	{"player preferences", "preferences", mo.Some("p"), func() error {
		prefs.Open().Reset()
		return nil
	}},
	{"expired cache entries", "expired", mo.None[string](), func() error {
		cache.CollectGarbage()
		return nil
	}},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if short, ok := target.argShort.Get(); ok {
			clearCmd.Flags().BoolP(target.argLong, short, false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached and temporary application artifacts",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}
			anyCleared = true
			handleErr(target.clear())
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), style.Bold(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
