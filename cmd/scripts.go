package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/anisan-cli/anistream/color"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/icon"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/style"
	"github.com/anisan-cli/anistream/util"
	"github.com/anisan-cli/anistream/where"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const inspectTimeout = 30 * time.Second

func installedScripts() []string {
	scripts, err := provider.Scripts()
	if err != nil {
		return nil
	}
	return lo.Map(scripts, func(s string, _ int) string {
		return util.FileStem(s)
	})
}

func completionScripts(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return installedScripts(), cobra.ShellCompDirectiveDefault
}

// episodeIDs lists the episode identifiers of the provider named by the first argument.
func episodeIDs(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	p, err := provider.Open(args[0])
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), inspectTimeout)
	defer cancel()

	episodes, err := p.Episodes(ctx)
	if err != nil {
		return nil
	}
	return lo.Map(episodes, func(e source.Episode, _ int) string { return e.ID })
}

func init() {
	rootCmd.AddCommand(scriptsCmd)
}

var scriptsCmd = &cobra.Command{
	Use:     "scripts",
	Aliases: []string{"sources"},
	Short:   "Manage Lua descriptor scripts",
}

func init() {
	scriptsCmd.AddCommand(scriptsListCmd)
	scriptsListCmd.Flags().BoolP("raw", "r", false, "Suppress the header in the output")
	scriptsListCmd.SetOut(os.Stdout)
}

var scriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Display the installed descriptor scripts",
	Run: func(cmd *cobra.Command, args []string) {
		if !lo.Must(cmd.Flags().GetBool("raw")) {
			cmd.Println(style.New().Foreground(color.HiBlue).Bold(true).Render("Installed:"))
		}
		for _, name := range installedScripts() {
			cmd.Println(name)
		}
	},
}

func init() {
	scriptsCmd.AddCommand(scriptsRemoveCmd)

	scriptsRemoveCmd.Flags().StringArrayP("name", "n", []string{}, "Name of the script(s) to uninstall")
	lo.Must0(scriptsRemoveCmd.RegisterFlagCompletionFunc("name", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return installedScripts(), cobra.ShellCompDirectiveNoFileComp
	}))
}

var scriptsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Uninstall descriptor scripts",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range lo.Must(cmd.Flags().GetStringArray("name")) {
			path, ok := provider.Get(name)
			if !ok {
				handleErr(fmt.Errorf("no script named %s", style.Fg(color.Red)(name)))
			}
			handleErr(filesystem.API().Remove(path))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}

func init() {
	scriptsCmd.AddCommand(scriptsGenCmd)

	scriptsGenCmd.Flags().StringP("name", "n", "", "Name of the new script")
	lo.Must0(scriptsGenCmd.MarkFlagRequired("name"))
}

var scriptsGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a new descriptor script in the scripts directory",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		s := struct {
			Name               string
			Author             string
			EpisodesFn         string
			StreamDescriptorFn string
		}{
			Name:               lo.Must(cmd.Flags().GetString("name")),
			Author:             author,
			EpisodesFn:         constant.EpisodesFn,
			StreamDescriptorFn: constant.StreamDescriptorFn,
		}

		tmpl, err := template.New("script").Funcs(template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    func(v ...int) int { return lo.Max(v) },
		}).Parse(constant.ScriptTemplate)
		handleErr(err)

		target := filepath.Join(where.Scripts(), util.SanitizeFilename(s.Name)+".lua")
		f, err := filesystem.API().Create(target)
		handleErr(err)
		defer util.Ignore(f.Close)

		handleErr(tmpl.Execute(f, s))
		cmd.Println(target)
	},
}

func init() {
	scriptsCmd.AddCommand(scriptsRunCmd)
	scriptsRunCmd.Flags().StringP("episode", "e", "", "Describe this episode instead of listing episodes")
	scriptsRunCmd.Flags().Bool("schema", false, "Print the JSON Schema of the output instead of running the provider")
	scriptsRunCmd.SetOut(os.Stdout)
}

// runSchema is the schema of what scripts run prints with the given flags.
func runSchema(episode string) *jsonschema.Schema {
	if episode == "" {
		return source.EpisodesSchema()
	}
	return source.DescriptorSchema()
}

var scriptsRunCmd = &cobra.Command{
	Use:   "run <script.lua|descriptor.json|name>",
	Short: "Print the episodes or one stream descriptor of a provider as JSON",
	Long: `Run a provider outside the player. Useful for script development and debugging.
Without --episode the episode list is printed, otherwise the stream descriptor of that episode.
With --schema the JSON Schema of that output is printed and no provider is needed.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			return cobra.MaximumNArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	ValidArgsFunction: completionScripts,
	Example: `  anistream scripts run ./show.lua --episode s01e01
  anistream scripts run --schema --episode any`,
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		id := lo.Must(cmd.Flags().GetString("episode"))
		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(encoder.Encode(runSchema(id)))
			return
		}

		p, err := openProvider(args[0])
		handleErr(err)

		ctx, cancel := context.WithTimeout(context.Background(), inspectTimeout)
		defer cancel()

		episodes, err := p.Episodes(ctx)
		handleErr(err)

		if id == "" {
			handleErr(encoder.Encode(episodes))
			return
		}

		episode, ok := lo.Find(episodes, func(e source.Episode) bool { return e.ID == id })
		if !ok {
			handleErr(fmt.Errorf("no episode %s in %s", style.Fg(color.Red)(id), p.Name()))
		}

		desc, err := p.Describe(ctx, episode)
		handleErr(err)
		handleErr(encoder.Encode(desc))
	},
}
