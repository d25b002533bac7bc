package cmd

import (
	"github.com/anisan-cli/anistream/tui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringP("episode", "e", "", "Identifier of the episode to start with instead of the episode list")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("episode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return episodeIDs(args), cobra.ShellCompDirectiveNoFileComp
	}))
}

var playCmd = &cobra.Command{
	Use:   "play <script.lua|descriptor.json|name>",
	Short: "Play the episodes described by a script or a descriptor document",
	Long: `Play the episodes described by a Lua script or a JSON descriptor document.
A bare name refers to a script installed in the scripts directory.`,
	Example: `  anistream play ./show.lua
  anistream play movie.json
  anistream play show --episode s01e02`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionScripts,
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		s, err := newSession(args[0])
		handleErr(err)
		defer s.Close()

		handleErr(tui.Run(&tui.Options{
			Provider:   s.provider,
			Controller: s.controller,
			Transport:  s.transport,
			Exited:     s.surface.Wait(),
			Episode:    lo.Must(cmd.Flags().GetString("episode")),
		}))
	},
}
