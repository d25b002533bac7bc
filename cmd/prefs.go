package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/anisan-cli/anistream/color"
	"github.com/anisan-cli/anistream/icon"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(prefsCmd)
}

var prefsCmd = &cobra.Command{
	Use:     "prefs",
	Aliases: []string{"preferences"},
	Short:   "Inspect or reset the persisted player preferences",
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsShowCmd.Flags().Bool("schema", false, "Print the JSON Schema of the preferences document instead")
	prefsShowCmd.SetOut(os.Stdout)
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective player preferences as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(encoder.Encode(prefs.Schema()))
			return
		}
		handleErr(encoder.Encode(prefs.Document(prefs.Open().Load())))
	},
}

func init() {
	prefsCmd.AddCommand(prefsResetCmd)
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the persisted player preferences",
	Run: func(cmd *cobra.Command, args []string) {
		prefs.Open().Reset()
		fmt.Printf("%s preferences reset\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}
