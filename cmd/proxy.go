package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anisan-cli/anistream/color"
	"github.com/anisan-cli/anistream/icon"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/proxy"
	"github.com/anisan-cli/anistream/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(proxyCmd)

	proxyCmd.Flags().StringP("listen", "l", "", "Listen address, overrides proxy.listen")
	proxyCmd.Flags().Float64("rps", 0, "Requests per second, overrides proxy.rps")
	lo.Must0(viper.BindPFlag(key.ProxyListen, proxyCmd.Flags().Lookup("listen")))
	lo.Must0(viper.BindPFlag(key.ProxyRPS, proxyCmd.Flags().Lookup("rps")))
}

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run the stream gateway on its own",
	Long: `Run the same-origin stream gateway without the player.
Other anistream instances can use it by setting proxy.url.`,
	Run: func(cmd *cobra.Command, args []string) {
		server := proxy.NewServer(
			network.NewFingerprinted(),
			proxy.WithRateLimit(viper.GetFloat64(key.ProxyRPS), viper.GetInt(key.ProxyBurst)),
		)
		gateway, err := server.Start(viper.GetString(key.ProxyListen))
		handleErr(err)

		fmt.Printf("%s gateway listening on %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Yellow)(gateway.Base()))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		log.Info("gateway shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		handleErr(server.Shutdown(shutdownCtx))
	},
}
