package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/anisan-cli/anistream/aniskip"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/playback"
	"github.com/anisan-cli/anistream/player"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/proxy"
	"github.com/anisan-cli/anistream/subtitle"
	"github.com/anisan-cli/anistream/transport"
	"github.com/anisan-cli/anistream/where"
	"github.com/spf13/viper"
)

// session owns every long-lived component of one playback run.
type session struct {
	provider   provider.Provider
	server     *proxy.Server
	gateway    *proxy.Gateway
	surface    *player.MPV
	loop       *playback.Loop
	controller *playback.Controller
	transport  *transport.Transport
}

func openProvider(target string) (provider.Provider, error) {
	p, err := provider.Open(target)
	if err != nil {
		return nil, err
	}

	if viper.GetBool(key.Aniskip) {
		p = provider.WithSkipTimes(p, aniskip.New(network.Client, aniskip.DefaultBaseURL))
	}
	return p, nil
}

// openGateway returns the external gateway when proxy.url is set, else starts the embedded one.
func openGateway(doer network.Doer) (*proxy.Server, *proxy.Gateway, error) {
	if external := viper.GetString(key.ProxyURL); external != "" {
		gateway, err := proxy.NewGateway(external)
		return nil, gateway, err
	}

	server := proxy.NewServer(doer, proxy.WithRateLimit(viper.GetFloat64(key.ProxyRPS), viper.GetInt(key.ProxyBurst)))
	gateway, err := server.Start(viper.GetString(key.ProxyListen))
	if err != nil {
		return nil, nil, err
	}
	log.Infow("gateway listening", log.Fields{"base": gateway.Base()})
	return server, gateway, nil
}

func newSession(target string) (*session, error) {
	if name := viper.GetString(key.Player); name != "mpv" {
		return nil, fmt.Errorf("unsupported player %q: only mpv is available", name)
	}

	p, err := openProvider(target)
	if err != nil {
		return nil, err
	}

	doer := network.NewFingerprinted()
	server, gateway, err := openGateway(doer)
	if err != nil {
		return nil, err
	}

	s := &session{
		provider: p,
		server:   server,
		gateway:  gateway,
		loop:     playback.NewLoop(),
	}

	// mpv delivers events only after Start, by which time the controller exists.
	s.surface = player.NewMPV(viper.GetString(key.PlayerMpvPath), func(ev player.Event) {
		s.controller.SurfaceHandler()(ev)
	})

	pipeline := subtitle.NewPipeline(
		s.surface,
		gateway,
		doer,
		subtitle.NewArena(where.Subtitles()),
		subtitle.WithTimeout(time.Duration(viper.GetInt(key.SubtitleFetchTimeout))*time.Second),
	)

	s.controller = playback.New(playback.Deps{
		Surface:   s.surface,
		Gateway:   gateway,
		Doer:      doer,
		Subtitles: pipeline,
		Prefs:     prefs.Open(),
		Scheduler: s.loop,
	}, playback.WithConfig(playback.ConfigFromViper()))

	if err := s.surface.Start(); err != nil {
		s.Close()
		return nil, err
	}

	s.transport = transport.New(transport.Deps{
		Controller: s.controller,
		Surface:    s.surface,
		Subtitles:  pipeline,
	})
	return s, nil
}

// Close releases everything in reverse order of construction.
func (s *session) Close() {
	if err := s.controller.Close(); err != nil {
		log.Warnf("close controller: %v", err)
	}
	if err := s.surface.Close(); err != nil {
		log.Warnf("close mpv: %v", err)
	}
	s.loop.Close()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			log.Warnf("shutdown gateway: %v", err)
		}
	}
}
