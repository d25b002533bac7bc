package provider

import (
	"context"

	"github.com/anisan-cli/anistream/aniskip"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/source"
)

type skipTimes struct {
	Provider
	client *aniskip.Client
}

// WithSkipTimes fills intro and outro ranges the provider left empty from AniSkip.
// Episodes without a MyAnimeList id are passed through unchanged.
func WithSkipTimes(p Provider, client *aniskip.Client) Provider {
	return &skipTimes{Provider: p, client: client}
}

func (s *skipTimes) Describe(ctx context.Context, episode source.Episode) (*source.StreamDescriptor, error) {
	desc, err := s.Provider.Describe(ctx, episode)
	if err != nil || desc == nil || episode.MalID <= 0 {
		return desc, err
	}
	if desc.Intro.IsPresent() && desc.Outro.IsPresent() {
		return desc, nil
	}

	times, err := s.client.SkipTimes(ctx, episode.MalID, episode.Number)
	if err != nil {
		log.Warnf("skip times for %s: %v", episode, err)
		return desc, nil
	}

	if desc.Intro.IsAbsent() {
		desc.Intro = times.Intro
	}
	if desc.Outro.IsAbsent() {
		desc.Outro = times.Outro
	}
	return desc, nil
}
