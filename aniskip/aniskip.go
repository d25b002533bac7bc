// Package aniskip provides a client for the AniSkip API, which supplies opening and ending timestamps.
package aniskip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/mo"
)

// DefaultBaseURL is the public AniSkip endpoint.
const DefaultBaseURL = "https://api.aniskip.com/v1/skip-times"

// SkipTimes holds the opening and ending ranges, each absent when unknown.
type SkipTimes struct {
	Intro mo.Option[source.Range]
	Outro mo.Option[source.Range]
}

// Empty reports whether neither range is known.
func (s SkipTimes) Empty() bool {
	return s.Intro.IsAbsent() && s.Outro.IsAbsent()
}

type apiResponse struct {
	Found   bool `json:"found"`
	Results []struct {
		Interval struct {
			StartTime float64 `json:"start_time"`
			EndTime   float64 `json:"end_time"`
		} `json:"interval"`
		SkipType string `json:"skip_type"`
	} `json:"results"`
}

// Client queries AniSkip.
type Client struct {
	doer    network.Doer
	baseURL string
}

// New returns a client for baseURL, DefaultBaseURL when empty.
func New(doer network.Doer, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if doer == nil {
		doer = network.Client
	}
	return &Client{doer: doer, baseURL: baseURL}
}

// SkipTimes retrieves the skip ranges of an episode. Unknown episodes and an unreachable
// service yield empty SkipTimes, not an error. Only a malformed response is an error.
func (c *Client) SkipTimes(ctx context.Context, malID, episode int) (SkipTimes, error) {
	var times SkipTimes
	if malID <= 0 || episode <= 0 {
		return times, nil
	}

	url := fmt.Sprintf("%s/%d/%d?types=op&types=ed", c.baseURL, malID, episode)
	body, err := network.Fetch(ctx, c.doer, url, nil)
	if err != nil {
		var status *network.StatusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return times, nil
		}
		log.Warnf("aniskip API request failed: %v", err)
		return times, nil
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return times, fmt.Errorf("parse aniskip response: %w", err)
	}
	if !data.Found {
		return times, nil
	}

	for _, result := range data.Results {
		r := source.Range{Start: result.Interval.StartTime, End: result.Interval.EndTime}
		if !r.Valid() {
			continue
		}
		switch result.SkipType {
		case "op":
			times.Intro = mo.Some(r)
		case "ed":
			times.Outro = mo.Some(r)
		}
	}
	return times, nil
}
