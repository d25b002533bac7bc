package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/util"
	"github.com/samber/lo"
)

type jsonEpisode struct {
	source.Episode
	Descriptor *source.StreamDescriptor `json:"descriptor"`
}

type jsonDocument struct {
	Title    string        `json:"title"`
	MalID    int           `json:"malId"`
	Episodes []jsonEpisode `json:"episodes"`
}

// Document is a provider backed by a static JSON file. A file holding a single
// descriptor is one episode; otherwise it lists episodes, each with its descriptor.
type Document struct {
	name     string
	episodes []jsonEpisode
}

// FromJSON reads the document at path.
func FromJSON(path string) (*Document, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(util.FileStem(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes a provider document.
func ParseDocument(name string, data []byte) (*Document, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode provider document: %w", err)
	}

	if doc.Title != "" {
		name = doc.Title
	}

	if len(doc.Episodes) == 0 {
		var desc source.StreamDescriptor
		if err := json.Unmarshal(data, &desc); err != nil {
			return nil, err
		}
		if len(desc.Sources) == 0 {
			return nil, fmt.Errorf("document has neither episodes nor sources")
		}
		doc.Episodes = []jsonEpisode{{
			Episode:    source.Episode{ID: "1", Name: name, Number: 1, MalID: doc.MalID},
			Descriptor: &desc,
		}}
	}

	for i := range doc.Episodes {
		ep := &doc.Episodes[i].Episode
		if ep.ID == "" {
			ep.ID = fmt.Sprint(i + 1)
		}
		if ep.Number == 0 {
			ep.Number = i + 1
		}
		if ep.MalID == 0 {
			ep.MalID = doc.MalID
		}
	}

	return &Document{name: name, episodes: doc.Episodes}, nil
}

func (d *Document) Name() string {
	return d.name
}

func (d *Document) Episodes(context.Context) ([]source.Episode, error) {
	return lo.Map(d.episodes, func(e jsonEpisode, _ int) source.Episode {
		return e.Episode
	}), nil
}

func (d *Document) Describe(_ context.Context, episode source.Episode) (*source.StreamDescriptor, error) {
	e, ok := lo.Find(d.episodes, func(e jsonEpisode) bool {
		return e.ID == episode.ID
	})
	if !ok {
		return nil, fmt.Errorf("episode %q not found in %s", episode.ID, d.name)
	}
	if e.Descriptor == nil {
		return nil, fmt.Errorf("episode %q has no descriptor", episode.ID)
	}
	return e.Descriptor.Clone(), nil
}
