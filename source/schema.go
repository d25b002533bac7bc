package source

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

func reflector() *jsonschema.Reflector {
	r := new(jsonschema.Reflector)
	r.Anonymous = true
	r.ExpandedStruct = true
	r.Namer = func(t reflect.Type) string {
		if t == reflect.TypeOf(wireDescriptor{}) {
			return "StreamDescriptor"
		}
		return t.Name()
	}
	return r
}

// DescriptorSchema describes the stream descriptor JSON a provider returns for one episode.
func DescriptorSchema() *jsonschema.Schema {
	return reflector().Reflect(&wireDescriptor{})
}

// EpisodesSchema describes the episode list JSON a provider returns.
func EpisodesSchema() *jsonschema.Schema {
	return reflector().Reflect([]Episode{})
}
