package prefs

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema describes the persisted preferences document.
func Schema() *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	r.Anonymous = true
	r.ExpandedStruct = true
	r.Namer = func(t reflect.Type) string {
		if t == reflect.TypeOf(record{}) {
			return "PlayerPreferences"
		}
		return t.Name()
	}
	return r.Reflect(&record{})
}

// Document returns p in its persisted shape, the one Schema describes.
func Document(p PlayerPreferences) any {
	return toRecord(p)
}
