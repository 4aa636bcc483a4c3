// Package hclout renders an assembled scope for output. Bookkeeping
// bindings (double-underscore names) are omitted; they describe the
// assembly, not the settings.
package hclout

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"

	"github.com/vk/splithcl/internal/scope"
)

// JSON renders the scope as an indented JSON object.
func JSON(sc *scope.Scope) ([]byte, error) {
	obj := cty.ObjectVal(visible(sc))
	raw, err := ctyjson.Marshal(obj, obj.Type())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// YAML renders the scope as a YAML mapping.
func YAML(sc *scope.Scope) ([]byte, error) {
	native := make(map[string]any)
	for name, value := range visible(sc) {
		converted, err := toNative(value)
		if err != nil {
			return nil, err
		}
		native[name] = converted
	}
	return yaml.Marshal(native)
}

func visible(sc *scope.Scope) map[string]cty.Value {
	values := make(map[string]cty.Value)
	for _, name := range sc.Names() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		if value, err := sc.Get(name); err == nil {
			values[name] = value
		}
	}
	return values
}
