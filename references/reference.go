// Package references finds and interprets $ref values in OpenAPI documents.
package references

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/specslim/specslim/jsonpointer"
)

const (
	// ComponentsPrefix prefixes every local component reference.
	ComponentsPrefix = "#/components/"
	// SchemasPrefix prefixes every local schema reference.
	SchemasPrefix = ComponentsPrefix + "schemas/"
)

// Reference is a $ref value such as "#/components/schemas/Pet".
type Reference string

var _ fmt.Stringer = (*Reference)(nil)

// ComponentRef builds the local reference for the named component.
func ComponentRef(componentType, name string) Reference {
	return Reference(ComponentsPrefix + jsonpointer.EscapeString(componentType) + "/" + jsonpointer.EscapeString(name))
}

// SchemaRef builds the local reference for the named schema.
func SchemaRef(name string) Reference {
	return ComponentRef("schemas", name)
}

func (r Reference) GetURI() string {
	uri, _, _ := strings.Cut(string(r), "#")
	return strings.TrimSpace(uri)
}

func (r Reference) HasJSONPointer() bool {
	return strings.Contains(string(r), "#")
}

func (r Reference) GetJSONPointer() jsonpointer.JSONPointer {
	_, pointer, found := strings.Cut(string(r), "#")
	if !found {
		return ""
	}

	pointer = strings.TrimSpace(pointer)

	// percent-encoded characters like %25
	if decoded, err := url.PathUnescape(pointer); err == nil {
		pointer = decoded
	}

	return jsonpointer.JSONPointer(pointer)
}

// IsLocal reports whether the reference points into the current document.
func (r Reference) IsLocal() bool {
	return r.GetURI() == "" && r.HasJSONPointer()
}

// Component returns the component type and name a local reference targets.
// References into a component body ("#/components/schemas/Pet/properties/id") name the enclosing component.
func (r Reference) Component() (componentType, name string, ok bool) {
	if !r.IsLocal() {
		return "", "", false
	}

	parts, err := r.GetJSONPointer().Parts()
	if err != nil || len(parts) < 3 || parts[0] != "components" {
		return "", "", false
	}

	if parts[1] == "" || parts[2] == "" {
		return "", "", false
	}

	return parts[1], parts[2], true
}

// Schema returns the schema name targeted by the reference, if it is a local schema reference.
func (r Reference) Schema() (string, bool) {
	componentType, name, ok := r.Component()
	if !ok || componentType != "schemas" {
		return "", false
	}
	return name, true
}

func (r Reference) Validate() error {
	if r == "" {
		return errors.New("invalid reference: empty")
	}

	if uri := r.GetURI(); uri != "" {
		if _, err := url.Parse(uri); err != nil {
			return fmt.Errorf("invalid reference URI: %w", err)
		}
	}

	if r.HasJSONPointer() {
		if err := r.GetJSONPointer().Validate(); err != nil {
			return fmt.Errorf("invalid reference JSON pointer: %w", err)
		}
	}

	return nil
}

func (r Reference) String() string {
	return string(r)
}
