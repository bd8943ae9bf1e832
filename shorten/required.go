package shorten

import (
	"github.com/specslim/specslim/jsonpointer"
	"github.com/specslim/specslim/yml"
	"gopkg.in/yaml.v3"
)

const requiredKey = "required"

// RemoveRequired applies required-field removal instructions to doc.
//
// An instruction is a JSON pointer ending in "required", which drops the whole list,
// or in "required/<field>", which drops one entry. A list left empty is dropped too.
// Malformed or unresolvable instructions are skipped with a warning.
func RemoveRequired(doc *yaml.Node, instructions []string) (int, []Warning) {
	removed := 0
	var warnings []Warning

	for _, instruction := range instructions {
		n, err := removeRequired(doc, instruction)
		if err != nil {
			warnings = append(warnings, newWarning(WarningInvalidInstruction, instruction, "%s", err.Error()))
			continue
		}
		if n == 0 {
			warnings = append(warnings, newWarning(WarningNoMatch, instruction, "nothing to remove"))
		}
		removed += n
	}

	return removed, warnings
}

func removeRequired(doc *yaml.Node, instruction string) (int, error) {
	parts, err := jsonpointer.JSONPointer(instruction).Parts()
	if err != nil {
		return 0, err
	}

	var (
		parentParts []string
		field       string
		wholeList   bool
	)

	switch {
	case len(parts) >= 1 && parts[len(parts)-1] == requiredKey:
		parentParts = parts[:len(parts)-1]
		wholeList = true
	case len(parts) >= 2 && parts[len(parts)-2] == requiredKey:
		parentParts = parts[:len(parts)-2]
		field = parts[len(parts)-1]
	default:
		return 0, jsonpointer.ErrInvalidPath.Wrapf("expected a pointer ending in /required or /required/<field>")
	}

	parent, err := jsonpointer.GetTarget(doc, jsonpointer.PartsToJSONPointer(parentParts))
	if err != nil {
		return 0, err
	}
	if parent.Kind != yaml.MappingNode {
		return 0, jsonpointer.ErrInvalidPath.Wrapf("%s is not an object", jsonpointer.PartsToJSONPointer(parentParts))
	}

	if wholeList {
		if yml.DeleteMapNodeElement(parent, requiredKey) {
			return 1, nil
		}
		return 0, nil
	}

	required := yml.GetMapValue(parent, requiredKey)
	if required == nil || required.Kind != yaml.SequenceNode {
		return 0, nil
	}

	removed := 0
	kept := required.Content[:0]
	for _, entry := range required.Content {
		if entry.Kind == yaml.ScalarNode && entry.Value == field {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	required.Content = kept

	if len(required.Content) == 0 {
		yml.DeleteMapNodeElement(parent, requiredKey)
	}

	return removed, nil
}
