package jsonpointer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type partType string

const (
	partTypeKey   partType = "key"
	partTypeIndex partType = "index"
)

// navigationPart is a single reference token; Value is still escaped.
type navigationPart struct {
	Type  partType
	Value string
}

func (n navigationPart) unescapeValue() string {
	return unescape(n.Value)
}

func (n navigationPart) getIndex() (int, bool) {
	if n.Type != partTypeIndex {
		return 0, false
	}
	index, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, false
	}
	return index, true
}

var (
	// a "~" must be followed by 0 or 1
	badEscapeRegex = regexp.MustCompile(`~([^01]|$)`)
	digitOnlyRegex = regexp.MustCompile("^[0-9]+$")
)

func newNavigationPart(token string) navigationPart {
	if digitOnlyRegex.MatchString(token) && (len(token) == 1 || token[0] != '0') {
		return navigationPart{Type: partTypeIndex, Value: token}
	}
	return navigationPart{Type: partTypeKey, Value: token}
}

func (j JSONPointer) getNavigationStack() ([]navigationPart, error) {
	if len(j) == 0 {
		return nil, nil
	}

	if !strings.HasPrefix(string(j), "/") {
		return nil, fmt.Errorf("jsonpointer must start with /: %s", string(j))
	}

	return splitTokens(strings.TrimPrefix(string(j), "/"))
}

func splitTokens(s string) ([]navigationPart, error) {
	strParts := strings.Split(s, "/")
	stack := make([]navigationPart, 0, len(strParts))

	for _, part := range strParts {
		if badEscapeRegex.MatchString(part) {
			return nil, fmt.Errorf("invalid escape sequence in token %q", part)
		}
		stack = append(stack, newNavigationPart(part))
	}

	return stack, nil
}
