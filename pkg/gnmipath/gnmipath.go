// Package gnmipath parses human-readable xpath strings into the structured
// path representation gNMI expects.
//
// The parsing algorithm (bracket-depth-aware slash splitting, then a single
// regex per path component) is a clean-room port of the xpath_to_gnmi helper
// shipped with Google's gnxi tools, which is where the original Python
// implementation of this adapter took it from.
package gnmipath

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openconfig/gnmi/proto/gnmi"
)

// XpathError reports a malformed xpath component. Callers are expected to
// log it and skip the offending path rather than abort.
type XpathError struct {
	Xpath string
	Msg   string
}

func (e *XpathError) Error() string {
	return fmt.Sprintf("xpath error: %s: %s", e.Xpath, e.Msg)
}

// PathElement is one element of a Path: a name plus zero or more YANG list
// keys.
type PathElement struct {
	Name string
	Keys map[string]string
}

// Path is the structured, immutable representation of a gNMI path.
type Path struct {
	Elements []PathElement
	Origin   string
	Target   string
}

// ToProto converts Path to the gNMI wire representation.
func (p Path) ToProto() *gnmi.Path {
	elems := make([]*gnmi.PathElem, 0, len(p.Elements))
	for _, e := range p.Elements {
		elems = append(elems, &gnmi.PathElem{Name: e.Name, Key: e.Keys})
	}
	return &gnmi.Path{
		Elem:   elems,
		Origin: p.Origin,
		Target: p.Target,
	}
}

// pathComponent matches a single slash-separated xpath element: a name,
// optionally followed by one bracketed "[key=value]" fragment. When a
// component carries keys, every "[k=v]" fragment found in it is folded into
// one keymap (see XpathToGNMI).
var pathComponent = regexp.MustCompile(`^(?P<name>[^\[]+)(\[(?P<key>\w\D*)=(?P<value>.*)\])?$`)

// keyFragment extracts every individual "[k=v]" fragment out of a component
// so multi-keyed list elements (e.g. "interface[name=eth0][role=uplink]")
// collect all of their keys.
var keyFragment = regexp.MustCompile(`\[([^\[\]]*)]`)

// XpathToGNMI parses a slash-separated xpath into a Path.
//
// Each element is "name" optionally followed by one or more bracketed
// "[key=value]" fragments; a bracketed fragment may itself contain "/",
// so splitting on "/" must happen at bracket depth zero. Empty input or "/"
// fails with an *XpathError, as does any malformed component.
func XpathToGNMI(xpath, origin, target string) (Path, error) {
	if xpath == "" || xpath == "/" {
		return Path{}, &XpathError{Xpath: xpath, Msg: "a blank xpath was provided"}
	}

	trimmed := strings.Trim(xpath, "/")
	components := splitAtBracketDepthZero(trimmed)

	elements := make([]PathElement, 0, len(components))
	for _, comp := range components {
		match := pathComponent.FindStringSubmatch(comp)
		if match == nil {
			return Path{}, &XpathError{Xpath: xpath, Msg: fmt.Sprintf("component parse error: %s", comp)}
		}
		nameIdx := pathComponent.SubexpIndex("name")
		keyIdx := pathComponent.SubexpIndex("key")
		name := match[nameIdx]

		if match[keyIdx] == "" {
			elements = append(elements, PathElement{Name: comp, Keys: map[string]string{}})
			continue
		}

		keys := make(map[string]string)
		for _, kv := range keyFragment.FindAllStringSubmatch(comp, -1) {
			k, v, ok := strings.Cut(kv[1], "=")
			if !ok {
				continue
			}
			keys[k] = v
		}
		elements = append(elements, PathElement{Name: name, Keys: keys})
	}

	return Path{Elements: elements, Origin: origin, Target: target}, nil
}

// splitAtBracketDepthZero splits s on "/" but never inside a "[...]"
// fragment, so keys that themselves contain a slash are not split apart.
func splitAtBracketDepthZero(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
