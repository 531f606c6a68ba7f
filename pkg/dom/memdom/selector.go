package memdom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrInvalidSelector is returned for selectors outside the supported
// subset: tag, #id, .class, their compounds, descendant chains and comma
// separated groups.
var ErrInvalidSelector = errors.New("invalid selector")

type compound struct {
	tag     string
	id      string
	classes []string
}

// chain is a descendant selector; the last compound matches the element.
type chain []compound

func parseSelector(s string) ([]chain, error) {
	var groups []chain
	for _, group := range strings.Split(s, ",") {
		fields := strings.Fields(group)
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
		}
		c := make(chain, 0, len(fields))
		for _, f := range fields {
			comp, err := parseCompound(f)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, s)
			}
			c = append(c, comp)
		}
		groups = append(groups, c)
	}
	return groups, nil
}

func parseCompound(s string) (compound, error) {
	var c compound
	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '#' {
		i++
	}
	c.tag = strings.ToLower(s[:i])
	if c.tag != "*" && !validIdent(c.tag) && c.tag != "" {
		return c, ErrInvalidSelector
	}
	if c.tag == "*" {
		c.tag = ""
	}

	for i < len(s) {
		kind := s[i]
		j := i + 1
		for j < len(s) && s[j] != '.' && s[j] != '#' {
			j++
		}
		name := s[i+1 : j]
		if !validIdent(name) {
			return c, ErrInvalidSelector
		}
		if kind == '#' {
			if c.id != "" {
				return c, ErrInvalidSelector
			}
			c.id = name
		} else {
			c.classes = append(c.classes, name)
		}
		i = j
	}

	if c.tag == "" && c.id == "" && len(c.classes) == 0 && s != "*" {
		return c, ErrInvalidSelector
	}
	return c, nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range c.classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	return true
}

func (c chain) matches(n *html.Node) bool {
	last := len(c) - 1
	if !c[last].matches(n) {
		return false
	}
	i := last - 1
	for p := n.Parent; p != nil && i >= 0; p = p.Parent {
		if c[i].matches(p) {
			i--
		}
	}
	return i < 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
