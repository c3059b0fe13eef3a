// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package presence models the availability of a single connected resource.
//
// The types in this package are shared by the roster and muc packages: both
// keep a State per resource (or per room occupant) and both use Changed to
// decide whether an incoming presence actually changed anything and is worth
// reporting.
package presence // import "mellium.im/imstate/presence"

import (
	"encoding/xml"
	"strconv"

	"mellium.im/xmlstream"
)

// Show is the availability sub-state of a presence.
//
// The values are ordered by "richness": a resource that is free to chat
// compares greater than one that is merely available, which compares greater
// than one that is away, and so on down to unavailable.
// This ordering drives the sorting of resources and of roster entries.
type Show uint8

// Valid Show values, least to most available.
const (
	Unavailable Show = iota
	Error
	ExtendedAway
	DoNotDisturb
	Away
	Available
	Chat
)

// String returns the value of the <show/> element that represents s.
// Unavailable and Error have no element form and return a descriptive name
// instead.
func (s Show) String() string {
	switch s {
	case Unavailable:
		return "unavailable"
	case Error:
		return "error"
	case ExtendedAway:
		return "xa"
	case DoNotDisturb:
		return "dnd"
	case Away:
		return "away"
	case Chat:
		return "chat"
	}
	return ""
}

// ParseShow maps the text of a <show/> element onto a Show.
// The empty string means the entity is simply available; unrecognized values
// are treated the same way, per RFC 6121 §4.7.2.1.
func ParseShow(s string) Show {
	switch s {
	case "chat":
		return Chat
	case "away":
		return Away
	case "dnd":
		return DoNotDisturb
	case "xa":
		return ExtendedAway
	}
	return Available
}

// State is the canonical presence of a single resource or room occupant.
type State struct {
	Show     Show
	Status   string
	Priority int8
}

// Changed reports whether new represents an actual change from old.
//
// It is the single source of truth for whether a presence update must be
// propagated: callers only re-sort and emit events when Changed returns true.
// Room occupants have no priority; callers compare them with both priorities
// zero.
func Changed(old, new State) bool {
	return old.Show != new.Show ||
		old.Status != new.Status ||
		old.Priority != new.Priority
}

// ParsePriority parses the text of a <priority/> element.
// The value must fit the signed byte range [-128, 127]; ok is false for
// malformed or out-of-range values, which callers must ignore in favor of the
// previously stored priority.
func ParsePriority(s string) (prio int8, ok bool) {
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, false
	}
	return int8(v), true
}

// Payload is the decoded form of the availability children of a presence
// stanza.
// Priority is kept as text so that out-of-range values can be rejected
// without losing the distinction from an absent element.
type Payload struct {
	Show     string `xml:"show"`
	Status   string `xml:"status"`
	Priority string `xml:"priority"`
}

// State converts the raw payload into a State, using old to fill in the
// priority when the payload has none (or an invalid one).
func (p Payload) State(old State) State {
	s := State{
		Show:     ParseShow(p.Show),
		Status:   p.Status,
		Priority: old.Priority,
	}
	if p.Priority != "" {
		if prio, ok := ParsePriority(p.Priority); ok {
			s.Priority = prio
		}
	}
	return s
}

// TokenReader encodes the state as the availability children of a presence
// stanza.
// Unavailable and Error have no <show/> form and contribute nothing.
func (s State) TokenReader() xml.TokenReader {
	var children []xml.TokenReader
	switch s.Show {
	case Unavailable, Error, Available:
	default:
		children = append(children, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(s.Show.String())),
			xml.StartElement{Name: xml.Name{Local: "show"}},
		))
	}
	if s.Status != "" {
		children = append(children, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(s.Status)),
			xml.StartElement{Name: xml.Name{Local: "status"}},
		))
	}
	if s.Priority != 0 {
		children = append(children, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(strconv.Itoa(int(s.Priority)))),
			xml.StartElement{Name: xml.Name{Local: "priority"}},
		))
	}
	return xmlstream.MultiReader(children...)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (s State) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, s.TokenReader())
}
