// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package mux implements an XMPP multiplexer.
//
// Stanzas are matched by their kind (message, presence, or IQ), their type
// attribute, and the XML names of their immediate child elements, and are
// dispatched to the most specific registered handler: an exact type and
// payload match wins over a wildcard type, which wins over a wildcard
// payload.
// Handlers receive a token stream that replays the entire stanza, so they can
// decode it however they see fit, and may write response stanzas back to the
// same stream.
package mux // import "mellium.im/imstate/mux"

import (
	"encoding/xml"
	"io"

	"mellium.im/xmlstream"

	"mellium.im/imstate"
	"mellium.im/imstate/stanza"
)

const (
	iqStanza   = "iq"
	msgStanza  = "message"
	presStanza = "presence"
)

type pattern struct {
	Stanza  string
	Payload xml.Name
	Type    string
}

func (p pattern) String() string {
	return p.Stanza + "[type=" + p.Type + "]{" + p.Payload.Space + "}" + p.Payload.Local
}

// ServeMux is an XMPP stanza multiplexer.
type ServeMux struct {
	patterns         map[xml.Name]imstate.Handler
	iqPatterns       map[pattern]IQHandler
	msgPatterns      map[pattern]MessageHandler
	presencePatterns map[pattern]PresenceHandler
}

// New allocates and returns a new ServeMux.
func New(opt ...Option) *ServeMux {
	m := &ServeMux{}
	for _, o := range opt {
		o(m)
	}
	return m
}

// HandleXMPP dispatches the element to the handler whose pattern most closely
// matches it.
func (m *ServeMux) HandleXMPP(t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	if !stanza.Is(start.Name) {
		if h, ok := m.topLevelHandler(start.Name); ok {
			return h.HandleXMPP(t, start)
		}
		return nil
	}

	toks, payloads, err := bufferStanza(t, start)
	if err != nil {
		return err
	}
	r := &bufReader{toks: toks, Encoder: t}

	switch start.Name.Local {
	case iqStanza:
		iq, err := stanza.NewIQ(*start)
		if err != nil {
			return err
		}
		for _, payload := range payloads {
			if h, ok := m.iqHandler(iq.Type, payload.Name); ok {
				return h.HandleIQ(iq, r, &payload)
			}
		}
		if h, ok := m.iqHandler(iq.Type, xml.Name{}); ok {
			var payload *xml.StartElement
			if len(payloads) > 0 {
				payload = &payloads[0]
			}
			return h.HandleIQ(iq, r, payload)
		}
		return iqFallback(iq, t)
	case msgStanza:
		msg, err := stanza.NewMessage(*start)
		if err != nil {
			return err
		}
		for _, payload := range payloads {
			if h, ok := m.msgHandler(msg.Type, payload.Name); ok {
				return h.HandleMessage(msg, r)
			}
		}
		if h, ok := m.msgHandler(msg.Type, xml.Name{}); ok {
			return h.HandleMessage(msg, r)
		}
	case presStanza:
		p, err := stanza.NewPresence(*start)
		if err != nil {
			return err
		}
		for _, payload := range payloads {
			if h, ok := m.presenceHandler(p.Type, payload.Name); ok {
				return h.HandlePresence(p, r)
			}
		}
		if h, ok := m.presenceHandler(p.Type, xml.Name{}); ok {
			return h.HandlePresence(p, r)
		}
	}
	return nil
}

func (m *ServeMux) topLevelHandler(name xml.Name) (imstate.Handler, bool) {
	h := m.patterns[name]
	if h != nil {
		return h, true
	}

	n := name
	n.Space = ""
	h = m.patterns[n]
	if h != nil {
		return h, true
	}

	n = name
	n.Local = ""
	h = m.patterns[n]
	if h != nil {
		return h, true
	}

	return nil, false
}

func (m *ServeMux) iqHandler(typ stanza.IQType, payload xml.Name) (IQHandler, bool) {
	h, ok := m.iqPatterns[pattern{Stanza: iqStanza, Payload: payload, Type: string(typ)}]
	if !ok {
		h, ok = m.iqPatterns[pattern{Stanza: iqStanza, Payload: payload}]
	}
	return h, ok
}

func (m *ServeMux) msgHandler(typ stanza.MessageType, payload xml.Name) (MessageHandler, bool) {
	h, ok := m.msgPatterns[pattern{Stanza: msgStanza, Payload: payload, Type: string(typ)}]
	if !ok {
		h, ok = m.msgPatterns[pattern{Stanza: msgStanza, Payload: payload}]
	}
	return h, ok
}

func (m *ServeMux) presenceHandler(typ stanza.PresenceType, payload xml.Name) (PresenceHandler, bool) {
	h, ok := m.presencePatterns[pattern{Stanza: presStanza, Payload: payload, Type: string(typ)}]
	if !ok && typ != stanza.AvailablePresence {
		h, ok = m.presencePatterns[pattern{Stanza: presStanza, Payload: payload}]
	}
	return h, ok
}

// bufferStanza reads the remainder of the stanza started by start and returns
// all of its tokens (including the copied start token) along with the start
// elements of the stanza's immediate children.
func bufferStanza(t xml.TokenReader, start *xml.StartElement) ([]xml.Token, []xml.StartElement, error) {
	toks := []xml.Token{start.Copy()}
	var payloads []xml.StartElement
	depth := 1
	for depth > 0 {
		tok, err := t.Token()
		if err != nil {
			return nil, nil, err
		}
		tok = xml.CopyToken(tok)
		switch tt := tok.(type) {
		case xml.StartElement:
			if depth == 1 {
				payloads = append(payloads, tt)
			}
			depth++
		case xml.EndElement:
			depth--
		}
		toks = append(toks, tok)
	}
	return toks, payloads, nil
}

// bufReader replays a buffered stanza while writing responses through to the
// original stream.
type bufReader struct {
	toks []xml.Token
	xmlstream.Encoder
}

func (r *bufReader) Token() (xml.Token, error) {
	if len(r.toks) == 0 {
		return nil, io.EOF
	}
	var tok xml.Token
	tok, r.toks = r.toks[0], r.toks[1:]
	return tok, nil
}

func iqFallback(iq stanza.IQ, t xmlstream.TokenReadEncoder) error {
	if iq.Type == stanza.ResultIQ || iq.Type == stanza.ErrorIQ {
		return nil
	}

	iq.To, iq.From = iq.From, iq.To
	iq.Type = stanza.ErrorIQ
	e := stanza.Error{
		Type:      stanza.Cancel,
		Condition: stanza.ServiceUnavailable,
	}
	_, err := xmlstream.Copy(t, iq.Wrap(e.TokenReader()))
	return err
}
