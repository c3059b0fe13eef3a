// Copyright 2018 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package roster implements contact list functionality.
//
// Unlike most XMPP roster implementations this package is stateful: the
// Store type keeps the canonical group → user → resource graph for one
// session, updates it from roster pushes and presence stanzas, and reports
// every observable change through typed callbacks.
// The wire types (Item and IQ) can also be used on their own for stateless
// roster requests.
package roster // import "mellium.im/imstate/roster"

import (
	"encoding/xml"
	"io"

	"mellium.im/xmlstream"

	"mellium.im/imstate/jid"
	"mellium.im/imstate/stanza"
)

// NS is the namespace used by this package, provided as a convenience.
const NS = "jabber:iq:roster"

// Subscription is the state of a presence subscription between the local
// account and a contact.
type Subscription string

// Valid states of a roster subscription.
const (
	// SubNone indicates that there is no presence subscription in either
	// direction.
	SubNone Subscription = "none"

	// SubTo indicates that the local account is subscribed to the contact's
	// presence.
	SubTo Subscription = "to"

	// SubFrom indicates that the contact is subscribed to the local account's
	// presence.
	SubFrom Subscription = "from"

	// SubBoth indicates a mutual subscription.
	SubBoth Subscription = "both"

	// SubRemove is not a state: it is only ever seen on a roster push and
	// instructs the client to delete the contact.
	SubRemove Subscription = "remove"
)

// Item represents a contact in the roster.
type Item struct {
	JID          jid.JID      `xml:"jid,attr,omitempty"`
	Name         string       `xml:"name,attr,omitempty"`
	Subscription Subscription `xml:"subscription,attr,omitempty"`
	Group        string       `xml:"group,omitempty"`
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (item Item) TokenReader() xml.TokenReader {
	var group xml.TokenReader
	if item.Group != "" {
		group = xmlstream.Wrap(
			xmlstream.Token(xml.CharData(item.Group)),
			xml.StartElement{
				Name: xml.Name{Local: "group"},
			},
		)
	}

	attrs := []xml.Attr{}
	if j := item.JID.String(); j != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "jid"}, Value: j})
	}
	if item.Name != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "name"}, Value: item.Name})
	}
	if item.Subscription != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "subscription"}, Value: string(item.Subscription)})
	}

	return xmlstream.Wrap(
		group,
		xml.StartElement{
			Name: xml.Name{Local: "item"},
			Attr: attrs,
		},
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (item Item) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, item.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (item Item) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := item.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// IQ represents a user roster request or response.
// The zero value is a valid query for the roster.
type IQ struct {
	stanza.IQ

	Query struct {
		Ver  string `xml:"ver,attr,omitempty"`
		Item []Item `xml:"item"`
	} `xml:"jabber:iq:roster query"`
}

type itemMarshaler struct {
	items []Item
	cur   xml.TokenReader
}

func (m *itemMarshaler) Token() (xml.Token, error) {
	if m.cur == nil {
		if len(m.items) == 0 {
			return nil, io.EOF
		}
		var item Item
		item, m.items = m.items[0], m.items[1:]
		m.cur = item.TokenReader()
	}

	tok, err := m.cur.Token()
	if err != nil && err != io.EOF {
		return tok, err
	}

	if tok == nil {
		m.cur = nil
		return m.Token()
	}

	return tok, nil
}

// TokenReader returns a stream of XML tokens that match the IQ.
func (iq IQ) TokenReader() xml.TokenReader {
	attrs := []xml.Attr{}
	if iq.Query.Ver != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "ver"}, Value: iq.Query.Ver})
	}
	if iq.IQ.Type == "" {
		iq.IQ.Type = stanza.GetIQ
	}

	return iq.IQ.Wrap(xmlstream.Wrap(
		&itemMarshaler{items: iq.Query.Item},
		xml.StartElement{Name: xml.Name{Local: "query", Space: NS}, Attr: attrs},
	))
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (iq IQ) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, iq.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (iq IQ) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := iq.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}
