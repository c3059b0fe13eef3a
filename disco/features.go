// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package disco

import (
	"encoding/xml"
	"sort"

	"mellium.im/xmlstream"

	"mellium.im/imstate/jid"
	"mellium.im/imstate/mux"
	"mellium.im/imstate/stanza"
)

// Features is a sorted, deduplicated set of feature URNs.
//
// The zero value is an empty set ready for use.
type Features []string

// Has reports whether the set contains the exact feature URN.
func (f Features) Has(uri string) bool {
	i := sort.SearchStrings(f, uri)
	return i < len(f) && f[i] == uri
}

// Add inserts the feature URN, keeping the set sorted.
// Adding a feature that is already present has no effect.
func (f *Features) Add(uri string) {
	i := sort.SearchStrings(*f, uri)
	if i < len(*f) && (*f)[i] == uri {
		return
	}
	*f = append(*f, "")
	copy((*f)[i+1:], (*f)[i:])
	(*f)[i] = uri
}

// Cache tracks the features advertised by each peer on the network along
// with the features the local entity advertises about itself.
//
// Remote feature sets are replaced wholesale each time a fresh discovery
// response arrives; they are never merged incrementally, so a peer that stops
// advertising a feature is forgotten to have had it.
type Cache struct {
	// Discovered, if not nil, is called each time a discovery response
	// replaces a peer's feature set.
	Discovered func(peer jid.JID, f Features)

	local  Features
	remote map[string]Features
}

// Set replaces the peer's entire feature set.
func (c *Cache) Set(peer jid.JID, f Features) {
	if c.remote == nil {
		c.remote = make(map[string]Features)
	}
	c.remote[peer.Bare().String()] = f
	if c.Discovered != nil {
		c.Discovered(peer, f)
	}
}

// Get returns the peer's last known feature set (which may be nil).
func (c *Cache) Get(peer jid.JID) Features {
	return c.remote[peer.Bare().String()]
}

// Has reports whether the peer is known to support the feature.
func (c *Cache) Has(peer jid.JID, uri string) bool {
	return c.Get(peer).Has(uri)
}

// AddLocal adds a feature to the set advertised by the local entity.
func (c *Cache) AddLocal(uri string) {
	c.local.Add(uri)
}

// Local returns the features advertised by the local entity.
func (c *Cache) Local() Features {
	return c.local
}

// HandleIQ satisfies mux.IQHandler.
// It records the features carried by a disco#info result.
func (c *Cache) HandleIQ(iq stanza.IQ, t xmlstream.TokenReadEncoder, _ *xml.StartElement) error {
	d := xml.NewTokenDecoder(t)
	resp := struct {
		stanza.IQ
		Info Info `xml:"http://jabber.org/protocol/disco#info query"`
	}{}
	err := d.Decode(&resp)
	if err != nil {
		return err
	}
	c.Set(iq.From, resp.Info.Features())
	return nil
}

// HandleCache returns an option that registers the cache for use with a
// multiplexer.
func HandleCache(c *Cache) mux.Option {
	return mux.IQ(stanza.ResultIQ, xml.Name{Space: NSInfo, Local: "query"}, c)
}
