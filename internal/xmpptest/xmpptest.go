// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xmpptest provides helpers for testing stanza handlers without a
// network connection.
package xmpptest // import "mellium.im/imstate/internal/xmpptest"

import (
	"bytes"
	"encoding/xml"
	"strings"

	"mellium.im/xmlstream"

	"mellium.im/imstate"
)

type readEncoder struct {
	xml.TokenReader
	*xml.Encoder
}

// NewReadEncoder combines a token reader and an encoder into the
// TokenReadEncoder that stanza handlers expect.
func NewReadEncoder(r xml.TokenReader, e *xml.Encoder) xmlstream.TokenReadEncoder {
	return readEncoder{TokenReader: r, Encoder: e}
}

// Dispatch feeds the raw stanza to the handler and returns whatever XML the
// handler wrote in response.
func Dispatch(h imstate.Handler, raw string) (string, error) {
	d := xml.NewDecoder(strings.NewReader(raw))
	tok, err := d.Token()
	if err != nil {
		return "", err
	}
	start := tok.(xml.StartElement)

	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	err = h.HandleXMPP(NewReadEncoder(d, e), &start)
	if err != nil {
		return "", err
	}
	if err = e.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DispatchAll feeds each stanza to the handler in order, stopping at the
// first error.
func DispatchAll(h imstate.Handler, raw ...string) error {
	for _, r := range raw {
		if _, err := Dispatch(h, r); err != nil {
			return err
		}
	}
	return nil
}
