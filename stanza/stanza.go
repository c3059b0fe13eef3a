// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package stanza contains functionality for dealing with XMPP stanzas and
// stanza level errors.
//
// Stanzas (Message, Presence, and IQ) are the basic building blocks of an
// XMPP stream.
// This package contains the types themselves, functionality for wrapping
// payloads in stanzas, and a representation of stanza level errors, including
// the translation of error conditions and legacy numeric error codes into the
// small closed set of reasons that the stateful packages in this module
// report to their host.
package stanza // import "mellium.im/imstate/stanza"

import (
	"encoding/xml"

	"mellium.im/imstate/internal/ns"
)

// Is tests whether name is a valid stanza based on its name and namespace.
func Is(name xml.Name) bool {
	return (name.Local == "iq" || name.Local == "message" || name.Local == "presence") &&
		(name.Space == "" || name.Space == ns.Client || name.Space == ns.Server)
}
