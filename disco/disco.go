// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package disco implements service discovery (XEP-0030) feature tracking.
//
// The Cache type remembers which feature URNs each peer (a server, a
// component, or a chat room) has advertised so that other packages can adapt
// their protocol behavior to the peer's capabilities, and keeps the sorted
// list of features the local client advertises about itself.
package disco // import "mellium.im/imstate/disco"

// Namespaces used by this package, provided as a convenience.
const (
	NSInfo  = `http://jabber.org/protocol/disco#info`
	NSItems = `http://jabber.org/protocol/disco#items`
)
