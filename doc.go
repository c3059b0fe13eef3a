// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package imstate provides the plumbing shared by the stateful instant
// messaging packages in this module.
//
// The packages in this module turn a stream of decoded stanzas into a
// consistent in-memory model of a chat session: the contact list and the
// presence of each contact (package roster), membership in group chats
// (package muc), and the features advertised by peers (package disco).
// They own no sockets and perform no I/O of their own; stanzas are fed in
// through the Handler contract and outgoing stanzas are handed to a Sender
// implemented by the host session.
//
// Handlers are driven by a single goroutine, one stanza at a time, in stream
// order. None of the stateful types in this module lock: the host's serve
// loop is the only writer.
package imstate // import "mellium.im/imstate"
