// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package imstate

import (
	"context"
	"encoding/xml"
)

// Sender is the outgoing half of the host session: it transmits a single top
// level stream element read from r.
//
// The stateful packages in this module never write raw bytes; every stanza
// they produce is handed to a Sender as a token stream.
// Implementations must not retain r after Send returns.
type Sender interface {
	Send(ctx context.Context, r xml.TokenReader) error
}

// The SenderFunc type is an adapter to allow the use of ordinary functions as
// senders.
type SenderFunc func(ctx context.Context, r xml.TokenReader) error

// Send calls f(ctx, r).
func (f SenderFunc) Send(ctx context.Context, r xml.TokenReader) error {
	return f(ctx, r)
}
