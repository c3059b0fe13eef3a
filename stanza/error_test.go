// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza_test

import (
	"errors"
	"strconv"
	"testing"

	"mellium.im/imstate/internal/xmpptest"
	"mellium.im/imstate/stanza"
)

var (
	_ error           = stanza.Error{}
	_ error           = (*stanza.Error)(nil)
	_ errorIser       = stanza.Error{}
	_ fmtStringerLike = stanza.ReasonUnknown
)

type errorIser interface {
	Is(error) bool
}

type fmtStringerLike interface {
	String() string
}

var encodingTestCases = [...]xmpptest.EncodingTestCase{
	0: {
		Value:       &stanza.Error{Condition: stanza.ServiceUnavailable},
		XML:         `<error><service-unavailable xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></service-unavailable></error>`,
		NoUnmarshal: true,
	},
	1: {
		Value:       &stanza.Error{Type: stanza.Cancel, Condition: stanza.Conflict},
		XML:         `<error type="cancel"><conflict xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></conflict></error>`,
		NoUnmarshal: true,
	},
	2: {
		Value:       &stanza.Error{Type: stanza.Auth, Code: 401, Condition: stanza.NotAuthorized},
		XML:         `<error type="auth" code="401"><not-authorized xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></not-authorized></error>`,
		NoUnmarshal: true,
	},
	3: {
		Value: &stanza.Error{Type: stanza.Cancel, Condition: stanza.ItemNotFound, Text: map[string]string{
			"en": "No such room",
		}},
		XML:         `<error type="cancel"><item-not-found xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></item-not-found><text xmlns="urn:ietf:params:xml:ns:xmpp-stanzas" xml:lang="en">No such room</text></error>`,
		NoUnmarshal: true,
	},
	4: {
		Value:     &stanza.Error{Type: stanza.Modify, Condition: stanza.NotAcceptable},
		XML:       `<error type="modify"><not-acceptable xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"/></error>`,
		NoMarshal: true,
	},
	5: {
		// Legacy errors carry only a code attribute.
		Value:     &stanza.Error{Code: 409},
		XML:       `<error code="409"/>`,
		NoMarshal: true,
	},
	6: {
		// Conditions outside the stanza error namespace are ignored.
		Value:     &stanza.Error{Type: stanza.Cancel},
		XML:       `<error type="cancel"><unknown xmlns="com.example"/></error>`,
		NoMarshal: true,
	},
}

func TestEncodeError(t *testing.T) {
	xmpptest.RunEncodingTests(t, encodingTestCases[:])
}

func TestErrorIs(t *testing.T) {
	err := error(stanza.Error{Type: stanza.Cancel, Condition: stanza.Conflict})
	if !errors.Is(err, stanza.Error{}) {
		t.Error("expected the error to match the empty stanza error")
	}
	if !errors.Is(err, stanza.Error{Condition: stanza.Conflict}) {
		t.Error("expected the error to match its own condition")
	}
	if errors.Is(err, stanza.Error{Condition: stanza.Forbidden}) {
		t.Error("expected the error not to match a different condition")
	}
	if errors.Is(err, errors.New("conflict")) {
		t.Error("expected the error not to match a plain error")
	}
}

var reasonTests = [...]struct {
	err  stanza.Error
	want stanza.Reason
}{
	0: {want: stanza.ReasonUnknown},
	1: {err: stanza.Error{Condition: stanza.Forbidden}, want: stanza.ReasonAuthorization},
	2: {err: stanza.Error{Condition: stanza.NotAuthorized}, want: stanza.ReasonAuthorization},
	3: {err: stanza.Error{Condition: stanza.RegistrationRequired}, want: stanza.ReasonAuthorization},
	4: {err: stanza.Error{Condition: stanza.Conflict}, want: stanza.ReasonConflict},
	5: {err: stanza.Error{Condition: stanza.RemoteServerTimeout}, want: stanza.ReasonTimeout},
	6: {err: stanza.Error{Condition: stanza.ServiceUnavailable}, want: stanza.ReasonUnavailable},
	7: {err: stanza.Error{Condition: stanza.ItemNotFound}, want: stanza.ReasonUnavailable},
	8: {err: stanza.Error{Condition: stanza.BadRequest}, want: stanza.ReasonUnknown},

	// The numeric code only matters when no condition was present.
	9:  {err: stanza.Error{Code: 401}, want: stanza.ReasonAuthorization},
	10: {err: stanza.Error{Code: 409}, want: stanza.ReasonConflict},
	11: {err: stanza.Error{Code: 504}, want: stanza.ReasonTimeout},
	12: {err: stanza.Error{Code: 503}, want: stanza.ReasonUnavailable},
	13: {err: stanza.Error{Code: 500}, want: stanza.ReasonUnknown},
	14: {err: stanza.Error{Condition: stanza.BadRequest, Code: 409}, want: stanza.ReasonUnknown},
}

func TestReason(t *testing.T) {
	for i, tc := range reasonTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if got := tc.err.Reason(); got != tc.want {
				t.Errorf("wrong reason: want=%v, got=%v", tc.want, got)
			}
		})
	}
}

func TestReasonString(t *testing.T) {
	if s := stanza.ReasonConflict.String(); s != "conflict" {
		t.Errorf("wrong name: want=%q, got=%q", "conflict", s)
	}
	if s := stanza.Reason(200).String(); s != "unknown" {
		t.Errorf("wrong name: want=%q, got=%q", "unknown", s)
	}
}
