// Copyright 2014 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid_test

import (
	"strconv"
	"testing"

	"mellium.im/imstate/jid"
)

var splitTests = [...]struct {
	jid                string
	local, domain, res string
	err                bool
}{
	0: {jid: "example.net", domain: "example.net"},
	1: {jid: "juliet@example.com", local: "juliet", domain: "example.com"},
	2: {jid: "juliet@example.com/balcony", local: "juliet", domain: "example.com", res: "balcony"},
	3: {jid: "example.net/foo@bar", domain: "example.net", res: "foo@bar"},
	4: {jid: "example.net/foo/bar", domain: "example.net", res: "foo/bar"},
	5: {jid: "example.net.", domain: "example.net"},
	6: {jid: "@example.net", err: true},
	7: {jid: "example.net/", err: true},
	8: {jid: "room@muc.example.org/third witch", local: "room", domain: "muc.example.org", res: "third witch"},
}

func TestSplitString(t *testing.T) {
	for i, tc := range splitTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			local, domain, res, err := jid.SplitString(tc.jid)
			switch {
			case tc.err && err == nil:
				t.Fatalf("expected error when splitting %q", tc.jid)
			case !tc.err && err != nil:
				t.Fatalf("unexpected error when splitting %q: %v", tc.jid, err)
			case tc.err:
				return
			}
			if local != tc.local || domain != tc.domain || res != tc.res {
				t.Errorf("wrong split: want=%q %q %q, got=%q %q %q",
					tc.local, tc.domain, tc.res, local, domain, res)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for i, s := range [...]string{
		"example.net",
		"juliet@example.com",
		"juliet@example.com/balcony",
		"room@muc.example.org/third witch",
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			j, err := jid.Parse(s)
			if err != nil {
				t.Fatalf("unexpected error parsing %q: %v", s, err)
			}
			if out := j.String(); out != s {
				t.Errorf("JID did not round trip: want=%q, got=%q", s, out)
			}
		})
	}
}

func TestCanonicalization(t *testing.T) {
	j, err := jid.Parse("JULIET@EXAMPLE.COM/Balcony")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Localpart() != "juliet" {
		t.Errorf("localpart was not case mapped: got=%q", j.Localpart())
	}
	// Resourceparts are opaque and must keep their case.
	if j.Resourcepart() != "Balcony" {
		t.Errorf("resourcepart was mangled: got=%q", j.Resourcepart())
	}
}

func TestBareAndResource(t *testing.T) {
	j := jid.MustParse("juliet@example.com/balcony")
	if !j.Bare().Equal(jid.MustParse("juliet@example.com")) {
		t.Errorf("wrong bare JID: got=%v", j.Bare())
	}
	j2, err := j.Bare().WithResource("chamber")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j2.String() != "juliet@example.com/chamber" {
		t.Errorf("wrong JID after WithResource: got=%v", j2)
	}
	if j.Equal(j2) {
		t.Errorf("JIDs with different resourceparts compared equal")
	}
}
