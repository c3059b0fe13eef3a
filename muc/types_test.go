// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc_test

import (
	"encoding/xml"
	"strconv"
	"testing"

	"mellium.im/imstate/muc"
)

var (
	_ xml.MarshalerAttr   = (*muc.Role)(nil)
	_ xml.UnmarshalerAttr = (*muc.Role)(nil)
	_ xml.MarshalerAttr   = (*muc.Affiliation)(nil)
	_ xml.UnmarshalerAttr = (*muc.Affiliation)(nil)
)

var affiliationTests = [...]struct {
	value string
	want  muc.Affiliation
}{
	0: {value: "owner", want: muc.AffiliationOwner},
	1: {value: "Owner", want: muc.AffiliationOwner},
	2: {value: "outcast", want: muc.AffiliationOutcast},
	3: {value: "none", want: muc.AffiliationNone},
	4: {value: "", want: muc.AffiliationNone},
	5: {value: "bogus", want: muc.AffiliationNone},
}

func TestAffiliationAttr(t *testing.T) {
	for i, tc := range affiliationTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var a muc.Affiliation
			err := a.UnmarshalXMLAttr(xml.Attr{Name: xml.Name{Local: "affiliation"}, Value: tc.value})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a != tc.want {
				t.Errorf("wrong affiliation: want=%v, got=%v", tc.want, a)
			}
		})
	}
}

var roleTests = [...]struct {
	value string
	want  muc.Role
}{
	0: {value: "moderator", want: muc.RoleModerator},
	1: {value: "PARTICIPANT", want: muc.RoleParticipant},
	2: {value: "visitor", want: muc.RoleVisitor},
	3: {value: "", want: muc.RoleNone},
	4: {value: "bogus", want: muc.RoleNone},
}

func TestRoleAttr(t *testing.T) {
	for i, tc := range roleTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var r muc.Role
			err := r.UnmarshalXMLAttr(xml.Attr{Name: xml.Name{Local: "role"}, Value: tc.value})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r != tc.want {
				t.Errorf("wrong role: want=%v, got=%v", tc.want, r)
			}
		})
	}
}

func TestRoomStateString(t *testing.T) {
	if got := muc.StatePreJoin.String(); got != "pre-join" {
		t.Errorf("wrong string: got=%q", got)
	}
	if got := muc.StateError.String(); got != "join-error" {
		t.Errorf("wrong string: got=%q", got)
	}
}
