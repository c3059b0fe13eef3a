// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=Affiliation,Role,RoomState -linecomment

package muc

import (
	"encoding/xml"
	"strings"

	"mellium.im/imstate/jid"
)

// Affiliation indicates a users affiliation to the room.
// Affiliations are long lived and survive leaving and rejoining.
type Affiliation uint8

// A list of room affiliations.
const (
	AffiliationNone Affiliation = iota // none

	// Support for the owner affiliation is required.
	AffiliationOwner // owner

	// Support for these affiliations is recommended, but optional.
	AffiliationAdmin   // admin
	AffiliationMember  // member
	AffiliationOutcast // outcast
)

// UnmarshalXMLAttr satisfies xml.UnmarshalerAttr.
// Matching is case insensitive and unrecognized values map to
// AffiliationNone rather than being treated as an error so that servers
// which send nonstandard affiliations do not break presence handling.
func (a *Affiliation) UnmarshalXMLAttr(attr xml.Attr) error {
	switch strings.ToLower(attr.Value) {
	case AffiliationOwner.String():
		*a = AffiliationOwner
	case AffiliationAdmin.String():
		*a = AffiliationAdmin
	case AffiliationMember.String():
		*a = AffiliationMember
	case AffiliationOutcast.String():
		*a = AffiliationOutcast
	default:
		*a = AffiliationNone
	}
	return nil
}

// MarshalXMLAttr satisfies xml.MarshalerAttr.
func (a *Affiliation) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: a.String()}, nil
}

// Role indicates a users role in the room.
// Roles are transient and last only for the duration of a visit.
type Role uint8

// A list of user roles.
const (
	RoleNone Role = iota // none

	// Support for these roles is required.
	RoleModerator   // moderator
	RoleParticipant // participant

	// Support for these roles is recommended, but optional.
	RoleVisitor // visitor
)

// UnmarshalXMLAttr satisfies xml.UnmarshalerAttr.
// Matching is case insensitive and unrecognized values map to RoleNone.
func (r *Role) UnmarshalXMLAttr(attr xml.Attr) error {
	switch strings.ToLower(attr.Value) {
	case RoleModerator.String():
		*r = RoleModerator
	case RoleParticipant.String():
		*r = RoleParticipant
	case RoleVisitor.String():
		*r = RoleVisitor
	default:
		*r = RoleNone
	}
	return nil
}

// MarshalXMLAttr satisfies xml.MarshalerAttr.
func (r *Role) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if r == nil {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: r.String()}, nil
}

// Item describes the affiliation, role, and identity of an occupant as
// carried by room presence.
type Item struct {
	Affiliation Affiliation `xml:"affiliation,attr"`
	Role        Role        `xml:"role,attr"`
	JID         jid.JID     `xml:"jid,attr"`
	Nick        string      `xml:"nick,attr"`
	Actor       struct {
		JID  jid.JID `xml:"jid,attr"`
		Nick string  `xml:"nick,attr"`
	} `xml:"actor"`
	Reason string `xml:"reason"`
}
