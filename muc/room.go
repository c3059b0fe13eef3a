// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc

import (
	"context"
	"encoding/xml"
	"image/color"
	"sort"

	"mellium.im/xmlstream"

	imcolor "mellium.im/imstate/color"
	"mellium.im/imstate/disco"
	"mellium.im/imstate/internal/attr"
	"mellium.im/imstate/jid"
	"mellium.im/imstate/presence"
	"mellium.im/imstate/stanza"
)

// RoomState is the position of a room in its join lifecycle.
type RoomState uint8

// The possible room states.
//
// A room starts in StatePreJoin and moves to StateJoining when a join is
// sent.
// From StateJoining it moves to StateJoined when the room reflects our own
// presence back, or to StateError when the room rejects the join.
// From StateJoined it moves to one of the terminal departure states when the
// room reflects our unavailable presence.
// Calling Join again restarts the cycle from any state.
const (
	StatePreJoin   RoomState = iota // pre-join
	StateJoining                    // joining
	StateJoined                     // joined
	StateLeft                       // left
	StateKicked                     // kicked
	StateBanned                     // banned
	StateDestroyed                  // destroyed
	StateError                      // join-error
)

// Occupant is a single member of a room.
type Occupant struct {
	Nick        string
	JID         jid.JID
	Affiliation Affiliation
	Role        Role
	State       presence.State
}

// Color returns a consistent color for the occupant generated from the
// nickname as described in XEP-0392.
func (o *Occupant) Color() color.YCbCr {
	return imcolor.String(o.Nick, 255, imcolor.None)
}

// Room is the local view of a single group chat.
//
// Rooms are created by the Join method of a Client and are updated as room
// traffic arrives through the multiplexer.
// All methods must be called from the stream's serve goroutine; the Room
// does not lock.
type Room struct {
	client *Client
	addr   jid.JID
	nick   string
	state  RoomState

	conf     config
	triedAlt bool

	occupants map[string]*Occupant
	self      *Occupant

	subject       string
	subjectSetter string
	synced        bool

	modes []string
}

// Addr returns the bare address of the room.
func (r *Room) Addr() jid.JID {
	return r.addr
}

// Nick returns the nickname the room currently knows us by.
// Until the join completes this is the nickname we asked for, which the room
// may still change.
func (r *Room) Nick() string {
	return r.nick
}

// State returns the room's position in the join lifecycle.
func (r *Room) State() RoomState {
	return r.state
}

// Joined reports whether our presence in the room is currently established.
func (r *Room) Joined() bool {
	return r.state == StateJoined
}

// Subject returns the current room subject.
func (r *Room) Subject() string {
	return r.subject
}

// SubjectSetter returns the nickname of the occupant that set the current
// subject, if known.
func (r *Room) SubjectSetter() string {
	return r.subjectSetter
}

// Modes returns the room modes learned from service discovery, such as
// "members-only" or "persistent".
// It is empty until a disco#info result for the room has been seen.
func (r *Room) Modes() []string {
	return r.modes
}

// Self returns our own occupant entry, or nil before the join completes.
func (r *Room) Self() *Occupant {
	return r.self
}

// Occupant looks up an occupant by nickname.
func (r *Room) Occupant(nick string) *Occupant {
	return r.occupants[nick]
}

// Occupants returns all known occupants sorted by nickname.
func (r *Room) Occupants() []*Occupant {
	occupants := make([]*Occupant, 0, len(r.occupants))
	for _, o := range r.occupants {
		occupants = append(occupants, o)
	}
	sort.Slice(occupants, func(i, j int) bool {
		return occupants[i].Nick < occupants[j].Nick
	})
	return occupants
}

// Join starts (or restarts) the join handshake with the room.
//
// It returns as soon as the join presence has been sent; the outcome is
// reported later through the client's RoomJoined or JoinFailed callbacks
// when the room answers.
func (r *Room) Join(ctx context.Context, opt ...Option) error {
	conf := config{}
	for _, o := range opt {
		o(&conf)
	}
	r.conf = conf
	r.triedAlt = false
	r.state = StateJoining
	r.occupants = make(map[string]*Occupant)
	r.self = nil
	r.synced = false
	return r.sendJoin(ctx)
}

func (r *Room) sendJoin(ctx context.Context) error {
	to, err := r.addr.WithResource(r.nick)
	if err != nil {
		return err
	}
	p := stanza.Presence{ID: attr.RandomID(), To: to}
	return r.client.send(ctx, p.Wrap(r.conf.TokenReader()))
}

// retryNick reports whether the join error means the nickname was rejected
// and mutates the nickname for the next attempt.
// Modern servers signal a taken or unacceptable nickname with the conflict
// or not-acceptable conditions; pre-RFC servers used the bare numeric codes
// 409 and 406.
func (r *Room) retryNick(se stanza.Error) bool {
	switch {
	case se.Condition == stanza.Conflict, se.Condition == stanza.NotAcceptable:
	case se.Condition == "" && (se.Code == 409 || se.Code == 406):
	default:
		return false
	}

	if r.conf.altNick != "" && !r.triedAlt {
		r.triedAlt = true
		r.nick = r.conf.altNick
		return true
	}
	r.nick += "_"
	return true
}

// Leave exits the room with an optional parting status message.
//
// The room stays in the joined state until the room reflects the unavailable
// presence back to us.
func (r *Room) Leave(ctx context.Context, status string) error {
	to, err := r.addr.WithResource(r.nick)
	if err != nil {
		return err
	}
	p := stanza.Presence{
		ID:   attr.RandomID(),
		To:   to,
		Type: stanza.UnavailablePresence,
	}
	return r.client.send(ctx, p.Wrap(optionalString(status, xml.Name{Local: "status"})))
}

// ChangeNick asks the room to change our nickname.
// The change is not applied until the room confirms it with a nick change
// presence; a rejection surfaces through the client's NickInUse callback.
func (r *Room) ChangeNick(ctx context.Context, nick string) error {
	to, err := r.addr.WithResource(nick)
	if err != nil {
		return err
	}
	p := stanza.Presence{ID: attr.RandomID(), To: to}
	return r.client.send(ctx, p.Wrap(nil))
}

// SetSubject attempts to change the room subject.
// The new subject is not applied until the room broadcasts it back.
func (r *Room) SetSubject(ctx context.Context, subject string) error {
	m := stanza.Message{
		ID:   attr.RandomID(),
		To:   r.addr,
		Type: stanza.GroupChatMessage,
	}
	return r.client.send(ctx, m.Wrap(xmlstream.Wrap(
		xmlstream.Token(xml.CharData(subject)),
		xml.StartElement{Name: xml.Name{Local: "subject"}},
	)))
}

// Invite sends a mediated invitation (an invitation sent through the room
// itself) to the user.
//
// For direct invitations sent from your own account (ie. to reach users who
// block all unrecognized JIDs) see the Invite function.
func (r *Room) Invite(ctx context.Context, reason string, to jid.JID) error {
	m := stanza.Message{
		ID:   attr.RandomID(),
		To:   r.addr,
		Type: stanza.NormalMessage,
	}
	return r.client.send(ctx, m.Wrap(Invitation{
		JID:      to,
		Password: r.conf.pass,
		Reason:   reason,
	}.MarshalMediated()))
}

// SetAffiliation changes the affiliation of the provided JID which should be
// the users real bare JID (not their room JID).
func (r *Room) SetAffiliation(ctx context.Context, a Affiliation, j jid.JID, nick, reason string) error {
	var reasonEl xml.TokenReader
	if reason != "" {
		reasonEl = xmlstream.Wrap(
			xmlstream.Token(xml.CharData(reason)),
			xml.StartElement{Name: xml.Name{Local: "reason"}},
		)
	}
	itemAttr := []xml.Attr{
		{Name: xml.Name{Local: "affiliation"}, Value: a.String()},
		{Name: xml.Name{Local: "jid"}, Value: j.Bare().String()},
	}
	if nick != "" {
		itemAttr = append(itemAttr, xml.Attr{Name: xml.Name{Local: "nick"}, Value: nick})
	}
	iq := stanza.IQ{ID: attr.RandomID(), To: r.addr, Type: stanza.SetIQ}
	return r.client.send(ctx, iq.Wrap(xmlstream.Wrap(
		xmlstream.Wrap(
			reasonEl,
			xml.StartElement{Name: xml.Name{Local: "item"}, Attr: itemAttr},
		),
		xml.StartElement{Name: xml.Name{Space: NSAdmin, Local: "query"}},
	)))
}

// unlock accepts the default configuration of a newly created room, turning
// it into an unlocked "instant" room.
func (r *Room) unlock(ctx context.Context) error {
	iq := stanza.IQ{ID: attr.RandomID(), To: r.addr, Type: stanza.SetIQ}
	return r.client.send(ctx, iq.Wrap(xmlstream.Wrap(
		xmlstream.Wrap(
			nil,
			xml.StartElement{
				Name: xml.Name{Space: "jabber:x:data", Local: "x"},
				Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: "submit"}},
			},
		),
		xml.StartElement{Name: xml.Name{Space: NSOwner, Local: "query"}},
	)))
}

// requestInfo queries the room's features so that the room modes can be
// derived from the disco#info result.
func (r *Room) requestInfo(ctx context.Context) error {
	iq := stanza.IQ{ID: attr.RandomID(), To: r.addr, Type: stanza.GetIQ}
	return r.client.send(ctx, iq.Wrap(disco.InfoQuery{}.TokenReader()))
}
