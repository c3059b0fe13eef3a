// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package muc implements Multi-User Chat.
//
// The main entrypoint into the muc package (for clients) is the Client type.
// It tracks the rooms the local account is joined to, keeps each room's
// occupant list and subject up to date from room traffic, and reports every
// observable change through typed callbacks.
// It is normally registered with a multiplexer such as the one found in the
// mux package:
//
//	mucClient := &muc.Client{Addr: addr, Sender: session}
//	m := mux.New(
//	    muc.HandleClient(mucClient),
//	)
//	room, err := mucClient.Join(…)
//
// Once the Join method has been called the resulting room type can be used
// to perform actions on the room such as setting the subject, changing
// nicknames, or leaving.
// The outcome of the join itself is reported through the client's RoomJoined
// and JoinFailed callbacks when the room answers.
package muc // import "mellium.im/imstate/muc"

import (
	"context"
	"encoding/xml"
	"errors"

	"mellium.im/xmlstream"

	"mellium.im/imstate"
	"mellium.im/imstate/disco"
	"mellium.im/imstate/jid"
	"mellium.im/imstate/mux"
	"mellium.im/imstate/presence"
	"mellium.im/imstate/stanza"
)

// Various namespaces used by this package, provided as a convenience.
const (
	NS      = `http://jabber.org/protocol/muc`
	NSUser  = `http://jabber.org/protocol/muc#user`
	NSOwner = `http://jabber.org/protocol/muc#owner`
	NSAdmin = `http://jabber.org/protocol/muc#admin`

	// NSConf is the legacy conference namespace, now only used for direct MUC
	// invitations and backwards compatibility.
	NSConf = `jabber:x:conference`
)

// HandleClient returns an option that registers the client for use with a
// multiplexer.
//
// If the client has a feature cache the cache is registered as well and room
// modes are derived from the disco#info results that pass through it.
func HandleClient(h *Client) mux.Option {
	return func(m *mux.ServeMux) {
		userPayload := xml.Name{Space: NSUser, Local: "x"}
		joinPayload := xml.Name{Space: NS, Local: "x"}

		mux.Presence(stanza.AvailablePresence, userPayload, h)(m)
		mux.Presence(stanza.UnavailablePresence, userPayload, h)(m)
		mux.Presence(stanza.ErrorPresence, userPayload, h)(m)
		mux.Presence(stanza.ErrorPresence, joinPayload, h)(m)
		mux.Message(stanza.NormalMessage, userPayload, h)(m)
		mux.Message(stanza.GroupChatMessage, xml.Name{}, h)(m)

		if h.Features != nil {
			disco.HandleCache(h.Features)(m)
			prev := h.Features.Discovered
			h.Features.Discovered = func(peer jid.JID, f disco.Features) {
				h.discovered(peer, f)
				if prev != nil {
					prev(peer, f)
				}
			}
		}
	}
}

// Client tracks the rooms joined by a single session.
//
// All exported callback fields are optional.
// Callbacks are invoked from the stream's serve goroutine while the room is
// already in its new state, so a RoomKicked callback observes a room whose
// State method already reports the kicked state.
type Client struct {
	// Addr is the address of the local account.
	// Its localpart is used as the default nickname when accepting
	// invitations automatically.
	Addr jid.JID

	// Sender is used for all outgoing room traffic.
	Sender imstate.Sender

	// Features, if set, is used to derive room modes from service discovery.
	Features *disco.Cache

	// AutoJoin causes mediated invitations to be accepted automatically
	// using the invitation's password and the localpart of Addr as the
	// nickname.
	AutoJoin bool

	// HandleInvite is called when a mediated invitation is received.
	HandleInvite func(Invitation)

	// RoomJoined is called when a join handshake completes.
	RoomJoined func(*Room)

	// RoomCreated is called before RoomJoined if joining created the room.
	// The room is unlocked by accepting the default configuration.
	RoomCreated func(*Room)

	// JoinFailed is called when the room rejects a join for a reason other
	// than a rejected nickname.
	JoinFailed func(*Room, stanza.Reason)

	// RoomLeft, RoomKicked, RoomBanned, and RoomDestroyed are called when
	// our own departure from a room is confirmed.
	RoomLeft      func(r *Room, status string)
	RoomKicked    func(r *Room, actor, reason string)
	RoomBanned    func(r *Room, actor, reason string)
	RoomDestroyed func(r *Room, reason string, alt jid.JID)

	// NickChanged is called when our own nickname changes, either because
	// the service modified it during the join or because a nick change
	// request was accepted.
	NickChanged func(r *Room, oldNick string)

	// NickInUse is called when a nick change request is rejected by the
	// room.
	NickInUse func(r *Room, nick string)

	// OccupantJoined, OccupantUpdated, OccupantRenamed, OccupantParted,
	// OccupantKicked, and OccupantBanned report changes to other occupants
	// of a joined room.
	OccupantJoined  func(r *Room, o *Occupant)
	OccupantUpdated func(r *Room, o *Occupant)
	OccupantRenamed func(r *Room, o *Occupant, oldNick string)
	OccupantParted  func(r *Room, o *Occupant, status string)
	OccupantKicked  func(r *Room, o *Occupant, actor, reason string)
	OccupantBanned  func(r *Room, o *Occupant, actor, reason string)

	// TopicChanged is called when the room subject changes.
	// During the join handshake rooms send the current subject to prime new
	// occupants; those deliveries are reported with live set to false.
	TopicChanged func(r *Room, live bool)

	// ModesChanged is called when a disco#info result updates the room
	// modes.
	ModesChanged func(*Room)

	rooms map[string]*Room
}

// Join creates (or resets) the room addressed by the bare JID of room and
// starts the join handshake using the resourcepart of room as the nickname.
func (c *Client) Join(ctx context.Context, room jid.JID, opt ...Option) (*Room, error) {
	if room.Resourcepart() == "" {
		return nil, errors.New("muc: a nickname is required to join")
	}
	bare := room.Bare()
	if c.rooms == nil {
		c.rooms = make(map[string]*Room)
	}
	r := c.rooms[bare.String()]
	if r == nil {
		r = &Room{client: c, addr: bare}
		c.rooms[bare.String()] = r
	}
	r.nick = room.Resourcepart()
	return r, r.Join(ctx, opt...)
}

// Room returns the room with the given address, or nil if it was never
// joined.
func (c *Client) Room(addr jid.JID) *Room {
	return c.rooms[addr.Bare().String()]
}

func (c *Client) send(ctx context.Context, r xml.TokenReader) error {
	if c.Sender == nil {
		return errors.New("muc: no sender configured")
	}
	return c.Sender.Send(ctx, r)
}

type mucPresence struct {
	stanza.Presence
	presence.Payload
	Error stanza.Error `xml:"error"`
	X     struct {
		XMLName xml.Name
		Item    Item `xml:"item"`
		Destroy struct {
			XMLName xml.Name
			JID     jid.JID `xml:"jid,attr"`
			Reason  string  `xml:"reason"`
		} `xml:"destroy"`
		Status []struct {
			Code int `xml:"code,attr"`
		} `xml:"status"`
	} `xml:"x"`
}

func (p *mucPresence) hasStatus(code int) bool {
	for _, status := range p.X.Status {
		if status.Code == code {
			return true
		}
	}
	return false
}

// HandlePresence satisfies mux.PresenceHandler.
// It is used by the multiplexer and normally does not need to be called by
// the user.
func (c *Client) HandlePresence(p stanza.Presence, t xmlstream.TokenReadEncoder) error {
	room := c.rooms[p.From.Bare().String()]
	if room == nil {
		return nil
	}
	d := xml.NewTokenDecoder(t)
	var pres mucPresence
	if err := d.Decode(&pres); err != nil {
		return err
	}
	nick := p.From.Resourcepart()

	switch p.Type {
	case stanza.AvailablePresence:
		return c.handleAvailable(room, nick, &pres)
	case stanza.UnavailablePresence:
		return c.handleUnavailable(room, nick, &pres)
	case stanza.ErrorPresence:
		return c.handleError(room, nick, &pres)
	}
	return nil
}

func (c *Client) handleAvailable(room *Room, nick string, pres *mucPresence) error {
	self := pres.hasStatus(110) || (room.state == StateJoining && nick == room.nick)

	o := room.occupants[nick]
	created := o == nil
	if created {
		o = &Occupant{Nick: nick}
		room.occupants[nick] = o
	}
	state := pres.Payload.State(o.State)
	changed := presence.Changed(o.State, state) ||
		o.Affiliation != pres.X.Item.Affiliation ||
		o.Role != pres.X.Item.Role
	o.Affiliation = pres.X.Item.Affiliation
	o.Role = pres.X.Item.Role
	if !pres.X.Item.JID.Equal(jid.JID{}) {
		o.JID = pres.X.Item.JID
	}
	o.State = state

	if !self {
		if created {
			if c.OccupantJoined != nil {
				c.OccupantJoined(room, o)
			}
		} else if changed && c.OccupantUpdated != nil {
			c.OccupantUpdated(room, o)
		}
		return nil
	}

	room.self = o
	if room.state != StateJoining {
		if changed && c.OccupantUpdated != nil {
			c.OccupantUpdated(room, o)
		}
		return nil
	}

	// The room reflecting our own presence completes the join.
	room.state = StateJoined
	if pres.hasStatus(210) && nick != room.nick {
		old := room.nick
		room.nick = nick
		if c.NickChanged != nil {
			c.NickChanged(room, old)
		}
	}
	ctx := context.Background()
	if pres.hasStatus(201) {
		if c.RoomCreated != nil {
			c.RoomCreated(room)
		}
		if err := room.unlock(ctx); err != nil {
			return err
		}
	}
	if c.RoomJoined != nil {
		c.RoomJoined(room)
	}
	if c.Features != nil {
		return room.requestInfo(ctx)
	}
	return nil
}

func (c *Client) handleUnavailable(room *Room, nick string, pres *mucPresence) error {
	o := room.occupants[nick]
	self := pres.hasStatus(110) || nick == room.nick
	item := pres.X.Item

	if pres.X.Destroy.XMLName.Local == "destroy" {
		room.state = StateDestroyed
		room.occupants = make(map[string]*Occupant)
		room.self = nil
		if c.RoomDestroyed != nil {
			c.RoomDestroyed(room, pres.X.Destroy.Reason, pres.X.Destroy.JID)
		}
		return nil
	}

	if pres.hasStatus(303) {
		// A nick change: the occupant leaves under the old nick and rejoins
		// under the nick carried by the item.
		if o == nil || item.Nick == "" {
			return nil
		}
		delete(room.occupants, nick)
		o.Nick = item.Nick
		room.occupants[item.Nick] = o
		if self {
			old := room.nick
			room.nick = item.Nick
			if c.NickChanged != nil {
				c.NickChanged(room, old)
			}
		} else if c.OccupantRenamed != nil {
			c.OccupantRenamed(room, o, nick)
		}
		return nil
	}

	if self {
		room.occupants = make(map[string]*Occupant)
		room.self = nil
		switch {
		case pres.hasStatus(301):
			room.state = StateBanned
			if c.RoomBanned != nil {
				c.RoomBanned(room, item.Actor.Nick, item.Reason)
			}
		case pres.hasStatus(307):
			room.state = StateKicked
			if c.RoomKicked != nil {
				c.RoomKicked(room, item.Actor.Nick, item.Reason)
			}
		default:
			room.state = StateLeft
			if c.RoomLeft != nil {
				c.RoomLeft(room, pres.Payload.Status)
			}
		}
		return nil
	}

	if o == nil {
		return nil
	}
	delete(room.occupants, nick)
	switch {
	case pres.hasStatus(301):
		if c.OccupantBanned != nil {
			c.OccupantBanned(room, o, item.Actor.Nick, item.Reason)
		}
	case pres.hasStatus(307):
		if c.OccupantKicked != nil {
			c.OccupantKicked(room, o, item.Actor.Nick, item.Reason)
		}
	default:
		if c.OccupantParted != nil {
			c.OccupantParted(room, o, pres.Payload.Status)
		}
	}
	return nil
}

func (c *Client) handleError(room *Room, nick string, pres *mucPresence) error {
	if room.state == StateJoining {
		if room.retryNick(pres.Error) {
			return room.sendJoin(context.Background())
		}
		room.state = StateError
		if c.JoinFailed != nil {
			c.JoinFailed(room, pres.Error.Reason())
		}
		return nil
	}
	if room.state == StateJoined && c.NickInUse != nil {
		c.NickInUse(room, nick)
	}
	return nil
}

// HandleMessage satisfies mux.MessageHandler.
// It is used by the multiplexer and normally does not need to be called by
// the user.
func (c *Client) HandleMessage(msg stanza.Message, t xmlstream.TokenReadEncoder) error {
	d := xml.NewTokenDecoder(t)
	m := struct {
		stanza.Message
		Subject *string    `xml:"subject"`
		Body    string     `xml:"body"`
		X       Invitation `xml:"http://jabber.org/protocol/muc#user x"`
	}{}
	if err := d.Decode(&m); err != nil {
		return err
	}

	if msg.Type == stanza.NormalMessage {
		if m.X.XMLName.Local == "" {
			return nil
		}
		invite := m.X
		// For incoming mediated invitations the room is the message sender.
		invite.Room = msg.From.Bare()
		if invite.From.Equal(jid.JID{}) && invite.JID.Equal(jid.JID{}) {
			// A muc#user payload that does not carry an invitation, such as
			// a declined invitation notice.
			return nil
		}
		if c.HandleInvite != nil {
			c.HandleInvite(invite)
		}
		if c.AutoJoin {
			return c.autojoin(invite)
		}
		return nil
	}

	room := c.rooms[msg.From.Bare().String()]
	if room == nil {
		return nil
	}
	if m.Subject != nil && m.Body == "" {
		if room.synced && *m.Subject == room.subject {
			return nil
		}
		live := room.synced
		room.synced = true
		room.subject = *m.Subject
		room.subjectSetter = msg.From.Resourcepart()
		if c.TopicChanged != nil {
			c.TopicChanged(room, live)
		}
	}
	return nil
}

func (c *Client) autojoin(invite Invitation) error {
	addr, err := invite.Room.WithResource(c.Addr.Localpart())
	if err != nil {
		return err
	}
	var opts []Option
	if invite.Password != "" {
		opts = append(opts, Password(invite.Password))
	}
	_, err = c.Join(context.Background(), addr, opts...)
	return err
}

// discovered updates room modes from a disco#info result.
func (c *Client) discovered(peer jid.JID, f disco.Features) {
	room := c.rooms[peer.Bare().String()]
	if room == nil {
		return
	}
	modes := modesFromFeatures(f)
	if equalModes(room.modes, modes) {
		return
	}
	room.modes = modes
	if c.ModesChanged != nil {
		c.ModesChanged(room)
	}
}

func equalModes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// featureModes maps the room features defined by XEP-0045 to short mode
// names.
var featureModes = map[string]string{
	"muc_membersonly":       "members-only",
	"muc_open":              "open",
	"muc_moderated":         "moderated",
	"muc_unmoderated":       "unmoderated",
	"muc_persistent":        "persistent",
	"muc_temporary":         "temporary",
	"muc_passwordprotected": "password-protected",
	"muc_unsecured":         "unsecured",
	"muc_hidden":            "hidden",
	"muc_public":            "public",
	"muc_nonanonymous":      "non-anonymous",
	"muc_semianonymous":     "semi-anonymous",
}

func modesFromFeatures(f disco.Features) []string {
	var modes []string
	for _, feature := range f {
		if mode, ok := featureModes[feature]; ok {
			modes = append(modes, mode)
		}
	}
	return modes
}
