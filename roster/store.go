// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package roster

import (
	"context"
	"encoding/xml"
	"image/color"
	"sort"

	"mellium.im/xmlstream"

	"mellium.im/imstate"
	imcolor "mellium.im/imstate/color"
	"mellium.im/imstate/internal/attr"
	"mellium.im/imstate/jid"
	"mellium.im/imstate/mux"
	"mellium.im/imstate/presence"
	"mellium.im/imstate/stanza"
)

// Resource is a single connected client of a contact.
type Resource struct {
	Name  string
	State presence.State
}

// User is a single contact.
//
// A user belongs to exactly one group at a time; the Group field names it
// (the empty string names the anonymous group).
// Resources are kept sorted by priority, then by the richness of their show
// value, then by name, so Resources[0] is always the resource whose presence
// represents the contact as a whole.
type User struct {
	JID          jid.JID
	Name         string
	Subscription Subscription
	Group        string

	// Err records that the last presence interaction with this contact
	// failed without naming a resource.
	Err bool

	Resources []*Resource
}

// Resource looks up one of the user's resources by name.
// The empty name is a valid resource name and is distinct from the resource
// being absent.
func (u *User) Resource(name string) *Resource {
	for _, r := range u.Resources {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// State returns the presence of the user's best resource, or an unavailable
// state if the user has no connected resources.
func (u *User) State() presence.State {
	if len(u.Resources) == 0 {
		return presence.State{}
	}
	return u.Resources[0].State
}

// DisplayName returns the name to show for the user: the roster name if one
// is set, otherwise the bare JID.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.JID.String()
}

// Color returns a consistent color for the user generated from the bare JID
// as described in XEP-0392.
func (u *User) Color() color.YCbCr {
	return imcolor.String(u.JID.Bare().String(), 255, imcolor.None)
}

func (u *User) sortResources() {
	sort.SliceStable(u.Resources, func(i, j int) bool {
		a, b := u.Resources[i], u.Resources[j]
		if a.State.Priority != b.State.Priority {
			return a.State.Priority > b.State.Priority
		}
		if a.State.Show != b.State.Show {
			return a.State.Show > b.State.Show
		}
		return a.Name < b.Name
	})
}

func (u *User) removeResource(name string) bool {
	for i, r := range u.Resources {
		if r.Name == name {
			u.Resources = append(u.Resources[:i], u.Resources[i+1:]...)
			return true
		}
	}
	return false
}

// Group is a named collection of users.
// The group with the empty name is a real group that sorts before all named
// groups.
type Group struct {
	Name  string
	Users []*User
}

func (g *Group) sort() {
	sort.SliceStable(g.Users, func(i, j int) bool {
		a, b := g.Users[i], g.Users[j]
		as, bs := a.State().Show, b.State().Show
		if as != bs {
			return as > bs
		}
		an, bn := a.DisplayName(), b.DisplayName()
		if an != bn {
			return an < bn
		}
		return a.JID.String() < b.JID.String()
	})
}

func (g *Group) removeUser(j jid.JID) bool {
	for i, u := range g.Users {
		if u.JID.Equal(j) {
			g.Users = append(g.Users[:i], g.Users[i+1:]...)
			return true
		}
	}
	return false
}

// Store is the roster of a single session.
//
// It is updated by feeding it roster IQs and presence stanzas (normally by
// registering it with a multiplexer using HandleStore) and queried by the
// host whenever it needs to render the contact list.
// All methods must be called from the stream's serve goroutine; the Store
// does not lock.
type Store struct {
	// Sender is used for outgoing roster queries and is only required if the
	// Fetch, Set, or Delete methods are used.
	Sender imstate.Sender

	// UserOnline is called when a presence creates a resource that did not
	// exist before.
	UserOnline func(from jid.JID, s presence.State)

	// UserOffline is called when an unavailable presence removes a resource.
	UserOffline func(from jid.JID, status string)

	// PresenceChanged is called exactly once for every real change to a
	// resource's presence, and never for a stanza that changed nothing.
	PresenceChanged func(from jid.JID, s presence.State)

	// PresenceError is called when an error presence is received for a
	// contact.
	PresenceError func(from jid.JID)

	// ItemUpdated is called when a roster push creates, renames, regroups,
	// or changes the subscription of a contact.
	ItemUpdated func(u *User)

	// ItemRemoved is called when a roster push deletes a contact.
	ItemRemoved func(j jid.JID)

	// SubscriptionRequest is called for inbound subscription state presences
	// (subscribe, subscribed, unsubscribe, unsubscribed).
	SubscriptionRequest func(from jid.JID, typ stanza.PresenceType)

	addr   jid.JID
	ver    string
	groups []*Group
	users  map[string]*User
	self   *User
}

// NewStore returns a roster store for the session logged in as addr.
func NewStore(addr jid.JID) *Store {
	bare := addr.Bare()
	return &Store{
		addr:  bare,
		users: make(map[string]*User),
		self:  &User{JID: bare},
	}
}

// Addr returns the account address the store was created for.
func (s *Store) Addr() jid.JID {
	return s.addr
}

// Ver returns the roster version from the most recent query, if the server
// supports roster versioning.
func (s *Store) Ver() string {
	return s.ver
}

// Groups returns the groups of the roster, sorted by name with the anonymous
// group first.
// The returned slice is owned by the store and must not be mutated.
func (s *Store) Groups() []*Group {
	return s.groups
}

// Group looks up a group by exact name.
// The empty string names the anonymous group.
func (s *Store) Group(name string) *Group {
	for _, g := range s.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// FindUser looks up a contact by its bare JID.
func (s *Store) FindUser(j jid.JID) *User {
	return s.users[j.Bare().String()]
}

// FindUserByName looks up a contact by its displayed name, that is the
// roster name if one is set and the bare JID otherwise.
// If several contacts share the name, the first in group order wins.
func (s *Store) FindUserByName(name string) *User {
	for _, g := range s.groups {
		for _, u := range g.Users {
			if u.DisplayName() == name {
				return u
			}
		}
	}
	return nil
}

// Self returns the pseudo-contact tracking the local account's own
// resources.
func (s *Store) Self() *User {
	return s.self
}

func (s *Store) ensureGroup(name string) *Group {
	if g := s.Group(name); g != nil {
		return g
	}
	g := &Group{Name: name}
	s.groups = append(s.groups, g)
	sort.SliceStable(s.groups, func(i, j int) bool {
		return s.groups[i].Name < s.groups[j].Name
	})
	return g
}

func (s *Store) dropFromGroup(u *User) {
	g := s.Group(u.Group)
	if g == nil {
		return
	}
	g.removeUser(u.JID)
	if len(g.Users) == 0 {
		for i, gg := range s.groups {
			if gg == g {
				s.groups = append(s.groups[:i], s.groups[i+1:]...)
				break
			}
		}
	}
}

// Upsert applies a single roster item, creating, updating, moving, or (for
// the "remove" subscription) deleting the contact it names.
func (s *Store) Upsert(item Item) {
	if item.Subscription == SubRemove {
		s.Remove(item.JID)
		return
	}

	bare := item.JID.Bare()
	u := s.users[bare.String()]
	if u == nil {
		u = &User{
			JID:          bare,
			Name:         item.Name,
			Subscription: item.Subscription,
			Group:        item.Group,
		}
		s.users[bare.String()] = u
		g := s.ensureGroup(item.Group)
		g.Users = append(g.Users, u)
		g.sort()
		if s.ItemUpdated != nil {
			s.ItemUpdated(u)
		}
		return
	}

	dirty := false
	if u.Group != item.Group {
		s.dropFromGroup(u)
		u.Group = item.Group
		g := s.ensureGroup(item.Group)
		g.Users = append(g.Users, u)
		dirty = true
	}
	if u.Name != item.Name {
		u.Name = item.Name
		dirty = true
	}
	if item.Subscription != "" && u.Subscription != item.Subscription {
		u.Subscription = item.Subscription
		dirty = true
	}
	if dirty {
		if g := s.Group(u.Group); g != nil {
			g.sort()
		}
		if s.ItemUpdated != nil {
			s.ItemUpdated(u)
		}
	}
}

// Remove deletes the contact with the given bare JID.
// If the contact was the last user in its group the group is deleted too.
// Removing a contact that does not exist is a no-op.
func (s *Store) Remove(j jid.JID) {
	bare := j.Bare()
	u := s.users[bare.String()]
	if u == nil {
		return
	}
	s.dropFromGroup(u)
	delete(s.users, bare.String())
	if s.ItemRemoved != nil {
		s.ItemRemoved(bare)
	}
}

// target resolves the user addressed by a presence stanza.
// Presences for JIDs that are neither on the roster nor the local account
// are dropped, not stored as orphans.
func (s *Store) target(from jid.JID) *User {
	bare := from.Bare()
	if u := s.users[bare.String()]; u != nil {
		return u
	}
	if bare.Equal(s.addr) {
		return s.self
	}
	return nil
}

func (s *Store) resort(u *User) {
	u.sortResources()
	if u == s.self {
		return
	}
	if g := s.Group(u.Group); g != nil {
		g.sort()
	}
}

// ApplyPresence applies an available presence for the full JID and reports
// whether it changed the stored state.
//
// If the resource named by the JID does not exist yet it is created and
// UserOnline fires unconditionally; PresenceChanged fires exactly once per
// real change as decided by presence.Changed.
func (s *Store) ApplyPresence(from jid.JID, p presence.Payload) bool {
	u := s.target(from)
	if u == nil {
		return false
	}

	res := u.Resource(from.Resourcepart())
	if res == nil {
		res = &Resource{Name: from.Resourcepart()}
		u.Resources = append(u.Resources, res)
		if s.UserOnline != nil {
			s.UserOnline(from, p.State(res.State))
		}
	}

	state := p.State(res.State)
	if !presence.Changed(res.State, state) {
		return false
	}
	res.State = state
	u.Err = false
	s.resort(u)
	if s.PresenceChanged != nil {
		s.PresenceChanged(from, state)
	}
	return true
}

// ApplyUnavailable removes the resource named by the full JID.
// If the resource does not exist nothing happens.
func (s *Store) ApplyUnavailable(from jid.JID, status string) {
	u := s.target(from)
	if u == nil {
		return
	}
	if !u.removeResource(from.Resourcepart()) {
		return
	}
	s.resort(u)
	if s.UserOffline != nil {
		s.UserOffline(from, status)
	}
	if s.PresenceChanged != nil {
		s.PresenceChanged(from, presence.State{Show: presence.Unavailable, Status: status})
	}
}

// ApplyError records an error presence for the full JID.
// If the addressed resource exists its show becomes Error, otherwise the
// user's Err flag is set.
func (s *Store) ApplyError(from jid.JID) {
	u := s.target(from)
	if u == nil {
		return
	}
	if res := u.Resource(from.Resourcepart()); res != nil {
		res.State.Show = presence.Error
		s.resort(u)
	} else {
		u.Err = true
	}
	if s.PresenceError != nil {
		s.PresenceError(from)
	}
}

// HandlePresence satisfies mux.PresenceHandler.
// It is used by the multiplexer and normally does not need to be called by
// the user.
func (s *Store) HandlePresence(p stanza.Presence, t xmlstream.TokenReadEncoder) error {
	switch p.Type {
	case stanza.AvailablePresence:
		d := xml.NewTokenDecoder(t)
		pres := struct {
			stanza.Presence
			presence.Payload
		}{}
		if err := d.Decode(&pres); err != nil {
			return err
		}
		s.ApplyPresence(p.From, pres.Payload)
	case stanza.UnavailablePresence:
		d := xml.NewTokenDecoder(t)
		pres := struct {
			stanza.Presence
			Status string `xml:"status"`
		}{}
		if err := d.Decode(&pres); err != nil {
			return err
		}
		s.ApplyUnavailable(p.From, pres.Status)
	case stanza.ErrorPresence:
		s.ApplyError(p.From)
	case stanza.SubscribePresence, stanza.SubscribedPresence,
		stanza.UnsubscribePresence, stanza.UnsubscribedPresence:
		if s.SubscriptionRequest != nil {
			s.SubscriptionRequest(p.From, p.Type)
		}
	}
	return nil
}

// HandleIQ satisfies mux.IQHandler.
// It applies roster results and pushes, acknowledging pushes as required by
// RFC 6121.
func (s *Store) HandleIQ(iq stanza.IQ, t xmlstream.TokenReadEncoder, _ *xml.StartElement) error {
	d := xml.NewTokenDecoder(t)
	query := IQ{}
	if err := d.Decode(&query); err != nil {
		return err
	}
	if query.Query.Ver != "" {
		s.ver = query.Query.Ver
	}
	for _, item := range query.Query.Item {
		s.Upsert(item)
	}

	if iq.Type == stanza.SetIQ {
		_, err := xmlstream.Copy(t, iq.Result(nil))
		return err
	}
	return nil
}

// HandleStore returns an option that registers the store for use with a
// multiplexer.
//
// The store registers wildcard presence handlers: register payload specific
// handlers (such as the muc client's) on the same multiplexer to keep group
// chat traffic out of the roster.
func HandleStore(s *Store) mux.Option {
	return func(m *mux.ServeMux) {
		query := xml.Name{Space: NS, Local: "query"}
		mux.IQ(stanza.SetIQ, query, s)(m)
		mux.IQ(stanza.ResultIQ, query, s)(m)

		for _, typ := range [...]stanza.PresenceType{
			stanza.AvailablePresence,
			stanza.UnavailablePresence,
			stanza.ErrorPresence,
			stanza.SubscribePresence,
			stanza.SubscribedPresence,
			stanza.UnsubscribePresence,
			stanza.UnsubscribedPresence,
		} {
			mux.Presence(typ, xml.Name{}, s)(m)
		}
	}
}

// Fetch requests the full roster from the server.
// The result is applied to the store when it arrives back through the
// multiplexer.
func (s *Store) Fetch(ctx context.Context) error {
	iq := IQ{}
	iq.IQ = stanza.IQ{ID: attr.RandomID(), Type: stanza.GetIQ}
	if s.ver != "" {
		iq.Query.Ver = s.ver
	}
	return s.Sender.Send(ctx, iq.TokenReader())
}

// Set asks the server to add or update a roster item.
// The store itself is only updated when the server echoes the change back as
// a roster push.
func (s *Store) Set(ctx context.Context, item Item) error {
	iq := IQ{}
	iq.IQ = stanza.IQ{ID: attr.RandomID(), Type: stanza.SetIQ}
	iq.Query.Item = []Item{item}
	return s.Sender.Send(ctx, iq.TokenReader())
}

// Delete asks the server to remove a roster item.
func (s *Store) Delete(ctx context.Context, j jid.JID) error {
	return s.Set(ctx, Item{JID: j.Bare(), Subscription: SubRemove})
}
