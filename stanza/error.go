// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"io"
	"strconv"

	"mellium.im/xmlstream"

	"mellium.im/imstate/internal/ns"
	"mellium.im/imstate/jid"
)

// ErrorType is the type of a stanza error payload.
// It should normally be one of the constants defined in this package.
type ErrorType string

const (
	// Cancel indicates that the error cannot be remedied and the operation
	// should not be retried.
	Cancel ErrorType = "cancel"

	// Auth indicates that an operation should be retried after providing
	// credentials.
	Auth ErrorType = "auth"

	// Continue indicates that the operation can proceed (the condition was
	// only a warning).
	Continue ErrorType = "continue"

	// Modify indicates that the operation can be retried after changing the
	// data sent.
	Modify ErrorType = "modify"

	// Wait indicates that an error is temporary and may be retried.
	Wait ErrorType = "wait"
)

// Condition represents a more specific stanza error condition that can be
// encapsulated by an <error/> element.
type Condition string

// A list of stanza error conditions defined in RFC 6120 §8.3.3.
const (
	// The sender has sent a stanza containing XML that does not conform to the
	// appropriate schema or that cannot be processed.
	BadRequest Condition = "bad-request"

	// Access cannot be granted because an existing resource exists with the
	// same name or address.
	// In multi-user chat this is how the service reports that the requested
	// nickname is already taken.
	Conflict Condition = "conflict"

	// The feature represented in the XML stanza is not implemented by the
	// intended recipient or an intermediate server.
	FeatureNotImplemented Condition = "feature-not-implemented"

	// The requesting entity does not possess the necessary permissions to
	// perform the action.
	Forbidden Condition = "forbidden"

	// The recipient or server can no longer be contacted at this address,
	// typically on a permanent basis.
	Gone Condition = "gone"

	// The server has experienced a misconfiguration or other internal error
	// that prevents it from processing the stanza.
	InternalServerError Condition = "internal-server-error"

	// The addressed JID or item requested cannot be found.
	ItemNotFound Condition = "item-not-found"

	// The sending entity has provided or communicated an XMPP address that
	// violates the rules of the jid package.
	JIDMalformed Condition = "jid-malformed"

	// The recipient or server understands the request but cannot process it
	// because the request does not meet criteria defined by the recipient or
	// server.
	// In multi-user chat this is how the service rejects a nickname that does
	// not match the user's reserved nickname.
	NotAcceptable Condition = "not-acceptable"

	// The recipient or server does not allow any entity to perform the action.
	NotAllowed Condition = "not-allowed"

	// The sender needs to provide credentials before being allowed to perform
	// the action, or has provided improper credentials.
	NotAuthorized Condition = "not-authorized"

	// The entity has violated some local service policy.
	PolicyViolation Condition = "policy-violation"

	// The intended recipient is temporarily unavailable.
	RecipientUnavailable Condition = "recipient-unavailable"

	// The recipient or server is redirecting requests for this information to
	// another entity, typically in a temporary fashion.
	Redirect Condition = "redirect"

	// The requesting entity is not authorized to access the requested service
	// because prior registration is necessary.
	RegistrationRequired Condition = "registration-required"

	// A remote server or service specified as part or all of the JID of the
	// intended recipient does not exist or cannot be resolved.
	RemoteServerNotFound Condition = "remote-server-not-found"

	// A remote server or service was resolved but communications could not be
	// established within a reasonable amount of time.
	RemoteServerTimeout Condition = "remote-server-timeout"

	// The server or recipient is busy or lacks the system resources necessary
	// to service the request.
	ResourceConstraint Condition = "resource-constraint"

	// The server or recipient does not currently provide the requested
	// service.
	ServiceUnavailable Condition = "service-unavailable"

	// The requesting entity is not authorized to access the requested service
	// because a prior subscription is necessary.
	SubscriptionRequired Condition = "subscription-required"

	// The error condition is not one of those defined by the other conditions
	// in this list.
	UndefinedCondition Condition = "undefined-condition"

	// The recipient or server understood the request but was not expecting it
	// at this time.
	UnexpectedRequest Condition = "unexpected-request"
)

// Error is an implementation of error intended to be marshalable and
// unmarshalable as XML.
//
// The Code field holds the legacy numeric error code that pre-RFC servers and
// many multi-user chat services still attach to the error element; it is zero
// when no code attribute was present.
type Error struct {
	XMLName   xml.Name
	By        jid.JID
	Type      ErrorType
	Code      int
	Condition Condition
	Text      map[string]string
}

// Error satisfies the error interface by returning the condition.
func (se Error) Error() string {
	return string(se.Condition)
}

// Is reports whether target is a stanza error.
// If target has a non-empty condition, the conditions must also match.
func (se Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	return t.Condition == "" || t.Condition == se.Condition
}

// TokenReader satisfies the xmlstream.Marshaler interface for Error.
func (se Error) TokenReader() xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Local: "error"},
	}
	if se.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: string(se.Type)})
	}
	if se.Code != 0 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "code"}, Value: strconv.Itoa(se.Code)})
	}
	a, err := se.By.MarshalXMLAttr(xml.Name{Local: "by"})
	if err == nil && a.Value != "" {
		start.Attr = append(start.Attr, a)
	}

	var text xml.TokenReader = xmlstream.ReaderFunc(func() (xml.Token, error) {
		return nil, io.EOF
	})
	for lang, data := range se.Text {
		if data == "" {
			continue
		}
		var attrs []xml.Attr
		// xml:lang attribute is optional, don't include it if it's empty.
		if lang != "" {
			attrs = []xml.Attr{{
				Name:  xml.Name{Space: ns.XML, Local: "lang"},
				Value: lang,
			}}
		}
		text = xmlstream.Wrap(
			xmlstream.ReaderFunc(func() (xml.Token, error) {
				return xml.CharData(data), io.EOF
			}),
			xml.StartElement{
				Name: xml.Name{Space: ns.Stanza, Local: "text"},
				Attr: attrs,
			},
		)
	}

	return xmlstream.Wrap(
		xmlstream.MultiReader(
			xmlstream.Wrap(
				nil,
				xml.StartElement{
					Name: xml.Name{Space: ns.Stanza, Local: string(se.Condition)},
				},
			),
			text,
		),
		start,
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (se Error) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, se.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface for Error.
func (se Error) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := se.WriteXML(e)
	return err
}

// UnmarshalXML satisfies the xml.Unmarshaler interface for Error.
func (se *Error) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	decoded := struct {
		Condition struct {
			XMLName xml.Name
		} `xml:",any"`
		Type ErrorType `xml:"type,attr"`
		Code int       `xml:"code,attr"`
		By   jid.JID   `xml:"by,attr"`
		Text []struct {
			Lang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
			Data string `xml:",chardata"`
		} `xml:"urn:ietf:params:xml:ns:xmpp-stanzas text"`
	}{}
	if err := d.DecodeElement(&decoded, &start); err != nil {
		return err
	}
	se.Type = decoded.Type
	se.Code = decoded.Code
	se.By = decoded.By
	if decoded.Condition.XMLName.Space == ns.Stanza {
		se.Condition = Condition(decoded.Condition.XMLName.Local)
	}

	for _, text := range decoded.Text {
		if text.Data == "" {
			continue
		}
		if se.Text == nil {
			se.Text = make(map[string]string)
		}
		se.Text[text.Lang] = text.Data
	}
	return nil
}
