// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

// Reason is a coarse classification of a stanza error, suitable for showing
// to a user.
// Protocol errors carry one of many conditions (and, from older servers, a
// numeric code); consumers of the stateful packages in this module only ever
// see one of the reasons below.
type Reason uint8

// The closed set of user facing error reasons.
const (
	ReasonUnknown Reason = iota // unknown

	ReasonAuthorization // authorization
	ReasonConflict      // conflict
	ReasonTimeout       // timeout
	ReasonUnavailable   // unavailable
)

// String returns the name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonAuthorization:
		return "authorization"
	case ReasonConflict:
		return "conflict"
	case ReasonTimeout:
		return "timeout"
	case ReasonUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Reason classifies the error into the closed reason set, consulting the
// condition first and falling back to the legacy numeric code.
func (se Error) Reason() Reason {
	switch se.Condition {
	case Forbidden, NotAuthorized, NotAllowed, RegistrationRequired, SubscriptionRequired:
		return ReasonAuthorization
	case Conflict:
		return ReasonConflict
	case RemoteServerTimeout, ResourceConstraint:
		return ReasonTimeout
	case ServiceUnavailable, RecipientUnavailable, ItemNotFound, RemoteServerNotFound, Gone:
		return ReasonUnavailable
	}
	if se.Condition == "" {
		return legacyReason(se.Code)
	}
	return ReasonUnknown
}

// legacyReason maps pre-RFC numeric error codes to the closed reason set.
func legacyReason(code int) Reason {
	switch code {
	case 401, 403, 405, 407:
		return ReasonAuthorization
	case 409:
		return ReasonConflict
	case 408, 504:
		return ReasonTimeout
	case 404, 410, 503:
		return ReasonUnavailable
	}
	return ReasonUnknown
}
