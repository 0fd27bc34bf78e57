package core

import "errors"

var (
	// ErrDuplicateConnection is returned when a connection id is registered twice.
	ErrDuplicateConnection = errors.New("duplicate connection")
	// ErrUnknownConnection is returned for operations on an id the registry does not hold.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrDeliveryFailure reports that an event could not be handed to one connection.
	ErrDeliveryFailure = errors.New("delivery failure")
	// ErrMalformedEvent marks inbound frames that could not be decoded.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrConnectionClosed is returned when the target connection is already closed.
	ErrConnectionClosed = errors.New("connection closed")
)
