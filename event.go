package bsal

import (
	"fmt"
	"net"
)

// An Event is a normalized steering event delivered to a Client's EventFunc.
type Event struct {
	// The interface which reported the event.
	Interface string

	// The band of the interface.
	Band Band

	// The event payload: one of *ProbeRequest, *AuthFail, *ClientConnect,
	// *ClientDisconnect, *ClientActivity, *ChannelUtilization,
	// *RSSICrossing, *RSSI, or *ActionFrame.
	Data EventData
}

// EventData is the closed set of steering event payloads.
type EventData interface {
	// Kind returns a short name for the payload type.
	Kind() string

	isEventData()
}

// An EventFunc receives steering events. It is invoked from a single
// goroutine in the order the vendor layer reported the events, and may call
// back into the Client.
type EventFunc func(Event)

// A ProbeRequest reports a probe request received from a client.
type ProbeRequest struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// The RSSI of the probe request.
	RSSI int

	// The probe carried the broadcast (wildcard) SSID.
	BroadcastSSID bool

	// The probe was not answered due to steering policy.
	Blocked bool
}

// An AuthFail reports a failed or rejected client authentication.
type AuthFail struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// The RSSI of the authentication request.
	RSSI int

	// The 802.11 reason code.
	Reason int

	// Authentication was blocked or rejected by steering policy.
	Blocked  bool
	Rejected bool
}

// A ClientConnect reports a client association. Its capabilities are also
// stored in the Client's capability cache.
type ClientConnect struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// The client's advertised capabilities.
	Capabilities ClientCapabilities

	// The raw information elements of the association request, if the
	// vendor layer reported them.
	AssocIEs []byte
}

// A ClientDisconnect reports a client leaving an interface.
type ClientDisconnect struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// Which side initiated the disconnect.
	Source DisconnectSource

	// The management frame used to disconnect.
	Type DisconnectType

	// The 802.11 reason code.
	Reason int
}

// A ClientActivity reports a client's transition between active and
// inactive.
type ClientActivity struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// The client is now active.
	Active bool
}

// A ChannelUtilization reports the averaged channel utilization of an
// interface.
type ChannelUtilization struct {
	// Utilization as a percentage.
	Percent int
}

// An RSSICrossing reports a client's RSSI crossing one or more configured
// thresholds.
type RSSICrossing struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// The client's current RSSI.
	RSSI int

	// Direction of the crossing for each threshold.
	Inactive RSSIChange
	High     RSSIChange
	Low      RSSIChange
}

// An RSSI reports a measured client RSSI, usually in response to a
// Client.ClientMeasure request.
type RSSI struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// The measured RSSI.
	RSSI int
}

// An ActionFrame reports a received 802.11 action frame.
type ActionFrame struct {
	// The transmitter's hardware address, or nil if it is unknown.
	HardwareAddr net.HardwareAddr

	// The raw frame.
	Frame []byte
}

func (*ProbeRequest) Kind() string       { return "probe_request" }
func (*AuthFail) Kind() string           { return "auth_fail" }
func (*ClientConnect) Kind() string      { return "client_connect" }
func (*ClientDisconnect) Kind() string   { return "client_disconnect" }
func (*ClientActivity) Kind() string     { return "client_activity" }
func (*ChannelUtilization) Kind() string { return "channel_utilization" }
func (*RSSICrossing) Kind() string       { return "rssi_crossing" }
func (*RSSI) Kind() string               { return "rssi" }
func (*ActionFrame) Kind() string        { return "action_frame" }

func (*ProbeRequest) isEventData()       {}
func (*AuthFail) isEventData()           {}
func (*ClientConnect) isEventData()      {}
func (*ClientDisconnect) isEventData()   {}
func (*ClientActivity) isEventData()     {}
func (*ChannelUtilization) isEventData() {}
func (*RSSICrossing) isEventData()       {}
func (*RSSI) isEventData()               {}
func (*ActionFrame) isEventData()        {}

// A DisconnectSource indicates which side initiated a disconnect.
type DisconnectSource int

const (
	// DisconnectSourceLocal indicates the access point disconnected the
	// client.
	DisconnectSourceLocal DisconnectSource = iota

	// DisconnectSourceRemote indicates the client disconnected itself.
	DisconnectSourceRemote
)

// String returns the string representation of a DisconnectSource.
func (s DisconnectSource) String() string {
	switch s {
	case DisconnectSourceLocal:
		return "local"
	case DisconnectSourceRemote:
		return "remote"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// A DisconnectType is the management frame used to disconnect a client.
type DisconnectType int

const (
	// DisconnectDisassoc is a disassociation.
	DisconnectDisassoc DisconnectType = iota

	// DisconnectDeauth is a deauthentication.
	DisconnectDeauth
)

// String returns the string representation of a DisconnectType.
func (t DisconnectType) String() string {
	switch t {
	case DisconnectDisassoc:
		return "disassoc"
	case DisconnectDeauth:
		return "deauth"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// An RSSIChange is the direction in which a client's RSSI crossed a
// threshold.
type RSSIChange int

const (
	// RSSIUnchanged indicates the threshold was not crossed.
	RSSIUnchanged RSSIChange = iota

	// RSSILower indicates the RSSI fell below the threshold.
	RSSILower

	// RSSIHigher indicates the RSSI rose above the threshold.
	RSSIHigher
)

// String returns the string representation of an RSSIChange.
func (c RSSIChange) String() string {
	switch c {
	case RSSIUnchanged:
		return "unchanged"
	case RSSILower:
		return "lower"
	case RSSIHigher:
		return "higher"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}
