package bsal

import (
	"net"
)

// A Vendor is the driver steering surface a Client is built on. Vendor
// methods are synchronous and may fail. A Client never invokes them
// concurrently, so implementations need not be safe for concurrent use
// except for the callback registered with RegisterEventCallback, which may
// be invoked from any goroutine at any time.
type Vendor interface {
	// APIndex resolves an interface name to a vendor AP index.
	APIndex(ifname string) (int, error)

	// Band resolves a vendor AP index to the band it operates on.
	Band(apIndex int) (Band, error)

	// SetGroup configures steering group group with one APConfig per
	// radio. A nil cfgs tears the group down.
	SetGroup(group uint32, cfgs []APConfig) error

	// ClientSet adds or updates a client's steering configuration.
	ClientSet(group uint32, apIndex int, mac net.HardwareAddr, cfg ClientConfig) error

	// ClientRemove removes a client's steering configuration.
	ClientRemove(group uint32, apIndex int, mac net.HardwareAddr) error

	// ClientMeasure requests an RSSI measurement; the result arrives as an
	// RSSI event.
	ClientMeasure(group uint32, apIndex int, mac net.HardwareAddr) error

	// ClientDisconnect disconnects a client with the given frame type and
	// 802.11 reason code.
	ClientDisconnect(apIndex int, mac net.HardwareAddr, typ DisconnectType, reason int) error

	// ClientInfo queries a client's connection state and counters.
	ClientInfo(apIndex int, mac net.HardwareAddr) (*ClientStats, error)

	// BTMRequest sends an 802.11v BSS Transition Management request.
	BTMRequest(apIndex int, mac net.HardwareAddr, req *BTMRequest) error

	// RRMBeaconRequest sends an 802.11k beacon measurement request.
	RRMBeaconRequest(apIndex int, mac net.HardwareAddr, req *RRMBeaconRequest) error

	// SetNeighborReports replaces the full neighbor report list of an AP.
	SetNeighborReports(apIndex int, neighbors []Neighbor) error

	// RegisterEventCallback registers fn to receive every raw steering
	// event. fn must be safe to call from any goroutine.
	RegisterEventCallback(fn func(RawEvent)) error

	// UnregisterEventCallback stops event delivery. Once it returns, the
	// registered callback is no longer invoked.
	UnregisterEventCallback() error
}

// A RawEventType is a vendor steering event code.
type RawEventType uint32

// Vendor steering event codes.
const (
	RawEventProbeRequest       RawEventType = 1
	RawEventClientConnect      RawEventType = 2
	RawEventClientDisconnect   RawEventType = 3
	RawEventClientActivity     RawEventType = 4
	RawEventChannelUtilization RawEventType = 5
	RawEventRSSICrossing       RawEventType = 6
	RawEventRSSI               RawEventType = 7
	RawEventAuthFail           RawEventType = 8
	RawEventActionFrame        RawEventType = 9
)

// Vendor codes for enumerated event fields.
const (
	RawDisconnectSourceLocal  uint32 = 1
	RawDisconnectSourceRemote uint32 = 2

	RawDisconnectDisassoc uint32 = 1
	RawDisconnectDeauth   uint32 = 2

	RawRSSIUnchanged uint32 = 0
	RawRSSILower     uint32 = 1
	RawRSSIHigher    uint32 = 2
)

// A RawEvent is a steering event as reported by the vendor layer. Only the
// field matching Type is meaningful.
type RawEvent struct {
	// The AP index which reported the event.
	APIndex int

	// The vendor event code.
	Type RawEventType

	ProbeRequest       RawProbeRequest
	ClientConnect      RawClientConnect
	ClientDisconnect   RawClientDisconnect
	ClientActivity     RawClientActivity
	ChannelUtilization RawChannelUtilization
	RSSICrossing       RawRSSICrossing
	RSSI               RawRSSI
	AuthFail           RawAuthFail
	ActionFrame        RawActionFrame
}

// A RawProbeRequest is the vendor payload of RawEventProbeRequest.
type RawProbeRequest struct {
	MAC           net.HardwareAddr
	RSSI          int
	BroadcastSSID bool
	Blocked       bool
}

// A RawClientConnect is the vendor payload of RawEventClientConnect.
type RawClientConnect struct {
	MAC net.HardwareAddr

	BTM bool
	RRM bool

	Band2GHz bool
	Band5GHz bool
	Band6GHz bool

	MaxChannelWidth int
	MaxStreams      int
	PHYMode         int
	MaxMCS          int
	MaxTxPower      int
	StaticSMPS      bool
	MUMIMO          bool

	RRMLinkMeasurement bool
	RRMNeighborReport  bool
	RRMBeaconPassive   bool
	RRMBeaconActive    bool
	RRMBeaconTable     bool
	RRMLCIMeasurement  bool
	RRMFTMRangeReport  bool

	AssocIEs []byte
}

// A RawClientDisconnect is the vendor payload of RawEventClientDisconnect.
type RawClientDisconnect struct {
	MAC    net.HardwareAddr
	Source uint32
	Type   uint32
	Reason int
}

// A RawClientActivity is the vendor payload of RawEventClientActivity.
type RawClientActivity struct {
	MAC    net.HardwareAddr
	Active bool
}

// A RawChannelUtilization is the vendor payload of RawEventChannelUtilization.
type RawChannelUtilization struct {
	Utilization int
}

// A RawRSSICrossing is the vendor payload of RawEventRSSICrossing.
type RawRSSICrossing struct {
	MAC      net.HardwareAddr
	RSSI     int
	Inactive uint32
	High     uint32
	Low      uint32
}

// A RawRSSI is the vendor payload of RawEventRSSI.
type RawRSSI struct {
	MAC  net.HardwareAddr
	RSSI int
}

// A RawAuthFail is the vendor payload of RawEventAuthFail.
type RawAuthFail struct {
	MAC      net.HardwareAddr
	RSSI     int
	Reason   int
	Blocked  bool
	Rejected bool
}

// A RawActionFrame is the vendor payload of RawEventActionFrame. MAC may be nil.
type RawActionFrame struct {
	MAC   net.HardwareAddr
	Frame []byte
}
