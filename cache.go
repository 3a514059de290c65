package bsal

import (
	"net"
)

// ClientCapabilities are the capabilities a client advertised when it
// associated.
type ClientCapabilities struct {
	// 802.11v BSS Transition Management support.
	BTM bool

	// 802.11k Radio Resource Management support.
	RRM bool

	// RRM sub-capabilities.
	RRMLinkMeasurement bool
	RRMNeighborReport  bool
	RRMBeaconPassive   bool
	RRMBeaconActive    bool
	RRMBeaconTable     bool
	RRMLCIMeasurement  bool
	RRMFTMRangeReport  bool

	// Bands the client supports.
	Band2GHz bool
	Band5GHz bool
	Band6GHz bool

	// The maximum channel width in MHz.
	MaxChannelWidth int

	// The maximum number of spatial streams.
	MaxStreams int

	// The vendor PHY mode.
	PHYMode int

	// The maximum MCS index.
	MaxMCS int

	// The maximum transmit power in dBm.
	MaxTxPower int

	// The client uses static spatial multiplexing power save.
	StaticSMPS bool

	// The client supports MU-MIMO.
	MUMIMO bool
}

// ClientStats are measured client counters, reported by Client.ClientInfo.
type ClientStats struct {
	// The client is currently associated.
	Connected bool

	// The signal to noise ratio in dB.
	SNR int

	// Bytes received from and transmitted to the client.
	ReceivedBytes    uint64
	TransmittedBytes uint64
}

// A ClientSnapshot is the cached state of one client.
type ClientSnapshot struct {
	// The client's hardware address.
	HardwareAddr net.HardwareAddr

	// Capabilities from the most recent connect event, or nil if none was
	// seen.
	Capabilities *ClientCapabilities

	// Counters from the most recent ClientInfo query, or nil if none was
	// made.
	Stats *ClientStats

	// The number of connect events seen for the client.
	Connects int
}

// A clientUpdate carries the snapshot fields one source knows about. Nil
// fields leave the cached values untouched.
type clientUpdate struct {
	capabilities *ClientCapabilities
	stats        *ClientStats
	connect      bool
}

// A capabilityCache stores ClientSnapshots by hardware address. Entries live
// until the matching disconnect is translated.
type capabilityCache struct {
	clients map[macKey]*ClientSnapshot
	m       *metrics
}

func newCapabilityCache(m *metrics) *capabilityCache {
	return &capabilityCache{
		clients: make(map[macKey]*ClientSnapshot),
		m:       m,
	}
}

// upsert inserts a snapshot for mac or merges u into the existing one.
func (c *capabilityCache) upsert(mac net.HardwareAddr, u clientUpdate) error {
	k, err := newMACKey(mac)
	if err != nil {
		return err
	}

	s, ok := c.clients[k]
	if !ok {
		s = &ClientSnapshot{HardwareAddr: k.hardwareAddr()}
		c.clients[k] = s
		c.m.clients.Set(float64(len(c.clients)))
	}

	if u.capabilities != nil {
		caps := *u.capabilities
		s.Capabilities = &caps
	}
	if u.stats != nil {
		stats := *u.stats
		s.Stats = &stats
	}
	if u.connect {
		s.Connects++
	}

	return nil
}

// remove deletes the snapshot for mac, if any.
func (c *capabilityCache) remove(mac net.HardwareAddr) {
	k, err := newMACKey(mac)
	if err != nil {
		return
	}

	delete(c.clients, k)
	c.m.clients.Set(float64(len(c.clients)))
}

// get returns a copy of the snapshot for mac.
func (c *capabilityCache) get(mac net.HardwareAddr) (*ClientSnapshot, bool) {
	k, err := newMACKey(mac)
	if err != nil {
		return nil, false
	}

	s, ok := c.clients[k]
	if !ok {
		return nil, false
	}

	out := &ClientSnapshot{
		HardwareAddr: k.hardwareAddr(),
		Connects:     s.Connects,
	}
	if s.Capabilities != nil {
		caps := *s.Capabilities
		out.Capabilities = &caps
	}
	if s.Stats != nil {
		stats := *s.Stats
		out.Stats = &stats
	}

	return out, true
}

// clear removes every snapshot.
func (c *capabilityCache) clear() {
	c.clients = make(map[macKey]*ClientSnapshot)
	c.m.clients.Set(0)
}
