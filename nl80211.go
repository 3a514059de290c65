package bsal

import (
	"net"
)

var _ Vendor = &NL80211{}

// An NL80211 is a Vendor backed by the Linux nl80211 generic netlink family.
// AP indices are kernel interface indices.
//
// mac80211 has no driver-side steering groups or per-client steering
// thresholds: SetGroup is recorded and acknowledged, while ClientSet,
// ClientRemove, ClientMeasure, and SetNeighborReports return
// ErrNotSupported. Connect and disconnect events are sourced from the nl80211
// "mlme" multicast group. WNM and radio measurement action frames are
// received for the AP interfaces present when the event callback is
// registered, unless another process such as hostapd already receives them.
type NL80211 struct {
	c *nlClient
}

// NewNL80211 dials nl80211.
func NewNL80211() (*NL80211, error) {
	c, err := newNLClient()
	if err != nil {
		return nil, err
	}

	return &NL80211{
		c: c,
	}, nil
}

// Close releases the netlink connections of an NL80211.
func (n *NL80211) Close() error {
	return n.c.Close()
}

// APIndex implements Vendor.
func (n *NL80211) APIndex(ifname string) (int, error) {
	return n.c.APIndex(ifname)
}

// Band implements Vendor.
func (n *NL80211) Band(apIndex int) (Band, error) {
	return n.c.Band(apIndex)
}

// SetGroup implements Vendor.
func (n *NL80211) SetGroup(group uint32, cfgs []APConfig) error {
	return n.c.SetGroup(group, cfgs)
}

// ClientSet implements Vendor.
func (n *NL80211) ClientSet(group uint32, apIndex int, mac net.HardwareAddr, cfg ClientConfig) error {
	return ErrNotSupported
}

// ClientRemove implements Vendor.
func (n *NL80211) ClientRemove(group uint32, apIndex int, mac net.HardwareAddr) error {
	return ErrNotSupported
}

// ClientMeasure implements Vendor.
func (n *NL80211) ClientMeasure(group uint32, apIndex int, mac net.HardwareAddr) error {
	return ErrNotSupported
}

// ClientDisconnect implements Vendor.
func (n *NL80211) ClientDisconnect(apIndex int, mac net.HardwareAddr, typ DisconnectType, reason int) error {
	return n.c.ClientDisconnect(apIndex, mac, typ, reason)
}

// ClientInfo implements Vendor. A station unknown to the kernel is reported
// as not connected.
func (n *NL80211) ClientInfo(apIndex int, mac net.HardwareAddr) (*ClientStats, error) {
	return n.c.ClientInfo(apIndex, mac)
}

// BTMRequest implements Vendor by transmitting the request frame through
// nl80211.
func (n *NL80211) BTMRequest(apIndex int, mac net.HardwareAddr, req *BTMRequest) error {
	return n.c.BTMRequest(apIndex, mac, req)
}

// RRMBeaconRequest implements Vendor by transmitting the request frame
// through nl80211.
func (n *NL80211) RRMBeaconRequest(apIndex int, mac net.HardwareAddr, req *RRMBeaconRequest) error {
	return n.c.RRMBeaconRequest(apIndex, mac, req)
}

// SetNeighborReports implements Vendor.
func (n *NL80211) SetNeighborReports(apIndex int, neighbors []Neighbor) error {
	return ErrNotSupported
}

// RegisterEventCallback implements Vendor. fn is invoked from a netlink
// receive goroutine.
func (n *NL80211) RegisterEventCallback(fn func(RawEvent)) error {
	return n.c.RegisterEventCallback(fn)
}

// UnregisterEventCallback implements Vendor.
func (n *NL80211) UnregisterEventCallback() error {
	return n.c.UnregisterEventCallback()
}
