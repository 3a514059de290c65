//go:build !linux
// +build !linux

package bsal

import (
	"errors"
	"net"
)

// errUnimplemented is returned by all functions on platforms that
// cannot make use of nl80211.
var errUnimplemented = errors.New("nl80211 not implemented on this platform")

// An nlClient is the no-op implementation of the nl80211 backend.
type nlClient struct{}

func newNLClient() (*nlClient, error) { return nil, errUnimplemented }

func (*nlClient) Close() error                          { return errUnimplemented }
func (*nlClient) APIndex(_ string) (int, error)         { return 0, errUnimplemented }
func (*nlClient) Band(_ int) (Band, error)              { return BandUnassigned, errUnimplemented }
func (*nlClient) SetGroup(_ uint32, _ []APConfig) error { return errUnimplemented }
func (*nlClient) ClientDisconnect(_ int, _ net.HardwareAddr, _ DisconnectType, _ int) error {
	return errUnimplemented
}
func (*nlClient) ClientInfo(_ int, _ net.HardwareAddr) (*ClientStats, error) {
	return nil, errUnimplemented
}
func (*nlClient) BTMRequest(_ int, _ net.HardwareAddr, _ *BTMRequest) error {
	return errUnimplemented
}
func (*nlClient) RRMBeaconRequest(_ int, _ net.HardwareAddr, _ *RRMBeaconRequest) error {
	return errUnimplemented
}
func (*nlClient) RegisterEventCallback(_ func(RawEvent)) error { return errUnimplemented }
func (*nlClient) UnregisterEventCallback() error               { return errUnimplemented }
