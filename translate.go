package bsal

import (
	"errors"
	"fmt"
	"net"
)

// errUnknownSource indicates an event from an AP index outside the steering
// group. Such events are expected while the group is reconfigured.
var errUnknownSource = errors.New("event from AP index outside steering group")

// Fixed vendor to steering value maps. A raw value missing from a map fails
// the translation of the whole event.
var (
	disconnectSources = map[uint32]DisconnectSource{
		RawDisconnectSourceLocal:  DisconnectSourceLocal,
		RawDisconnectSourceRemote: DisconnectSourceRemote,
	}

	disconnectTypes = map[uint32]DisconnectType{
		RawDisconnectDisassoc: DisconnectDisassoc,
		RawDisconnectDeauth:   DisconnectDeauth,
	}

	rssiChanges = map[uint32]RSSIChange{
		RawRSSIUnchanged: RSSIUnchanged,
		RawRSSILower:     RSSILower,
		RawRSSIHigher:    RSSIHigher,
	}
)

// A translator converts raw vendor events into steering events using the
// steering group, and maintains the capability cache from connect and
// disconnect events.
type translator struct {
	topo  *topology
	cache *capabilityCache
}

// translate converts ev. It returns errUnknownSource for events from outside
// the steering group, and an error wrapping ErrUnknownValue for events it
// cannot decode. Neither case modifies the cache.
func (tr *translator) translate(ev RawEvent) (Event, error) {
	s, ok := tr.topo.byAPIndex(ev.APIndex)
	if !ok {
		return Event{}, fmt.Errorf("%w: %d", errUnknownSource, ev.APIndex)
	}

	data, err := tr.decode(ev)
	if err != nil {
		return Event{}, fmt.Errorf("bsal: %q: event %d: %w", s.ifname, ev.Type, err)
	}

	return Event{
		Interface: s.ifname,
		Band:      s.band,
		Data:      data,
	}, nil
}

func (tr *translator) decode(ev RawEvent) (EventData, error) {
	switch ev.Type {
	case RawEventProbeRequest:
		p := ev.ProbeRequest
		return &ProbeRequest{
			HardwareAddr:  cloneMAC(p.MAC),
			RSSI:          p.RSSI,
			BroadcastSSID: p.BroadcastSSID,
			Blocked:       p.Blocked,
		}, nil
	case RawEventAuthFail:
		a := ev.AuthFail
		return &AuthFail{
			HardwareAddr: cloneMAC(a.MAC),
			RSSI:         a.RSSI,
			Reason:       a.Reason,
			Blocked:      a.Blocked,
			Rejected:     a.Rejected,
		}, nil
	case RawEventClientConnect:
		c := ev.ClientConnect
		caps := connectCapabilities(c)
		if err := tr.cache.upsert(c.MAC, clientUpdate{capabilities: &caps, connect: true}); err != nil {
			return nil, err
		}
		return &ClientConnect{
			HardwareAddr: cloneMAC(c.MAC),
			Capabilities: caps,
			AssocIEs:     append([]byte(nil), c.AssocIEs...),
		}, nil
	case RawEventClientDisconnect:
		d := ev.ClientDisconnect
		src, ok := disconnectSources[d.Source]
		if !ok {
			return nil, fmt.Errorf("%w: disconnect source %d", ErrUnknownValue, d.Source)
		}
		typ, ok := disconnectTypes[d.Type]
		if !ok {
			return nil, fmt.Errorf("%w: disconnect type %d", ErrUnknownValue, d.Type)
		}
		tr.cache.remove(d.MAC)
		return &ClientDisconnect{
			HardwareAddr: cloneMAC(d.MAC),
			Source:       src,
			Type:         typ,
			Reason:       d.Reason,
		}, nil
	case RawEventClientActivity:
		a := ev.ClientActivity
		return &ClientActivity{
			HardwareAddr: cloneMAC(a.MAC),
			Active:       a.Active,
		}, nil
	case RawEventChannelUtilization:
		return &ChannelUtilization{
			Percent: ev.ChannelUtilization.Utilization,
		}, nil
	case RawEventRSSICrossing:
		x := ev.RSSICrossing
		var (
			changes [3]RSSIChange
			ok      bool
		)
		for i, raw := range [3]uint32{x.Inactive, x.High, x.Low} {
			if changes[i], ok = rssiChanges[raw]; !ok {
				return nil, fmt.Errorf("%w: RSSI crossing direction %d", ErrUnknownValue, raw)
			}
		}
		return &RSSICrossing{
			HardwareAddr: cloneMAC(x.MAC),
			RSSI:         x.RSSI,
			Inactive:     changes[0],
			High:         changes[1],
			Low:          changes[2],
		}, nil
	case RawEventRSSI:
		r := ev.RSSI
		return &RSSI{
			HardwareAddr: cloneMAC(r.MAC),
			RSSI:         r.RSSI,
		}, nil
	case RawEventActionFrame:
		f := ev.ActionFrame
		mac := cloneMAC(f.MAC)
		if mac == nil {
			mac = frameTransmitter(f.Frame)
		}
		return &ActionFrame{
			HardwareAddr: mac,
			Frame:        append([]byte(nil), f.Frame...),
		}, nil
	default:
		return nil, fmt.Errorf("%w: event type %d", ErrUnknownValue, ev.Type)
	}
}

// connectCapabilities extracts the capabilities of a raw connect event.
func connectCapabilities(c RawClientConnect) ClientCapabilities {
	return ClientCapabilities{
		BTM:                c.BTM,
		RRM:                c.RRM,
		RRMLinkMeasurement: c.RRMLinkMeasurement,
		RRMNeighborReport:  c.RRMNeighborReport,
		RRMBeaconPassive:   c.RRMBeaconPassive,
		RRMBeaconActive:    c.RRMBeaconActive,
		RRMBeaconTable:     c.RRMBeaconTable,
		RRMLCIMeasurement:  c.RRMLCIMeasurement,
		RRMFTMRangeReport:  c.RRMFTMRangeReport,
		Band2GHz:           c.Band2GHz,
		Band5GHz:           c.Band5GHz,
		Band6GHz:           c.Band6GHz,
		MaxChannelWidth:    c.MaxChannelWidth,
		MaxStreams:         c.MaxStreams,
		PHYMode:            c.PHYMode,
		MaxMCS:             c.MaxMCS,
		MaxTxPower:         c.MaxTxPower,
		StaticSMPS:         c.StaticSMPS,
		MUMIMO:             c.MUMIMO,
	}
}

func cloneMAC(mac net.HardwareAddr) net.HardwareAddr {
	if mac == nil {
		return nil
	}

	return append(net.HardwareAddr(nil), mac...)
}
