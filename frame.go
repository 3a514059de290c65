package bsal

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Action frame categories and actions.
const (
	categoryRadioMeasurement = 5
	categoryWNM              = 10

	actionMeasurementRequest = 0
	actionBTMRequest         = 7
)

// measurementTypeBeacon is the beacon measurement request type.
const measurementTypeBeacon = 5

// btmPreferredCandidateList is the BTM request mode bit announcing a
// candidate list.
const btmPreferredCandidateList = 1 << 0

// wildcardBSSID matches any BSS in a beacon measurement request.
var wildcardBSSID = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// frameTransmitter returns the transmitter address of the 802.11 management
// frame b, or nil if b cannot be decoded as one.
func frameTransmitter(b []byte) net.HardwareAddr {
	p := gopacket.NewPacket(b, layers.LayerTypeDot11, gopacket.NoCopy)
	d, ok := p.Layer(layers.LayerTypeDot11).(*layers.Dot11)
	if !ok || d.Type.MainType() != layers.Dot11TypeMgmt || len(d.Address2) != 6 {
		return nil
	}

	return cloneMAC(d.Address2)
}

// actionFrame serializes an 802.11 action frame from bssid to da with the
// given body.
func actionFrame(da, bssid net.HardwareAddr, body []byte) ([]byte, error) {
	if len(da) != 6 || len(bssid) != 6 {
		return nil, fmt.Errorf("%w: action frame addresses %q, %q", ErrInvalidMAC, da, bssid)
	}

	dot11 := &layers.Dot11{
		Type:     layers.Dot11TypeMgmtAction,
		Address1: da,
		Address2: bssid,
		Address3: bssid,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, dot11, gopacket.Payload(body)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// neighborElement encodes n as a neighbor report element with the given
// candidate preference.
func neighborElement(n Neighbor, preference uint8) (ie, error) {
	if len(n.BSSID) != 6 {
		return ie{}, fmt.Errorf("%w: neighbor %q", ErrInvalidMAC, n.BSSID)
	}

	b := make([]byte, 13, 16)
	copy(b[0:6], n.BSSID)
	binary.LittleEndian.PutUint32(b[6:10], n.BSSIDInfo)
	b[10] = n.OpClass
	b[11] = n.Channel
	b[12] = n.PHYType
	b = append(b, neighborSubelemPreference, 1, preference)

	return ie{ID: ieNeighborReport, Data: b}, nil
}

// btmRequestFrame builds a BSS Transition Management request to the client
// da from the AP bssid.
func btmRequestFrame(da, bssid net.HardwareAddr, req *BTMRequest) ([]byte, error) {
	mode := req.RequestMode
	if len(req.Candidates) > 0 {
		mode |= btmPreferredCandidateList
	}

	body := []byte{categoryWNM, actionBTMRequest, req.DialogToken, mode, 0, 0, req.ValidityInterval}
	binary.LittleEndian.PutUint16(body[4:6], req.DisassocTimer)

	ies := make([]ie, 0, len(req.Candidates))
	for i, n := range req.Candidates {
		// Candidates are listed in order of preference.
		pref := 255 - i
		if pref < 1 {
			pref = 1
		}

		e, err := neighborElement(n, uint8(pref))
		if err != nil {
			return nil, err
		}
		ies = append(ies, e)
	}

	list, err := marshalIEs(ies)
	if err != nil {
		return nil, err
	}

	return actionFrame(da, bssid, append(body, list...))
}

// beaconRequestFrame builds a beacon measurement request to the client da
// from the AP bssid.
func beaconRequestFrame(da, bssid net.HardwareAddr, req *RRMBeaconRequest) ([]byte, error) {
	target := req.BSSID
	if target == nil {
		target = wildcardBSSID
	}
	if len(target) != 6 {
		return nil, fmt.Errorf("%w: beacon request BSSID %q", ErrInvalidMAC, target)
	}

	// Measurement token, request mode, measurement type, then the beacon
	// request fields.
	m := []byte{1, 0, measurementTypeBeacon, req.OpClass, req.Channel, 0, 0, 0, 0, req.Mode}
	binary.LittleEndian.PutUint16(m[5:7], req.RandomInterval)
	binary.LittleEndian.PutUint16(m[7:9], req.Duration)
	m = append(m, target...)

	if req.SSID != "" {
		sub, err := marshalIEs([]ie{{ID: ieSSID, Data: []byte(req.SSID)}})
		if err != nil {
			return nil, err
		}
		m = append(m, sub...)
	}

	elem, err := marshalIEs([]ie{{ID: ieMeasurementRequest, Data: m}})
	if err != nil {
		return nil, err
	}

	// Category, action, dialog token, and zero repetitions.
	body := []byte{categoryRadioMeasurement, actionMeasurementRequest, req.DialogToken, 0, 0}

	return actionFrame(da, bssid, append(body, elem...))
}
