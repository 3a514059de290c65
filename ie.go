package bsal

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// errInvalidIE is returned when one or more IEs are malformed.
var errInvalidIE = errors.New("invalid 802.11 information element")

// List of 802.11 Information Element types.
const (
	ieSSID                  = 0
	iePowerCapability       = 33
	ieMeasurementRequest    = 38
	ieHTCapabilities        = 45
	ieNeighborReport        = 52
	ieSupportedOpClasses    = 59
	ieRMEnabledCapabilities = 70
	ieExtendedCapabilities  = 127
	ieVHTCapabilities       = 191
	ieExtension             = 255
)

// Element ID extensions, carried as the first byte of an ieExtension.
const (
	ieExtHECapabilities = 35
)

// Neighbor report subelement types.
const (
	neighborSubelemPreference = 3
)

// PHY modes reported in ClientCapabilities.PHYMode by decoded association
// requests.
const (
	phyModeLegacy = 0
	phyModeHT     = 1
	phyModeVHT    = 2
	phyModeHE     = 3
)

// An ie is an 802.11 information element.
type ie struct {
	ID uint8
	// Length field implied by length of data
	Data []byte
}

// parseIEs parses zero or more ies from a byte slice.
// Reference:
//
//	https://www.safaribooksonline.com/library/view/80211-wireless-networks/0596100523/ch04.html#wireless802dot112-CHP-4-FIG-31
func parseIEs(b []byte) ([]ie, error) {
	ies, err := splitIEs(b)
	if err != nil {
		return nil, err
	}

	return ies, nil
}

// splitIEs parses ies from b until the end of b or the first truncated
// element. On truncation it returns the ies before that element along with
// errInvalidIE.
func splitIEs(b []byte) ([]ie, error) {
	var ies []ie
	var i int
	for {
		if len(b[i:]) == 0 {
			break
		}
		if len(b[i:]) < 2 {
			return ies, errInvalidIE
		}

		id := b[i]
		i++
		l := int(b[i])
		i++

		if len(b[i:]) < l {
			return ies, errInvalidIE
		}

		ies = append(ies, ie{
			ID:   id,
			Data: b[i : i+l],
		})

		i += l
	}

	return ies, nil
}

// marshalIEs packs ies into their wire format.
func marshalIEs(ies []ie) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	for _, ie := range ies {
		if len(ie.Data) > 255 {
			return nil, errInvalidIE
		}

		buf.WriteByte(ie.ID)
		buf.WriteByte(uint8(len(ie.Data)))
		buf.Write(ie.Data)
	}

	return buf.Bytes(), nil
}

// bit reports whether bit n of the little endian bit field b is set.
func bit(b []byte, n int) bool {
	if n/8 >= len(b) {
		return false
	}

	return b[n/8]&(1<<(n%8)) != 0
}

// decodeAssocIEs derives client capabilities from the information elements
// of an association request. Elements too short for their type are skipped.
// If b is truncated, the capabilities decoded from the elements before the
// truncation are returned along with errInvalidIE.
func decodeAssocIEs(b []byte) (ClientCapabilities, error) {
	ies, err := splitIEs(b)

	caps := ClientCapabilities{
		MaxChannelWidth: 20,
		MaxStreams:      1,
		PHYMode:         phyModeLegacy,
	}

	for _, ie := range ies {
		switch ie.ID {
		case iePowerCapability:
			if len(ie.Data) == 2 {
				caps.MaxTxPower = int(int8(ie.Data[1]))
			}
		case ieHTCapabilities:
			if len(ie.Data) < 7 {
				continue
			}
			info := binary.LittleEndian.Uint16(ie.Data[0:2])
			caps.PHYMode = max(caps.PHYMode, phyModeHT)
			if info&(1<<1) != 0 {
				caps.MaxChannelWidth = max(caps.MaxChannelWidth, 40)
			}
			// SM power save mode 0 is static.
			caps.StaticSMPS = (info>>2)&0x3 == 0

			// Receive MCS bitmask, one byte per spatial stream.
			streams := 0
			for _, m := range ie.Data[3:7] {
				if m != 0 {
					streams++
				}
			}
			if streams > 0 {
				caps.MaxStreams = max(caps.MaxStreams, streams)
				caps.MaxMCS = max(caps.MaxMCS, streams*8-1)
			}
		case ieVHTCapabilities:
			if len(ie.Data) < 12 {
				continue
			}
			info := binary.LittleEndian.Uint32(ie.Data[0:4])
			caps.PHYMode = max(caps.PHYMode, phyModeVHT)
			caps.MaxChannelWidth = max(caps.MaxChannelWidth, 80)
			if (info>>2)&0x3 != 0 {
				caps.MaxChannelWidth = 160
			}
			// MU beamformee capable.
			caps.MUMIMO = info&(1<<20) != 0

			// Receive MCS map, two bits per spatial stream; 3 means
			// unsupported.
			rx := binary.LittleEndian.Uint16(ie.Data[4:6])
			streams := 0
			for i := 0; i < 8; i++ {
				if (rx>>(2*i))&0x3 != 0x3 {
					streams++
				}
			}
			if streams > 0 {
				caps.MaxStreams = max(caps.MaxStreams, streams)
				caps.MaxMCS = max(caps.MaxMCS, 7+int(rx&0x3))
			}
		case ieExtension:
			if len(ie.Data) > 0 && ie.Data[0] == ieExtHECapabilities {
				caps.PHYMode = max(caps.PHYMode, phyModeHE)
			}
		case ieSupportedOpClasses:
			for _, class := range ie.Data {
				switch {
				case class >= 81 && class <= 84:
					caps.Band2GHz = true
				case class >= 115 && class <= 130:
					caps.Band5GHz = true
				case class >= 131 && class <= 137:
					caps.Band6GHz = true
				}
			}
		case ieRMEnabledCapabilities:
			caps.RRM = true
			caps.RRMLinkMeasurement = bit(ie.Data, 0)
			caps.RRMNeighborReport = bit(ie.Data, 1)
			caps.RRMBeaconPassive = bit(ie.Data, 4)
			caps.RRMBeaconActive = bit(ie.Data, 5)
			caps.RRMBeaconTable = bit(ie.Data, 6)
			caps.RRMLCIMeasurement = bit(ie.Data, 12)
			caps.RRMFTMRangeReport = bit(ie.Data, 34)
		case ieExtendedCapabilities:
			// BSS Transition.
			caps.BTM = bit(ie.Data, 19)
		}
	}

	return caps, err
}
