//go:build linux
// +build linux

package bsal

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/bsal/internal/nl80211"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/genetlink/genltest"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

func TestLinux_nlClientAPIndexOK(t *testing.T) {
	ifis := []*nlInterface{
		{
			Index:        3,
			Name:         "wl0",
			HardwareAddr: net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad},
			Frequency:    2412,
		},
		{
			Index:        4,
			Name:         "wl1",
			HardwareAddr: net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0xde, 0xae},
			PHY:          1,
			Frequency:    5180,
		},
	}

	const flags = netlink.Request | netlink.Dump

	c := testNLClient(t, genltest.CheckRequest(familyID, unix.NL80211_CMD_GET_INTERFACE, flags,
		interfaceMessages(ifis...),
	))

	got, err := c.APIndex("wl1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(4, got); diff != "" {
		t.Fatalf("unexpected AP index (-want +got):\n%s", diff)
	}
}

func TestLinux_nlClientAPIndexIsNotExist(t *testing.T) {
	c := testNLClient(t, interfaceMessages(&nlInterface{Index: 3, Name: "wl0"}))

	_, err := c.APIndex("wl7")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected is not exist, got: %v", err)
	}
}

func TestLinux_nlClientBand(t *testing.T) {
	tests := []struct {
		name string
		freq int
		want Band
		ok   bool
	}{
		{
			name: "2.4GHz",
			freq: 2437,
			want: Band2GHz,
			ok:   true,
		},
		{
			name: "5GHz",
			freq: 5180,
			want: Band5GHz,
			ok:   true,
		},
		{
			name: "6GHz",
			freq: 5955,
			want: Band6GHz,
			ok:   true,
		},
		{
			name: "no frequency",
			want: BandUnassigned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ifi := &nlInterface{Index: 3, Name: "wl0", Frequency: tt.freq}

			// Not a dump: the interface is addressed by index.
			const flags = netlink.Request

			c := testNLClient(t, genltest.CheckRequest(familyID, unix.NL80211_CMD_GET_INTERFACE, flags,
				func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
					attrs, err := netlink.UnmarshalAttributes(greq.Data)
					if err != nil {
						t.Fatalf("failed to unmarshal attributes: %v", err)
					}

					if diff := diffNetlinkAttributes(ifi.idAttrs(), attrs); diff != "" {
						t.Fatalf("unexpected request netlink attributes (-want +got):\n%s", diff)
					}

					return interfaceMessages(ifi)(greq, nreq)
				},
			))

			got, err := c.Band(3)
			if tt.ok && err != nil {
				t.Fatalf("failed to get band: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected an error, but none occurred")
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected band (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLinux_nlClientClientDisconnect(t *testing.T) {
	mac := net.HardwareAddr{0xb8, 0x27, 0xeb, 0xd5, 0xf3, 0xef}

	tests := []struct {
		name    string
		typ     DisconnectType
		subtype uint8
	}{
		{
			name:    "deauth",
			typ:     DisconnectDeauth,
			subtype: nl80211.SubtypeDeauth,
		},
		{
			name:    "disassoc",
			typ:     DisconnectDisassoc,
			subtype: nl80211.SubtypeDisassoc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const flags = netlink.Request | netlink.Acknowledge

			c := testNLClient(t, genltest.CheckRequest(familyID, unix.NL80211_CMD_DEL_STATION, flags,
				func(greq genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
					attrs, err := netlink.UnmarshalAttributes(greq.Data)
					if err != nil {
						t.Fatalf("failed to unmarshal attributes: %v", err)
					}

					want := []netlink.Attribute{
						{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(5)},
						{Type: unix.NL80211_ATTR_MAC, Data: mac},
						{Type: unix.NL80211_ATTR_MGMT_SUBTYPE, Data: []byte{tt.subtype}},
						{Type: unix.NL80211_ATTR_REASON_CODE, Data: nlenc.Uint16Bytes(5)},
					}

					if diff := diffNetlinkAttributes(want, attrs); diff != "" {
						t.Fatalf("unexpected request netlink attributes (-want +got):\n%s", diff)
					}

					return nil, nil
				},
			))

			if err := c.ClientDisconnect(5, mac, tt.typ, 5); err != nil {
				t.Fatalf("failed to disconnect client: %v", err)
			}
		})
	}
}

func TestLinux_nlClientClientInfo(t *testing.T) {
	mac := net.HardwareAddr{0xb8, 0x27, 0xeb, 0xd5, 0xf3, 0xef}

	tests := []struct {
		name    string
		station func() ([]genetlink.Message, error)
		survey  func() ([]genetlink.Message, error)
		want    *ClientStats
	}{
		{
			name: "unknown station",
			station: func() ([]genetlink.Message, error) {
				return nil, genltest.Error(int(syscall.ENOENT))
			},
			want: &ClientStats{Connected: false},
		},
		{
			name: "survey noise",
			station: func() ([]genetlink.Message, error) {
				return stationMessages(mac, -50, 1000, 2000), nil
			},
			survey: func() ([]genetlink.Message, error) {
				return []genetlink.Message{
					surveyMessage(2412, -80, false),
					surveyMessage(5180, -90, true),
				}, nil
			},
			want: &ClientStats{
				Connected:        true,
				SNR:              40,
				ReceivedBytes:    1000,
				TransmittedBytes: 2000,
			},
		},
		{
			name: "default noise",
			station: func() ([]genetlink.Message, error) {
				return stationMessages(mac, -50, 1000, 2000), nil
			},
			survey: func() ([]genetlink.Message, error) {
				return nil, genltest.Error(int(syscall.EOPNOTSUPP))
			},
			want: &ClientStats{
				Connected:        true,
				SNR:              -50 - nl80211.DefaultNoise,
				ReceivedBytes:    1000,
				TransmittedBytes: 2000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testNLClient(t, func(greq genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
				switch greq.Header.Command {
				case unix.NL80211_CMD_GET_STATION:
					return tt.station()
				case unix.NL80211_CMD_GET_SURVEY:
					return tt.survey()
				default:
					t.Fatalf("unexpected command: %d", greq.Header.Command)
					return nil, nil
				}
			})

			got, err := c.ClientInfo(5, mac)
			if err != nil {
				t.Fatalf("failed to get client info: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected client stats (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLinux_nlClientBTMRequest(t *testing.T) {
	var (
		bssid = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
		mac   = net.HardwareAddr{0xb8, 0x27, 0xeb, 0xd5, 0xf3, 0xef}
	)

	req := &BTMRequest{
		DialogToken:   1,
		DisassocTimer: 100,
		Candidates: []Neighbor{{
			BSSID:   net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
			OpClass: 115,
			Channel: 36,
		}},
	}

	want, err := btmRequestFrame(mac, bssid, req)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}

	var got []byte
	c := testNLClient(t, func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
		switch greq.Header.Command {
		case unix.NL80211_CMD_GET_INTERFACE:
			return interfaceMessages(&nlInterface{
				Index:        5,
				Name:         "wl1",
				HardwareAddr: bssid,
				Frequency:    5180,
			})(greq, nreq)
		case unix.NL80211_CMD_FRAME:
			attrs, err := netlink.UnmarshalAttributes(greq.Data)
			if err != nil {
				t.Fatalf("failed to unmarshal attributes: %v", err)
			}

			for _, a := range attrs {
				if a.Type == unix.NL80211_ATTR_FRAME {
					got = a.Data
				}
			}

			return nil, nil
		default:
			t.Fatalf("unexpected command: %d", greq.Header.Command)
			return nil, nil
		}
	})

	if err := c.BTMRequest(5, mac, req); err != nil {
		t.Fatalf("failed to send BTM request: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected frame (-want +got):\n%s", diff)
	}
}

func TestLinux_nlClientSetGroup(t *testing.T) {
	c := testNLClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		t.Fatal("SetGroup must not call into nl80211")
		return nil, nil
	})

	cfgs := []APConfig{
		{APIndex: 3, Band: Band2GHz},
		{APIndex: 4, Band: Band5GHz},
	}

	if err := c.SetGroup(1, cfgs); err != nil {
		t.Fatalf("failed to set group: %v", err)
	}
	if diff := cmp.Diff(cfgs, c.groups[1]); diff != "" {
		t.Fatalf("unexpected group (-want +got):\n%s", diff)
	}

	if err := c.SetGroup(1, nil); err != nil {
		t.Fatalf("failed to tear down group: %v", err)
	}
	if _, ok := c.groups[1]; ok {
		t.Fatal("group was not torn down")
	}
}

func TestLinux_nlClientRegisterEventCallbackNoMLMEGroup(t *testing.T) {
	c := testNLClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		return nil, nil
	})

	c.dial = func() (*genetlink.Conn, error) {
		// nl80211 without any multicast groups.
		return genltest.Dial(genltest.ServeFamily(genetlink.Family{
			ID:      familyID,
			Name:    unix.NL80211_GENL_NAME,
			Version: 1,
		}, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
			return nil, nil
		})), nil
	}

	if err := c.RegisterEventCallback(func(RawEvent) {}); !errors.Is(err, errMLMEGroupNotFound) {
		t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
			errMLMEGroupNotFound, err)
	}

	// Nothing was registered, so unregistering is a no-op.
	if err := c.UnregisterEventCallback(); err != nil {
		t.Fatalf("failed to unregister: %v", err)
	}
}

func TestLinux_registerActionFrames(t *testing.T) {
	family := genetlink.Family{
		ID:      familyID,
		Name:    unix.NL80211_GENL_NAME,
		Version: 1,
	}

	type registration struct {
		ifindex  int
		category byte
	}

	var got []registration
	conn := genltest.Dial(genltest.ServeFamily(family, func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
		switch greq.Header.Command {
		case unix.NL80211_CMD_GET_INTERFACE:
			return interfaceMessages(
				&nlInterface{Index: 3, Name: "wl0", Type: unix.NL80211_IFTYPE_AP},
				&nlInterface{Index: 4, Name: "wlan0", Type: unix.NL80211_IFTYPE_STATION},
				&nlInterface{Index: 5, Name: "wl1", Type: unix.NL80211_IFTYPE_AP},
			)(greq, nreq)
		case unix.NL80211_CMD_REGISTER_FRAME:
			attrs, err := netlink.UnmarshalAttributes(greq.Data)
			if err != nil {
				t.Fatalf("failed to unmarshal attributes: %v", err)
			}

			var (
				r         registration
				frameType uint16
			)
			for _, a := range attrs {
				switch a.Type {
				case unix.NL80211_ATTR_IFINDEX:
					r.ifindex = int(nlenc.Uint32(a.Data))
				case unix.NL80211_ATTR_FRAME_TYPE:
					frameType = nlenc.Uint16(a.Data)
				case unix.NL80211_ATTR_FRAME_MATCH:
					r.category = a.Data[0]
				}
			}

			if diff := cmp.Diff(uint16(0x00d0), frameType); diff != "" {
				t.Fatalf("unexpected frame type (-want +got):\n%s", diff)
			}

			// Another socket already owns this match.
			if r.ifindex == 3 && r.category == categoryRadioMeasurement {
				return nil, genltest.Error(int(syscall.EALREADY))
			}

			got = append(got, r)
			return nil, nil
		default:
			t.Fatalf("unexpected command: %d", greq.Header.Command)
			return nil, nil
		}
	}))
	defer conn.Close()

	if err := registerActionFrames(conn, family); err != nil {
		t.Fatalf("failed to register action frames: %v", err)
	}

	want := []registration{
		{ifindex: 3, category: categoryWNM},
		{ifindex: 5, category: categoryWNM},
		{ifindex: 5, category: categoryRadioMeasurement},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(registration{})); diff != "" {
		t.Fatalf("unexpected registrations (-want +got):\n%s", diff)
	}
}

func TestLinux_parseEvent(t *testing.T) {
	mac := net.HardwareAddr{0xb8, 0x27, 0xeb, 0xd5, 0xf3, 0xef}

	ies := mustMarshalIEs([]ie{
		{ID: ieSupportedOpClasses, Data: []byte{115, 81}},
		{ID: ieExtendedCapabilities, Data: []byte{0x00, 0x00, 0x08}},
	})

	frame, err := btmRequestFrame(mac, testBSSID, &BTMRequest{DialogToken: 1})
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}

	// RM enabled capabilities followed by a vendor element cut short.
	truncated := []byte{ieRMEnabledCapabilities, 0x01, 0x02, 221, 0x09, 0x00}

	tests := []struct {
		name string
		m    genetlink.Message
		want *RawEvent
		ok   bool
	}{
		{
			name: "new station",
			m: genetlink.Message{
				Header: genetlink.Header{Command: unix.NL80211_CMD_NEW_STATION},
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(5)},
					{Type: unix.NL80211_ATTR_MAC, Data: mac},
					{Type: unix.NL80211_ATTR_IE, Data: ies},
				}),
			},
			want: &RawEvent{
				APIndex: 5,
				Type:    RawEventClientConnect,
				ClientConnect: RawClientConnect{
					MAC:             mac,
					BTM:             true,
					Band2GHz:        true,
					Band5GHz:        true,
					MaxChannelWidth: 20,
					MaxStreams:      1,
					AssocIEs:        ies,
				},
			},
			ok: true,
		},
		{
			name: "del station",
			m: genetlink.Message{
				Header: genetlink.Header{Command: unix.NL80211_CMD_DEL_STATION},
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(5)},
					{Type: unix.NL80211_ATTR_MAC, Data: mac},
					{Type: unix.NL80211_ATTR_REASON_CODE, Data: nlenc.Uint16Bytes(8)},
				}),
			},
			want: &RawEvent{
				APIndex: 5,
				Type:    RawEventClientDisconnect,
				ClientDisconnect: RawClientDisconnect{
					MAC:    mac,
					Source: RawDisconnectSourceLocal,
					Type:   RawDisconnectDeauth,
					Reason: 8,
				},
			},
			ok: true,
		},
		{
			name: "action frame",
			m: genetlink.Message{
				Header: genetlink.Header{Command: unix.NL80211_CMD_FRAME},
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(5)},
					{Type: unix.NL80211_ATTR_FRAME, Data: []byte{0xd0, 0x00}},
				}),
			},
			want: &RawEvent{
				APIndex:     5,
				Type:        RawEventActionFrame,
				ActionFrame: RawActionFrame{Frame: []byte{0xd0, 0x00}},
			},
			ok: true,
		},
		{
			name: "action frame with header",
			m: genetlink.Message{
				Header: genetlink.Header{Command: unix.NL80211_CMD_FRAME},
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(5)},
					{Type: unix.NL80211_ATTR_FRAME, Data: frame},
				}),
			},
			want: &RawEvent{
				APIndex: 5,
				Type:    RawEventActionFrame,
				ActionFrame: RawActionFrame{
					MAC:   testBSSID,
					Frame: frame,
				},
			},
			ok: true,
		},
		{
			name: "frame without frame",
			m: genetlink.Message{
				Header: genetlink.Header{Command: unix.NL80211_CMD_FRAME},
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(5)},
				}),
			},
		},
		{
			name: "new station truncated trailing IE",
			m: genetlink.Message{
				Header: genetlink.Header{Command: unix.NL80211_CMD_NEW_STATION},
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(5)},
					{Type: unix.NL80211_ATTR_MAC, Data: mac},
					{Type: unix.NL80211_ATTR_IE, Data: truncated},
				}),
			},
			want: &RawEvent{
				APIndex: 5,
				Type:    RawEventClientConnect,
				ClientConnect: RawClientConnect{
					MAC:               mac,
					RRM:               true,
					RRMNeighborReport: true,
					MaxChannelWidth:   20,
					MaxStreams:        1,
					AssocIEs:          truncated,
				},
			},
			ok: true,
		},
		{
			name: "other command",
			m: genetlink.Message{
				Header: genetlink.Header{Command: unix.NL80211_CMD_NEW_SCAN_RESULTS},
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEvent(tt.m)
			if tt.ok && err != nil {
				t.Fatalf("failed to parse event: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected an error, but none occurred")
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected event (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLinux_initNLClientErrorCloseConn(t *testing.T) {
	c := genltest.Dial(func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		// Assume that nl80211 does not exist on this system.
		// The genetlink Conn should be closed to avoid leaking file descriptors.
		return nil, genltest.Error(int(syscall.ENOENT))
	})

	if _, err := initNLClient(c, nil); err == nil {
		t.Fatal("no error occurred, but expected one")
	}
}

const familyID = 26

func testNLClient(t *testing.T, fn genltest.Func) *nlClient {
	family := genetlink.Family{
		ID:      familyID,
		Name:    unix.NL80211_GENL_NAME,
		Version: 1,
	}

	c := genltest.Dial(genltest.ServeFamily(family, func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
		// If this function is invoked, we are calling a nl80211 function.
		if diff := cmp.Diff(int(family.ID), int(nreq.Header.Type)); diff != "" {
			t.Fatalf("unexpected generic netlink family ID (-want +got):\n%s", diff)
		}

		if diff := cmp.Diff(family.Version, greq.Header.Version); diff != "" {
			t.Fatalf("unexpected generic netlink family version (-want +got):\n%s", diff)
		}

		msgs, err := fn(greq, nreq)
		if err != nil {
			return nil, err
		}

		// Do a favor for the caller by planting the correct version in each message
		// header, as long as no version is supplied.
		for i := range msgs {
			if msgs[i].Header.Version == 0 {
				msgs[i].Header.Version = family.Version
			}
		}

		return msgs, nil
	}))

	client, err := initNLClient(c, func() (*genetlink.Conn, error) {
		return nil, errors.New("no event connection in tests")
	})
	if err != nil {
		t.Fatalf("failed to initialize test client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// diffNetlinkAttributes compares two []netlink.Attributes after zeroing their
// length fields that make equality checks in testing difficult.
func diffNetlinkAttributes(want, got []netlink.Attribute) string {
	// If different lengths, diff immediately for better error output.
	if len(want) != len(got) {
		return cmp.Diff(want, got)
	}

	for i := range want {
		want[i].Length = 0
		got[i].Length = 0
	}

	return cmp.Diff(want, got)
}

// Helper functions for converting types back into their raw attribute formats

func mustMarshalIEs(ies []ie) []byte {
	b, err := marshalIEs(ies)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal IEs: %v", err))
	}

	return b
}

func mustMarshalAttributes(attrs []netlink.Attribute) []byte {
	b, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal attributes: %v", err))
	}

	return b
}

// idAttrs returns the netlink attributes which address ifi in a request.
func (ifi *nlInterface) idAttrs() []netlink.Attribute {
	return []netlink.Attribute{{
		Type: unix.NL80211_ATTR_IFINDEX,
		Data: nlenc.Uint32Bytes(uint32(ifi.Index)),
	}}
}

func (ifi *nlInterface) attributes() []netlink.Attribute {
	return []netlink.Attribute{
		{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(uint32(ifi.Index))},
		{Type: unix.NL80211_ATTR_IFNAME, Data: nlenc.Bytes(ifi.Name)},
		{Type: unix.NL80211_ATTR_MAC, Data: ifi.HardwareAddr},
		{Type: unix.NL80211_ATTR_WIPHY, Data: nlenc.Uint32Bytes(uint32(ifi.PHY))},
		{Type: unix.NL80211_ATTR_IFTYPE, Data: nlenc.Uint32Bytes(uint32(ifi.Type))},
		{Type: unix.NL80211_ATTR_WIPHY_FREQ, Data: nlenc.Uint32Bytes(uint32(ifi.Frequency))},
	}
}

func interfaceMessages(ifis ...*nlInterface) genltest.Func {
	msgs := make([]genetlink.Message, 0, len(ifis))
	for _, ifi := range ifis {
		msgs = append(msgs, genetlink.Message{
			Header: genetlink.Header{
				Command: unix.NL80211_CMD_NEW_INTERFACE,
			},
			Data: mustMarshalAttributes(ifi.attributes()),
		})
	}

	return func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		return msgs, nil
	}
}

func stationMessages(mac net.HardwareAddr, signal int, rx, tx uint64) []genetlink.Message {
	return []genetlink.Message{{
		Header: genetlink.Header{
			Command: unix.NL80211_CMD_NEW_STATION,
		},
		Data: mustMarshalAttributes([]netlink.Attribute{
			{Type: unix.NL80211_ATTR_MAC, Data: mac},
			{
				Type: unix.NL80211_ATTR_STA_INFO,
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_STA_INFO_RX_BYTES, Data: nlenc.Uint32Bytes(uint32(rx))},
					{Type: unix.NL80211_STA_INFO_RX_BYTES64, Data: nlenc.Uint64Bytes(rx)},
					{Type: unix.NL80211_STA_INFO_TX_BYTES, Data: nlenc.Uint32Bytes(uint32(tx))},
					{Type: unix.NL80211_STA_INFO_TX_BYTES64, Data: nlenc.Uint64Bytes(tx)},
					{Type: unix.NL80211_STA_INFO_SIGNAL, Data: []byte{byte(int8(signal))}},
				}),
			},
		}),
	}}
}

func surveyMessage(freq, noise int, inUse bool) genetlink.Message {
	attrs := []netlink.Attribute{
		{Type: unix.NL80211_SURVEY_INFO_FREQUENCY, Data: nlenc.Uint32Bytes(uint32(freq))},
		{Type: unix.NL80211_SURVEY_INFO_NOISE, Data: []byte{byte(int8(noise))}},
	}
	if inUse {
		attrs = append(attrs, netlink.Attribute{Type: unix.NL80211_SURVEY_INFO_IN_USE, Data: []byte{}})
	}

	return genetlink.Message{
		Header: genetlink.Header{
			Command: unix.NL80211_CMD_NEW_SURVEY_RESULTS,
		},
		Data: mustMarshalAttributes([]netlink.Attribute{{
			Type: unix.NL80211_ATTR_SURVEY_INFO,
			Data: mustMarshalAttributes(attrs),
		}}),
	}
}
