//go:build linux
// +build linux

package bsal

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/mdlayher/bsal/internal/nl80211"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

var (
	errMLMEGroupNotFound = errors.New("mlme multicast group unavailable")
	errRegistered        = errors.New("event callback already registered")
)

// An nlClient is the Linux implementation behind NL80211, which makes use of
// netlink, generic netlink, and nl80211 to drive access point interfaces.
type nlClient struct {
	c             *genetlink.Conn
	familyID      uint16
	familyVersion uint8

	// dial opens the secondary connection used for multicast receives.
	dial func() (*genetlink.Conn, error)

	mu     sync.Mutex
	groups map[uint32][]APConfig
	events *eventListener
}

// newNLClient dials a generic netlink connection and verifies that nl80211
// is available for use by this package.
func newNLClient() (*nlClient, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}

	// Make a best effort to apply the strict options set to provide better
	// errors and validation.
	for _, o := range []netlink.ConnOption{
		netlink.ExtendedAcknowledge,
		netlink.GetStrictCheck,
	} {
		_ = c.SetOption(o, true)
	}

	return initNLClient(c, func() (*genetlink.Conn, error) {
		return genetlink.Dial(&netlink.Config{Strict: true})
	})
}

func initNLClient(c *genetlink.Conn, dial func() (*genetlink.Conn, error)) (*nlClient, error) {
	family, err := c.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		// Ensure the genl socket is closed on error to avoid leaking file
		// descriptors.
		_ = c.Close()
		return nil, err
	}

	return &nlClient{
		c:             c,
		familyID:      family.ID,
		familyVersion: family.Version,
		dial:          dial,
		groups:        make(map[uint32][]APConfig),
	}, nil
}

// Close stops event delivery and closes the client's generic netlink
// connection.
func (c *nlClient) Close() error {
	return errors.Join(c.UnregisterEventCallback(), c.c.Close())
}

// APIndex finds the interface index of the interface named ifname.
func (c *nlClient) APIndex(ifname string) (int, error) {
	// Ask nl80211 to dump a list of all WiFi interfaces
	msgs, err := c.get(
		unix.NL80211_CMD_GET_INTERFACE,
		netlink.Dump,
		nil,
		nil,
	)
	if err != nil {
		return 0, err
	}

	ifis, err := parseInterfaces(msgs)
	if err != nil {
		return 0, err
	}

	for _, ifi := range ifis {
		if ifi.Name == ifname {
			return ifi.Index, nil
		}
	}

	return 0, fmt.Errorf("wifi interface %q: %w", ifname, os.ErrNotExist)
}

// Band returns the band of the operating frequency of an interface.
func (c *nlClient) Band(apIndex int) (Band, error) {
	ifi, err := c.iface(apIndex)
	if err != nil {
		return BandUnassigned, err
	}

	if ifi.Frequency == 0 {
		return BandUnassigned, fmt.Errorf("interface %d has no operating frequency", apIndex)
	}

	return FrequencyToBand(ifi.Frequency), nil
}

// SetGroup records the steering group configuration. mac80211 keeps no
// steering group state of its own.
func (c *nlClient) SetGroup(group uint32, cfgs []APConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfgs == nil {
		delete(c.groups, group)
		klog.V(2).Infof("nl80211: group %d: torn down", group)
		return nil
	}

	c.groups[group] = append([]APConfig(nil), cfgs...)
	klog.V(2).Infof("nl80211: group %d: configured %d interfaces", group, len(cfgs))

	return nil
}

// ClientDisconnect removes a station from an interface by sending it a
// deauthentication or disassociation frame.
func (c *nlClient) ClientDisconnect(apIndex int, mac net.HardwareAddr, typ DisconnectType, reason int) error {
	var subtype uint8
	switch typ {
	case DisconnectDeauth:
		subtype = nl80211.SubtypeDeauth
	case DisconnectDisassoc:
		subtype = nl80211.SubtypeDisassoc
	default:
		return fmt.Errorf("%w: disconnect type %s", ErrNotSupported, typ)
	}

	_, err := c.get(
		unix.NL80211_CMD_DEL_STATION,
		netlink.Acknowledge,
		&nlInterface{Index: apIndex},
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, mac)
			ae.Uint8(unix.NL80211_ATTR_MGMT_SUBTYPE, subtype)
			ae.Uint16(unix.NL80211_ATTR_REASON_CODE, uint16(reason))
		},
	)
	return err
}

// ClientInfo requests the station information of mac on an interface and
// derives its SNR from the noise floor of the channel in use.
func (c *nlClient) ClientInfo(apIndex int, mac net.HardwareAddr) (*ClientStats, error) {
	ifi := &nlInterface{Index: apIndex}

	msgs, err := c.get(
		unix.NL80211_CMD_GET_STATION,
		0,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, mac)
		},
	)
	if errors.Is(err, os.ErrNotExist) {
		return &ClientStats{Connected: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return &ClientStats{Connected: false}, nil
	}

	info, err := parseStationInfo(msgs[0].Data)
	if errors.Is(err, os.ErrNotExist) {
		return &ClientStats{Connected: false}, nil
	}
	if err != nil {
		return nil, err
	}

	signal := info.Signal
	if signal == 0 {
		signal = info.SignalAverage
	}

	return &ClientStats{
		Connected:        true,
		SNR:              signal - c.noise(ifi),
		ReceivedBytes:    info.ReceivedBytes,
		TransmittedBytes: info.TransmittedBytes,
	}, nil
}

// noise returns the noise floor of the channel an interface is using, or
// nl80211.DefaultNoise if the driver reports no survey.
func (c *nlClient) noise(ifi *nlInterface) int {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_SURVEY,
		netlink.Dump,
		ifi,
		nil,
	)
	if err != nil {
		klog.V(4).Infof("nl80211: interface %d: survey unavailable: %v", ifi.Index, err)
		return nl80211.DefaultNoise
	}

	for i := range msgs {
		s, err := parseSurveyInfo(msgs[i].Data)
		if err != nil {
			continue
		}
		if s.InUse && s.Noise != 0 {
			return s.Noise
		}
	}

	return nl80211.DefaultNoise
}

// BTMRequest transmits a BSS Transition Management request frame.
func (c *nlClient) BTMRequest(apIndex int, mac net.HardwareAddr, req *BTMRequest) error {
	return c.sendFrame(apIndex, func(bssid net.HardwareAddr) ([]byte, error) {
		return btmRequestFrame(mac, bssid, req)
	})
}

// RRMBeaconRequest transmits a beacon measurement request frame.
func (c *nlClient) RRMBeaconRequest(apIndex int, mac net.HardwareAddr, req *RRMBeaconRequest) error {
	return c.sendFrame(apIndex, func(bssid net.HardwareAddr) ([]byte, error) {
		return beaconRequestFrame(mac, bssid, req)
	})
}

// sendFrame builds a management frame from the BSSID of an interface and
// transmits it on the interface's operating channel.
func (c *nlClient) sendFrame(apIndex int, build func(bssid net.HardwareAddr) ([]byte, error)) error {
	ifi, err := c.iface(apIndex)
	if err != nil {
		return err
	}

	frame, err := build(ifi.HardwareAddr)
	if err != nil {
		return err
	}

	_, err = c.get(
		unix.NL80211_CMD_FRAME,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_FRAME, frame)
			ae.Flag(unix.NL80211_ATTR_DONT_WAIT_FOR_ACK, true)
		},
	)
	return err
}

// iface requests the attributes of the interface with index apIndex.
func (c *nlClient) iface(apIndex int) (*nlInterface, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_INTERFACE,
		0,
		&nlInterface{Index: apIndex},
		nil,
	)
	if err != nil {
		return nil, err
	}

	ifis, err := parseInterfaces(msgs)
	if err != nil {
		return nil, err
	}
	if len(ifis) == 0 {
		return nil, fmt.Errorf("wifi interface %d: %w", apIndex, os.ErrNotExist)
	}

	return ifis[0], nil
}

// RegisterEventCallback joins the nl80211 mlme multicast group on a
// secondary connection, registers it for the steering action frames of the
// AP interfaces present at that time, and passes station and frame events
// to fn until UnregisterEventCallback is called.
func (c *nlClient) RegisterEventCallback(fn func(RawEvent)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events != nil {
		return errRegistered
	}

	conn, err := c.dial()
	if err != nil {
		return err
	}

	family, err := conn.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		_ = conn.Close()
		return err
	}

	var id uint32
	for _, group := range family.Groups {
		if group.Name == unix.NL80211_MULTICAST_GROUP_MLME {
			id = group.ID
			break
		}
	}
	if id == 0 {
		_ = conn.Close()
		return errMLMEGroupNotFound
	}

	// Frame registrations are answered before any multicast traffic is
	// joined, so their replies cannot interleave with events.
	if err := registerActionFrames(conn, family); err != nil {
		_ = conn.Close()
		return err
	}

	if err := conn.JoinGroup(id); err != nil {
		_ = conn.Close()
		return err
	}

	l := &eventListener{
		conn: conn,
		done: make(chan struct{}),
	}
	go l.receive(fn, family.Version)
	c.events = l

	return nil
}

// registerActionFrames asks nl80211 to deliver the WNM and radio measurement
// action frames received by every AP interface to conn. The kernel sends
// received frames only to the socket which registered for them.
func registerActionFrames(conn *genetlink.Conn, family genetlink.Family) error {
	msgs, err := conn.Execute(
		genetlink.Message{
			Header: genetlink.Header{
				Command: unix.NL80211_CMD_GET_INTERFACE,
				Version: family.Version,
			},
		},
		family.ID,
		netlink.Request|netlink.Dump,
	)
	if err != nil {
		return err
	}

	ifis, err := parseInterfaces(msgs)
	if err != nil {
		return err
	}

	for _, ifi := range ifis {
		if ifi.Type != unix.NL80211_IFTYPE_AP {
			continue
		}

		for _, category := range []byte{categoryWNM, categoryRadioMeasurement} {
			ae := netlink.NewAttributeEncoder()
			ifi.encode(ae)
			ae.Uint16(unix.NL80211_ATTR_FRAME_TYPE, nl80211.FrameTypeAction)
			ae.Bytes(unix.NL80211_ATTR_FRAME_MATCH, []byte{category})

			b, err := ae.Encode()
			if err != nil {
				return err
			}

			_, err = conn.Execute(
				genetlink.Message{
					Header: genetlink.Header{
						Command: unix.NL80211_CMD_REGISTER_FRAME,
						Version: family.Version,
					},
					Data: b,
				},
				family.ID,
				netlink.Request|netlink.Acknowledge,
			)
			if err != nil {
				// Another process, such as hostapd, may already own the
				// match.
				klog.Warningf("nl80211: %q: not receiving action frames of category %d: %v",
					ifi.Name, category, err)
				continue
			}

			klog.V(2).Infof("nl80211: %q: receiving action frames of category %d", ifi.Name, category)
		}
	}

	return nil
}

// UnregisterEventCallback closes the event connection and waits for its
// receive goroutine to exit.
func (c *nlClient) UnregisterEventCallback() error {
	c.mu.Lock()
	l := c.events
	c.events = nil
	c.mu.Unlock()

	if l == nil {
		return nil
	}

	return l.close()
}

// An eventListener receives nl80211 multicast messages on its own
// connection.
type eventListener struct {
	conn *genetlink.Conn

	mu      sync.Mutex
	closing bool

	done chan struct{}
}

// receive passes station events to fn until the connection is closed.
func (l *eventListener) receive(fn func(RawEvent), familyVersion uint8) {
	defer close(l.done)

	for {
		msgs, _, err := l.conn.Receive()
		if err != nil {
			l.mu.Lock()
			closing := l.closing
			l.mu.Unlock()

			if !closing {
				klog.Errorf("nl80211: stopped receiving events: %v", err)
			}
			return
		}

		for _, msg := range msgs {
			if msg.Header.Version != familyVersion {
				continue
			}

			ev, err := parseEvent(msg)
			if err != nil {
				klog.V(4).Infof("nl80211: skipping event %d: %v", msg.Header.Command, err)
				continue
			}
			if ev != nil {
				fn(*ev)
			}
		}
	}
}

func (l *eventListener) close() error {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()

	err := l.conn.Close()
	<-l.done
	return err
}

// parseEvent converts an nl80211 multicast message into a RawEvent. It
// returns nil for commands which are not steering events.
func parseEvent(m genetlink.Message) (*RawEvent, error) {
	switch m.Header.Command {
	case unix.NL80211_CMD_NEW_STATION, unix.NL80211_CMD_DEL_STATION, unix.NL80211_CMD_FRAME:
	default:
		return nil, nil
	}

	attrs, err := netlink.UnmarshalAttributes(m.Data)
	if err != nil {
		return nil, err
	}

	ev := &RawEvent{}
	var (
		mac    net.HardwareAddr
		ies    []byte
		frame  []byte
		reason int
	)
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_ATTR_IFINDEX:
			ev.APIndex = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_MAC:
			mac = net.HardwareAddr(a.Data)
		case unix.NL80211_ATTR_IE:
			ies = a.Data
		case unix.NL80211_ATTR_FRAME:
			frame = a.Data
		case unix.NL80211_ATTR_REASON_CODE:
			reason = int(nlenc.Uint16(a.Data))
		}
	}

	switch m.Header.Command {
	case unix.NL80211_CMD_NEW_STATION:
		caps, err := decodeAssocIEs(ies)
		if err != nil {
			// Report the connect with whatever the intact elements
			// advertised.
			klog.V(2).Infof("nl80211: station %s: association IEs: %v", mac, err)
		}

		ev.Type = RawEventClientConnect
		ev.ClientConnect = RawClientConnect{
			MAC:                mac,
			BTM:                caps.BTM,
			RRM:                caps.RRM,
			Band2GHz:           caps.Band2GHz,
			Band5GHz:           caps.Band5GHz,
			Band6GHz:           caps.Band6GHz,
			MaxChannelWidth:    caps.MaxChannelWidth,
			MaxStreams:         caps.MaxStreams,
			PHYMode:            caps.PHYMode,
			MaxMCS:             caps.MaxMCS,
			MaxTxPower:         caps.MaxTxPower,
			StaticSMPS:         caps.StaticSMPS,
			MUMIMO:             caps.MUMIMO,
			RRMLinkMeasurement: caps.RRMLinkMeasurement,
			RRMNeighborReport:  caps.RRMNeighborReport,
			RRMBeaconPassive:   caps.RRMBeaconPassive,
			RRMBeaconActive:    caps.RRMBeaconActive,
			RRMBeaconTable:     caps.RRMBeaconTable,
			RRMLCIMeasurement:  caps.RRMLCIMeasurement,
			RRMFTMRangeReport:  caps.RRMFTMRangeReport,
			AssocIEs:           ies,
		}
	case unix.NL80211_CMD_DEL_STATION:
		// The kernel does not say who ended the association; report it as
		// a local deauthentication.
		ev.Type = RawEventClientDisconnect
		ev.ClientDisconnect = RawClientDisconnect{
			MAC:    mac,
			Source: RawDisconnectSourceLocal,
			Type:   RawDisconnectDeauth,
			Reason: reason,
		}
	case unix.NL80211_CMD_FRAME:
		if len(frame) == 0 {
			return nil, errors.New("frame event without frame")
		}

		ev.Type = RawEventActionFrame
		ev.ActionFrame = RawActionFrame{Frame: frame}

		// The transmitter address of a management frame header.
		if len(frame) >= 24 {
			ev.ActionFrame.MAC = cloneMAC(frame[10:16])
		}
	}

	return ev, nil
}

// get performs a request/response interaction with nl80211.
func (c *nlClient) get(
	cmd uint8,
	flags netlink.HeaderFlags,
	ifi *nlInterface,
	// May be nil; used to apply optional parameters.
	params func(ae *netlink.AttributeEncoder),
) ([]genetlink.Message, error) {
	ae := netlink.NewAttributeEncoder()
	ifi.encode(ae)
	if params != nil {
		// Optionally apply more parameters to the attribute encoder.
		params(ae)
	}

	return c.execute(cmd, flags, ae)
}

// execute executes the specified command with additional header flags and input
// netlink request attributes. The netlink.Request header flag is automatically
// set.
func (c *nlClient) execute(
	cmd uint8,
	flags netlink.HeaderFlags,
	ae *netlink.AttributeEncoder,
) ([]genetlink.Message, error) {
	b, err := ae.Encode()
	if err != nil {
		return nil, err
	}

	return c.c.Execute(
		genetlink.Message{
			Header: genetlink.Header{
				Command: cmd,
				Version: c.familyVersion,
			},
			Data: b,
		},
		// Always pass the genetlink family ID and request flag.
		c.familyID,
		netlink.Request|flags,
	)
}

// An nlInterface is a WiFi network interface as reported by nl80211.
type nlInterface struct {
	Index        int
	Name         string
	HardwareAddr net.HardwareAddr
	PHY          int
	Type         int
	Frequency    int
}

// parseInterfaces parses zero or more nlInterfaces from nl80211 interface
// messages.
func parseInterfaces(msgs []genetlink.Message) ([]*nlInterface, error) {
	ifis := make([]*nlInterface, 0, len(msgs))
	for _, m := range msgs {
		attrs, err := netlink.UnmarshalAttributes(m.Data)
		if err != nil {
			return nil, err
		}

		var ifi nlInterface
		if err := (&ifi).parseAttributes(attrs); err != nil {
			return nil, err
		}

		ifis = append(ifis, &ifi)
	}

	return ifis, nil
}

// encode provides an encoding function for ifi's attributes. If ifi is nil,
// encode is a no-op.
func (ifi *nlInterface) encode(ae *netlink.AttributeEncoder) {
	if ifi == nil {
		return
	}

	// Mandatory.
	ae.Uint32(unix.NL80211_ATTR_IFINDEX, uint32(ifi.Index))
}

// parseAttributes parses netlink attributes into an nlInterface's fields.
func (ifi *nlInterface) parseAttributes(attrs []netlink.Attribute) error {
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_ATTR_IFINDEX:
			ifi.Index = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_IFNAME:
			ifi.Name = nlenc.String(a.Data)
		case unix.NL80211_ATTR_MAC:
			ifi.HardwareAddr = net.HardwareAddr(a.Data)
		case unix.NL80211_ATTR_WIPHY:
			ifi.PHY = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_IFTYPE:
			ifi.Type = int(nlenc.Uint32(a.Data))
		case unix.NL80211_ATTR_WIPHY_FREQ:
			ifi.Frequency = int(nlenc.Uint32(a.Data))
		}
	}

	return nil
}

// A stationInfo holds the nl80211 statistics of one associated station.
type stationInfo struct {
	HardwareAddr     net.HardwareAddr
	Signal           int
	SignalAverage    int
	ReceivedBytes    uint64
	TransmittedBytes uint64
}

// parseStationInfo parses stationInfo attributes from a byte slice of
// netlink attributes.
func parseStationInfo(b []byte) (*stationInfo, error) {
	attrs, err := netlink.UnmarshalAttributes(b)
	if err != nil {
		return nil, err
	}

	var info stationInfo
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_ATTR_MAC:
			info.HardwareAddr = net.HardwareAddr(a.Data)
		case unix.NL80211_ATTR_STA_INFO:
			nattrs, err := netlink.UnmarshalAttributes(a.Data)
			if err != nil {
				return nil, err
			}

			if err := (&info).parseAttributes(nattrs); err != nil {
				return nil, err
			}

			// Parsed the necessary data.
			return &info, nil
		}
	}

	// No station info found
	return nil, os.ErrNotExist
}

// parseAttributes parses netlink attributes into a stationInfo's fields.
func (info *stationInfo) parseAttributes(attrs []netlink.Attribute) error {
	for _, a := range attrs {
		switch a.Type {
		case unix.NL80211_STA_INFO_RX_BYTES64:
			info.ReceivedBytes = nlenc.Uint64(a.Data)
		case unix.NL80211_STA_INFO_TX_BYTES64:
			info.TransmittedBytes = nlenc.Uint64(a.Data)
		case unix.NL80211_STA_INFO_SIGNAL:
			// Should just be cast to int8, see code here: https://git.kernel.org/pub/scm/linux/kernel/git/jberg/iw.git/tree/station.c#n378
			info.Signal = int(int8(a.Data[0]))
		case unix.NL80211_STA_INFO_SIGNAL_AVG:
			info.SignalAverage = int(int8(a.Data[0]))
		}

		// Only use 32-bit counters if the 64-bit counters are not present.
		// If the 64-bit counters appear later in the slice, they will overwrite
		// these values.
		if info.ReceivedBytes == 0 && a.Type == unix.NL80211_STA_INFO_RX_BYTES {
			info.ReceivedBytes = uint64(nlenc.Uint32(a.Data))
		}
		if info.TransmittedBytes == 0 && a.Type == unix.NL80211_STA_INFO_TX_BYTES {
			info.TransmittedBytes = uint64(nlenc.Uint32(a.Data))
		}
	}

	return nil
}

// A surveyInfo is the survey of one channel of an interface.
type surveyInfo struct {
	Frequency int
	Noise     int
	InUse     bool
}

// parseSurveyInfo parses a single surveyInfo from a byte slice of netlink
// attributes.
func parseSurveyInfo(b []byte) (*surveyInfo, error) {
	attrs, err := netlink.UnmarshalAttributes(b)
	if err != nil {
		return nil, err
	}

	for _, a := range attrs {
		if a.Type != unix.NL80211_ATTR_SURVEY_INFO {
			continue
		}

		nattrs, err := netlink.UnmarshalAttributes(a.Data)
		if err != nil {
			return nil, err
		}

		var info surveyInfo
		for _, na := range nattrs {
			switch na.Type {
			case unix.NL80211_SURVEY_INFO_FREQUENCY:
				info.Frequency = int(nlenc.Uint32(na.Data))
			case unix.NL80211_SURVEY_INFO_NOISE:
				info.Noise = int(int8(na.Data[0]))
			case unix.NL80211_SURVEY_INFO_IN_USE:
				info.InUse = true
			}
		}

		// Parsed the necessary data.
		return &info, nil
	}

	// No survey info found
	return nil, os.ErrNotExist
}
