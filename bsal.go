// Package bsal implements a band steering abstraction layer: it moves WiFi
// driver steering callbacks into a single consumer, tracks the steering group
// built from a device's radios, and normalizes driver events into
// SteeringEvents.
package bsal

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrLookup is returned when the vendor layer cannot resolve an interface
	// name, AP index, or band.
	ErrLookup = errors.New("vendor lookup failed")

	// ErrVendorCall is returned when a mutating vendor call fails.
	ErrVendorCall = errors.New("vendor call failed")

	// ErrUnknownValue is returned when a vendor event carries an event kind or
	// enumerated value which cannot be translated.
	ErrUnknownValue = errors.New("unknown vendor enumeration value")

	// ErrQueueFull is returned when a vendor event cannot be queued because
	// the event queue is at capacity. The event is dropped.
	ErrQueueFull = errors.New("event queue full")

	// ErrDuplicate is returned when an interface or band is already part of
	// the steering group.
	ErrDuplicate = errors.New("interface already in steering group")

	// ErrGroupFull is returned when every steering group slot is assigned.
	ErrGroupFull = errors.New("steering group full")

	// ErrNotFound is returned when an interface is not part of the steering
	// group.
	ErrNotFound = errors.New("interface not in steering group")

	// ErrBandChange is returned when an update would move an interface to a
	// different band.
	ErrBandChange = errors.New("interface band change not supported")

	// ErrInvalidMAC is returned when a hardware address is not a 6 byte
	// EUI-48 address.
	ErrInvalidMAC = errors.New("invalid client hardware address")

	// ErrClosed is returned when a Client is used after Close.
	ErrClosed = errors.New("client closed")

	// ErrNotSupported is returned by a vendor backend which cannot perform
	// an operation.
	ErrNotSupported = errors.New("not supported")
)

// A Band is a WiFi frequency band a steering group slot is bound to.
type Band int

const (
	// BandUnassigned indicates a steering group slot which has no interface.
	BandUnassigned Band = iota

	// Band2GHz is the 2.4GHz band.
	Band2GHz

	// Band5GHz is the 5GHz band.
	Band5GHz

	// Band6GHz is the 6GHz band.
	Band6GHz
)

// String returns the string representation of a Band.
func (b Band) String() string {
	switch b {
	case BandUnassigned:
		return "unassigned"
	case Band2GHz:
		return "2.4GHz"
	case Band5GHz:
		return "5GHz"
	case Band6GHz:
		return "6GHz"
	default:
		return fmt.Sprintf("unknown(%d)", b)
	}
}

// FrequencyToBand returns the Band containing the frequency freq in MHz, or
// BandUnassigned if the frequency is outside every steerable band.
func FrequencyToBand(freq int) Band {
	switch {
	case freq >= 2412 && freq <= 2484:
		return Band2GHz
	case freq >= 5150 && freq <= 5895:
		return Band5GHz
	case freq >= 5925 && freq <= 7125:
		return Band6GHz
	default:
		return BandUnassigned
	}
}

// Thresholds are the per-interface steering thresholds pushed to the vendor
// layer with a steering group.
type Thresholds struct {
	// How often channel utilization is sampled.
	UtilizationCheckInterval time.Duration

	// The number of samples averaged into one channel utilization event.
	UtilizationAverageCount int

	// How often client inactivity is checked.
	InactivityCheckInterval time.Duration

	// The time without traffic after which a client is reported inactive.
	InactivityThreshold time.Duration

	// The inactivity timeout used while the interface is overloaded.
	OverloadInactivityThreshold time.Duration

	// Default RSSI crossing thresholds applied to clients on the interface.
	DefaultInactiveRSSI int
	DefaultHighRSSI     int
	DefaultLowRSSI      int
}

// An IfaceConfig describes an interface added to the steering group.
type IfaceConfig struct {
	// The name of the interface, e.g. "wl0.1".
	Name string

	// Steering thresholds for the interface.
	Thresholds Thresholds
}

// An APConfig is the vendor-facing configuration of one assigned steering
// group slot.
type APConfig struct {
	// The vendor AP index of the interface.
	APIndex int

	// The band of the interface.
	Band Band

	// Steering thresholds for the interface.
	Thresholds Thresholds
}

// A ClientConfig holds per-client steering parameters.
type ClientConfig struct {
	// Blacklist hides the interface from the client entirely.
	Blacklist bool

	// Probe request RSSI high and low water marks. Probes outside the window
	// are not answered.
	ProbeHWM int
	ProbeLWM int

	// Authentication RSSI high and low water marks.
	AuthHWM int
	AuthLWM int

	// RSSI crossing thresholds which trigger RSSICrossing events.
	InactiveRSSI int
	HighRSSI     int
	LowRSSI      int

	// The 802.11 status code sent when authentication is rejected.
	AuthRejectReason int
}

// A BTMRequest is an 802.11v BSS Transition Management request.
type BTMRequest struct {
	// The dialog token identifying the request.
	DialogToken uint8

	// The request mode bit field (preferred candidate list, abridged,
	// disassociation imminent, ...).
	RequestMode uint8

	// The disassociation timer in TBTTs.
	DisassocTimer uint16

	// The validity interval of the candidate list in TBTTs.
	ValidityInterval uint8

	// Candidate neighbors, in order of preference.
	Candidates []Neighbor
}

// An RRMBeaconRequest is an 802.11k beacon measurement request.
type RRMBeaconRequest struct {
	// The dialog token identifying the request.
	DialogToken uint8

	// Operating class and channel to measure. Channel 0 means all channels.
	OpClass uint8
	Channel uint8

	// Randomization interval and measurement duration in TUs.
	RandomInterval uint16
	Duration       uint16

	// The measurement mode: 0 passive, 1 active, 2 beacon table.
	Mode uint8

	// The BSSID to measure. A nil BSSID means the wildcard BSSID.
	BSSID net.HardwareAddr

	// The SSID to measure. Empty means any SSID.
	SSID string
}

// A Neighbor is an 802.11k neighbor report entry.
type Neighbor struct {
	// The BSSID of the neighbor.
	BSSID net.HardwareAddr

	// The BSSID information bit field.
	BSSIDInfo uint32

	// The neighbor's operating class and channel.
	OpClass uint8
	Channel uint8

	// The neighbor's PHY type.
	PHYType uint8
}

// A Config configures a Client. A nil or zero-value Config applies defaults.
type Config struct {
	// The vendor steering group index. Defaults to 0.
	GroupIndex uint32

	// The number of radios, and therefore steering group slots. Defaults
	// to 2 and may not exceed MaxRadios.
	Radios int

	// The capacity of the vendor event queue. Defaults to 20.
	QueueSize int

	// Vendor calls slower than this are logged. Defaults to 500ms.
	SlowCallThreshold time.Duration

	// Registerer, if set, receives the Client's Prometheus collectors.
	Registerer prometheus.Registerer
}

// Default configuration values.
const (
	DefaultRadios            = 2
	DefaultQueueSize         = 20
	DefaultSlowCallThreshold = 500 * time.Millisecond
)

// MaxRadios is the largest number of radios in a steering group: one per
// steerable band.
const MaxRadios = 3

// withDefaults returns a copy of cfg with zero values replaced by defaults.
func (cfg *Config) withDefaults() Config {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Radios <= 0 {
		c.Radios = DefaultRadios
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.SlowCallThreshold <= 0 {
		c.SlowCallThreshold = DefaultSlowCallThreshold
	}

	return c
}

// A macKey is a comparable EUI-48 address.
type macKey [6]byte

// newMACKey converts mac to a macKey.
func newMACKey(mac net.HardwareAddr) (macKey, error) {
	var k macKey
	if len(mac) != len(k) {
		return k, fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	copy(k[:], mac)

	return k, nil
}

// hardwareAddr returns k as a freshly allocated net.HardwareAddr.
func (k macKey) hardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(append([]byte(nil), k[:]...))
}
