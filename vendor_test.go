package bsal

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

var errVendor = errors.New("vendor failure")

// A fakeIface is an interface known to a fakeVendor.
type fakeIface struct {
	apIndex int
	band    Band
}

// A groupCall records one SetGroup call.
type groupCall struct {
	group uint32
	cfgs  []APConfig
}

// A fakeVendor is an in-memory Vendor with injectable failures.
type fakeVendor struct {
	mu sync.Mutex

	ifaces    map[string]fakeIface
	fail      map[string]error
	calls     []string
	groups    []groupCall
	neighbors map[int][]Neighbor
	stats     map[string]*ClientStats

	cb         func(RawEvent)
	registered int
}

var _ Vendor = &fakeVendor{}

func newFakeVendor() *fakeVendor {
	return &fakeVendor{
		ifaces: map[string]fakeIface{
			"wl0": {apIndex: 3, band: Band2GHz},
			"wl1": {apIndex: 4, band: Band5GHz},
			"wl2": {apIndex: 5, band: Band6GHz},
			"wl3": {apIndex: 6, band: Band5GHz},
		},
		fail:      make(map[string]error),
		neighbors: make(map[int][]Neighbor),
		stats:     make(map[string]*ClientStats),
	}
}

// setFail makes every call of op fail with err. A nil err clears the
// failure.
func (v *fakeVendor) setFail(op string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err == nil {
		delete(v.fail, op)
		return
	}
	v.fail[op] = err
}

// record notes a call of op and returns its injected failure, if any. v.mu
// must be held.
func (v *fakeVendor) record(op string) error {
	v.calls = append(v.calls, op)
	return v.fail[op]
}

// count returns the number of calls of op.
func (v *fakeVendor) count(op string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	var n int
	for _, c := range v.calls {
		if c == op {
			n++
		}
	}

	return n
}

// lastGroup returns the most recent SetGroup call.
func (v *fakeVendor) lastGroup(t *testing.T) groupCall {
	t.Helper()

	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.groups) == 0 {
		t.Fatal("no SetGroup calls")
	}

	return v.groups[len(v.groups)-1]
}

// emit delivers ev to the registered callback as a vendor goroutine would.
func (v *fakeVendor) emit(t *testing.T, ev RawEvent) {
	t.Helper()

	v.mu.Lock()
	cb := v.cb
	v.mu.Unlock()

	if cb == nil {
		t.Fatal("no event callback registered")
	}

	cb(ev)
}

func (v *fakeVendor) APIndex(ifname string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.record("APIndex"); err != nil {
		return 0, err
	}

	ifi, ok := v.ifaces[ifname]
	if !ok {
		return 0, errors.New("no such interface")
	}

	return ifi.apIndex, nil
}

func (v *fakeVendor) Band(apIndex int) (Band, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.record("Band"); err != nil {
		return BandUnassigned, err
	}

	for _, ifi := range v.ifaces {
		if ifi.apIndex == apIndex {
			return ifi.band, nil
		}
	}

	return BandUnassigned, errors.New("no such AP index")
}

func (v *fakeVendor) SetGroup(group uint32, cfgs []APConfig) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.groups = append(v.groups, groupCall{group: group, cfgs: cfgs})
	return v.record("SetGroup")
}

func (v *fakeVendor) ClientSet(_ uint32, _ int, _ net.HardwareAddr, _ ClientConfig) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record("ClientSet")
}

func (v *fakeVendor) ClientRemove(_ uint32, _ int, _ net.HardwareAddr) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record("ClientRemove")
}

func (v *fakeVendor) ClientMeasure(_ uint32, _ int, _ net.HardwareAddr) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record("ClientMeasure")
}

func (v *fakeVendor) ClientDisconnect(_ int, _ net.HardwareAddr, _ DisconnectType, _ int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record("ClientDisconnect")
}

func (v *fakeVendor) ClientInfo(_ int, mac net.HardwareAddr) (*ClientStats, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.record("ClientInfo"); err != nil {
		return nil, err
	}

	s, ok := v.stats[mac.String()]
	if !ok {
		return &ClientStats{Connected: false}, nil
	}

	out := *s
	return &out, nil
}

func (v *fakeVendor) BTMRequest(_ int, _ net.HardwareAddr, _ *BTMRequest) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record("BTMRequest")
}

func (v *fakeVendor) RRMBeaconRequest(_ int, _ net.HardwareAddr, _ *RRMBeaconRequest) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record("RRMBeaconRequest")
}

func (v *fakeVendor) SetNeighborReports(apIndex int, neighbors []Neighbor) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.record("SetNeighborReports"); err != nil {
		return err
	}

	v.neighbors[apIndex] = neighbors
	return nil
}

func (v *fakeVendor) RegisterEventCallback(fn func(RawEvent)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.record("RegisterEventCallback"); err != nil {
		return err
	}

	v.cb = fn
	v.registered++
	return nil
}

func (v *fakeVendor) UnregisterEventCallback() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.record("UnregisterEventCallback"); err != nil {
		return err
	}

	v.cb = nil
	v.registered--
	return nil
}

// testVendorCaller returns a vendorCaller for v which never reports slow
// calls.
func testVendorCaller(v Vendor) (*vendorCaller, *metrics) {
	m := newMetrics()
	return newVendorCaller(v, m, time.Hour), m
}
