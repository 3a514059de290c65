package bsal

import (
	"bytes"
	"fmt"
	"net"
	"sort"

	"k8s.io/klog/v2"
)

// A neighborKey identifies a neighbor as reported by one interface.
type neighborKey struct {
	bssid  macKey
	ifname string
}

// A neighborTable holds 802.11k neighbor report entries per interface. Every
// change is pushed to the vendor as the interface's full list and undone if
// the push fails.
type neighborTable struct {
	entries map[neighborKey]Neighbor
	vc      *vendorCaller
	m       *metrics
}

func newNeighborTable(vc *vendorCaller, m *metrics) *neighborTable {
	return &neighborTable{
		entries: make(map[neighborKey]Neighbor),
		vc:      vc,
		m:       m,
	}
}

// list returns the neighbors of ifname in BSSID order.
func (t *neighborTable) list(ifname string) []Neighbor {
	var ns []Neighbor
	for k, n := range t.entries {
		if k.ifname == ifname {
			ns = append(ns, cloneNeighbor(n))
		}
	}

	sort.Slice(ns, func(i, j int) bool {
		return bytes.Compare(ns[i].BSSID, ns[j].BSSID) < 0
	})

	return ns
}

// set inserts or replaces the neighbor n of ifname.
func (t *neighborTable) set(ifname string, n Neighbor) error {
	bssid, err := newMACKey(n.BSSID)
	if err != nil {
		return err
	}
	k := neighborKey{bssid: bssid, ifname: ifname}

	prev, existed := t.entries[k]
	t.entries[k] = cloneNeighbor(n)

	if err := t.push(ifname); err != nil {
		if existed {
			t.entries[k] = prev
		} else {
			delete(t.entries, k)
		}
		return err
	}

	t.m.neighbors.Set(float64(len(t.entries)))
	klog.V(2).Infof("bsal: %q: set neighbor %s (op class %d, channel %d)", ifname, n.BSSID, n.OpClass, n.Channel)

	return nil
}

// remove deletes the neighbor bssid of ifname. Removing an unknown neighbor
// is not an error.
func (t *neighborTable) remove(ifname string, bssid net.HardwareAddr) error {
	b, err := newMACKey(bssid)
	if err != nil {
		return err
	}
	k := neighborKey{bssid: b, ifname: ifname}

	prev, ok := t.entries[k]
	if !ok {
		return nil
	}
	delete(t.entries, k)

	if err := t.push(ifname); err != nil {
		t.entries[k] = prev
		return err
	}

	t.m.neighbors.Set(float64(len(t.entries)))
	klog.V(2).Infof("bsal: %q: removed neighbor %s", ifname, bssid)

	return nil
}

// push sends the full neighbor list of ifname to the vendor.
func (t *neighborTable) push(ifname string) error {
	var apIndex int
	err := t.vc.lookup("ap_index", fmt.Sprintf("%q", ifname), func(v Vendor) error {
		var err error
		apIndex, err = v.APIndex(ifname)
		return err
	})
	if err != nil {
		return err
	}

	ns := t.list(ifname)
	return t.vc.call("set_neighbor_reports", fmt.Sprintf("%q (AP index %d)", ifname, apIndex), func(v Vendor) error {
		return v.SetNeighborReports(apIndex, ns)
	})
}

func cloneNeighbor(n Neighbor) Neighbor {
	n.BSSID = append(net.HardwareAddr(nil), n.BSSID...)
	return n
}
