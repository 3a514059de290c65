package bsal

import (
	"fmt"

	"k8s.io/klog/v2"
)

// A slot is one radio's position in the steering group. A slot is assigned
// when its band is not BandUnassigned.
type slot struct {
	band       Band
	apIndex    int
	ifname     string
	thresholds Thresholds
}

func (s slot) assigned() bool { return s.band != BandUnassigned }

func (s slot) config() APConfig {
	return APConfig{
		APIndex:    s.apIndex,
		Band:       s.band,
		Thresholds: s.thresholds,
	}
}

// A topology is the steering group: one slot per radio, at most one slot per
// band. The vendor group is configured only once every slot is assigned and
// torn down once every slot is unassigned again.
type topology struct {
	index uint32
	slots []slot
	vc    *vendorCaller
	m     *metrics
}

func newTopology(index uint32, radios int, vc *vendorCaller, m *metrics) *topology {
	return &topology{
		index: index,
		slots: make([]slot, radios),
		vc:    vc,
		m:     m,
	}
}

// initialized reports whether every slot is assigned.
func (t *topology) initialized() bool {
	for _, s := range t.slots {
		if !s.assigned() {
			return false
		}
	}

	return true
}

// empty reports whether every slot is unassigned.
func (t *topology) empty() bool {
	for _, s := range t.slots {
		if s.assigned() {
			return false
		}
	}

	return true
}

// byAPIndex returns the assigned slot with the given AP index.
func (t *topology) byAPIndex(apIndex int) (*slot, bool) {
	for i := range t.slots {
		if s := &t.slots[i]; s.assigned() && s.apIndex == apIndex {
			return s, true
		}
	}

	return nil, false
}

// byBand returns the assigned slot with the given band.
func (t *topology) byBand(b Band) (*slot, bool) {
	for i := range t.slots {
		if s := &t.slots[i]; s.assigned() && s.band == b {
			return s, true
		}
	}

	return nil, false
}

// byName returns the assigned slot with the given interface name.
func (t *topology) byName(ifname string) (*slot, bool) {
	for i := range t.slots {
		if s := &t.slots[i]; s.assigned() && s.ifname == ifname {
			return s, true
		}
	}

	return nil, false
}

// free returns the first unassigned slot.
func (t *topology) free() (*slot, bool) {
	for i := range t.slots {
		if s := &t.slots[i]; !s.assigned() {
			return s, true
		}
	}

	return nil, false
}

// configs returns the vendor configuration of every slot.
func (t *topology) configs() []APConfig {
	cfgs := make([]APConfig, 0, len(t.slots))
	for _, s := range t.slots {
		cfgs = append(cfgs, s.config())
	}

	return cfgs
}

func (t *topology) setGroup(cfgs []APConfig) error {
	return t.vc.call("set_group", fmt.Sprintf("group %d", t.index), func(v Vendor) error {
		return v.SetGroup(t.index, cfgs)
	})
}

func (t *topology) updateGauge() {
	if t.initialized() {
		t.m.initialized.Set(1)
	} else {
		t.m.initialized.Set(0)
	}
}

// add assigns a slot to the interface described by ifcfg. The vendor group is
// configured when this assigns the last free slot.
func (t *topology) add(ifcfg IfaceConfig) error {
	apIndex, band, err := t.vc.resolve(ifcfg.Name)
	if err != nil {
		return err
	}

	if _, ok := t.byAPIndex(apIndex); ok {
		return fmt.Errorf("bsal: add %q (AP index %d): %w", ifcfg.Name, apIndex, ErrDuplicate)
	}
	if s, ok := t.byBand(band); ok {
		return fmt.Errorf("bsal: add %q: band %s held by %q (AP index %d): %w",
			ifcfg.Name, band, s.ifname, s.apIndex, ErrDuplicate)
	}

	s, ok := t.free()
	if !ok {
		return fmt.Errorf("bsal: add %q: %w", ifcfg.Name, ErrGroupFull)
	}

	*s = slot{
		band:       band,
		apIndex:    apIndex,
		ifname:     ifcfg.Name,
		thresholds: ifcfg.Thresholds,
	}
	klog.V(2).Infof("bsal: group %d: added %q (AP index %d, %s)", t.index, ifcfg.Name, apIndex, band)

	if !t.initialized() {
		klog.V(4).Infof("bsal: group %d: postponing vendor configuration until all radios are set", t.index)
		return nil
	}

	if err := t.setGroup(t.configs()); err != nil {
		// The vendor never accepted the group, so release the slot again.
		*s = slot{}
		return err
	}

	t.updateGauge()
	klog.V(2).Infof("bsal: group %d: initialized with %d radios", t.index, len(t.slots))

	return nil
}

// update replaces the thresholds of an assigned interface. The vendor group
// is reconfigured only if it is initialized.
func (t *topology) update(ifcfg IfaceConfig) error {
	apIndex, band, err := t.vc.resolve(ifcfg.Name)
	if err != nil {
		return err
	}

	s, ok := t.byAPIndex(apIndex)
	if !ok {
		return fmt.Errorf("bsal: update %q (AP index %d): %w", ifcfg.Name, apIndex, ErrNotFound)
	}
	if s.band != band {
		return fmt.Errorf("bsal: update %q: %s to %s: %w", ifcfg.Name, s.band, band, ErrBandChange)
	}

	prev := *s
	s.ifname = ifcfg.Name
	s.thresholds = ifcfg.Thresholds

	if !t.initialized() {
		return nil
	}

	if err := t.setGroup(t.configs()); err != nil {
		*s = prev

		// Best effort: the vendor may have applied part of the update, so
		// push the previous configuration again.
		klog.Warningf("bsal: group %d: update of %q failed, restoring previous configuration: %v",
			t.index, ifcfg.Name, err)
		if rerr := t.setGroup(t.configs()); rerr != nil {
			klog.Errorf("bsal: group %d: failed to restore configuration of %q: %v", t.index, ifcfg.Name, rerr)
		}

		return err
	}

	klog.V(2).Infof("bsal: group %d: updated %q", t.index, ifcfg.Name)

	return nil
}

// remove unassigns the slot of an interface. The vendor group is torn down
// when this unassigns the last assigned slot.
func (t *topology) remove(ifcfg IfaceConfig) error {
	s, ok := t.byName(ifcfg.Name)
	if !ok {
		// The interface may have been renamed since it was added; fall back
		// to the vendor's view of it.
		apIndex, _, err := t.vc.resolve(ifcfg.Name)
		if err != nil {
			return err
		}
		if s, ok = t.byAPIndex(apIndex); !ok {
			return fmt.Errorf("bsal: remove %q (AP index %d): %w", ifcfg.Name, apIndex, ErrNotFound)
		}
	}

	prev := *s
	*s = slot{}
	t.updateGauge()
	klog.V(2).Infof("bsal: group %d: removed %q (AP index %d, %s)", t.index, prev.ifname, prev.apIndex, prev.band)

	if !t.empty() {
		return nil
	}

	if err := t.setGroup(nil); err != nil {
		// The vendor still holds the group, so keep tracking the interface.
		*s = prev
		t.updateGauge()
		return err
	}

	klog.V(2).Infof("bsal: group %d: torn down", t.index)

	return nil
}
