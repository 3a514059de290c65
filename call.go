package bsal

import (
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"
)

// A vendorCaller invokes Vendor methods, recording their latency and
// wrapping their errors.
type vendorCaller struct {
	v    Vendor
	m    *metrics
	slow time.Duration

	// now is replaced in tests.
	now func() time.Time
}

func newVendorCaller(v Vendor, m *metrics, slow time.Duration) *vendorCaller {
	return &vendorCaller{
		v:    v,
		m:    m,
		slow: slow,
		now:  time.Now,
	}
}

// call invokes the mutating vendor operation op on behalf of target. Errors
// are wrapped with ErrVendorCall.
func (vc *vendorCaller) call(op, target string, fn func(v Vendor) error) error {
	if err := vc.do(op, fn); err != nil {
		return fmt.Errorf("bsal: %s %s: %w: %w", op, target, ErrVendorCall, err)
	}

	return nil
}

// lookup invokes the vendor resolution op for target. Errors are wrapped
// with ErrLookup.
func (vc *vendorCaller) lookup(op, target string, fn func(v Vendor) error) error {
	if err := vc.do(op, fn); err != nil {
		return fmt.Errorf("bsal: %s %s: %w: %w", op, target, ErrLookup, err)
	}

	return nil
}

func (vc *vendorCaller) do(op string, fn func(v Vendor) error) error {
	start := vc.now()
	err := fn(vc.v)
	d := vc.now().Sub(start)

	vc.m.callDuration.WithLabelValues(op).Observe(d.Seconds())
	if d > vc.slow {
		vc.m.slowCalls.WithLabelValues(op).Inc()
		klog.Warningf("bsal: vendor call %s took %v (threshold %v)", op, d, vc.slow)
	}
	if err != nil {
		vc.m.callErrors.WithLabelValues(op).Inc()
	}

	return err
}

// resolve looks up the AP index and band of an interface.
func (vc *vendorCaller) resolve(ifname string) (apIndex int, band Band, err error) {
	err = vc.lookup("ap_index", fmt.Sprintf("%q", ifname), func(v Vendor) error {
		apIndex, err = v.APIndex(ifname)
		return err
	})
	if err != nil {
		return 0, BandUnassigned, err
	}

	err = vc.lookup("band", fmt.Sprintf("%q (AP index %d)", ifname, apIndex), func(v Vendor) error {
		band, err = v.Band(apIndex)
		if err == nil && band == BandUnassigned {
			return errors.New("no steerable band")
		}
		return err
	})
	if err != nil {
		return 0, BandUnassigned, err
	}

	return apIndex, band, nil
}
