package bsal

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"k8s.io/klog/v2"
)

// A Client steers WiFi clients through a Vendor. It owns one steering group,
// a capability cache of connected clients, and the neighbor report lists of
// its interfaces.
//
// Vendor events are queued by the vendor's goroutines and delivered to the
// Client's EventFunc from a single event goroutine. All other Client state
// and every vendor call is serialized by one lock, which is never held while
// the EventFunc runs.
type Client struct {
	cfg Config
	v   Vendor
	fn  EventFunc
	m   *metrics

	b *bridge

	// mu serializes translation, every vendor call, and all state below.
	mu     sync.Mutex
	closed bool
	vc     *vendorCaller
	topo   *topology
	cache  *capabilityCache
	nbrs   *neighborTable
	tr     *translator

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New creates a Client which steers through v and delivers steering events
// to fn. It registers an event callback with v which stays registered until
// Close is called.
func New(v Vendor, fn EventFunc, cfg *Config) (*Client, error) {
	if v == nil || fn == nil {
		return nil, errors.New("bsal: vendor and event function must not be nil")
	}
	if cfg != nil && cfg.Radios > MaxRadios {
		return nil, fmt.Errorf("bsal: %d radios exceed the %d steerable bands", cfg.Radios, MaxRadios)
	}

	c := newClient(v, fn, cfg)
	if c.cfg.Registerer != nil {
		if err := c.m.register(c.cfg.Registerer); err != nil {
			return nil, fmt.Errorf("bsal: register metrics: %w", err)
		}
	}

	go c.run()

	if err := v.RegisterEventCallback(c.enqueue); err != nil {
		c.shutdown()
		if c.cfg.Registerer != nil {
			c.m.unregister(c.cfg.Registerer)
		}
		return nil, fmt.Errorf("bsal: register event callback: %w: %w", ErrVendorCall, err)
	}

	klog.V(2).Infof("bsal: group %d: initialized with %d radio slots, queue size %d",
		c.cfg.GroupIndex, c.cfg.Radios, c.cfg.QueueSize)

	return c, nil
}

// newClient creates a Client without starting its event goroutine or
// registering with the vendor.
func newClient(v Vendor, fn EventFunc, cfg *Config) *Client {
	conf := cfg.withDefaults()
	m := newMetrics()
	vc := newVendorCaller(v, m, conf.SlowCallThreshold)

	topo := newTopology(conf.GroupIndex, conf.Radios, vc, m)
	cache := newCapabilityCache(m)

	return &Client{
		cfg:   conf,
		v:     v,
		fn:    fn,
		m:     m,
		b:     newBridge(conf.QueueSize, m),
		vc:    vc,
		topo:  topo,
		cache: cache,
		nbrs:  newNeighborTable(vc, m),
		tr:    &translator{topo: topo, cache: cache},
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Close unregisters the Client from its vendor, delivers every event which
// was already queued, and releases the Client's resources. The steering
// group is left configured in the vendor. Close must not be called from the
// Client's EventFunc.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if uerr := c.v.UnregisterEventCallback(); uerr != nil {
			err = fmt.Errorf("bsal: unregister event callback: %w: %w", ErrVendorCall, uerr)
		}

		c.shutdown()

		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		c.cache.clear()

		if c.cfg.Registerer != nil {
			c.m.unregister(c.cfg.Registerer)
		}
	})

	return err
}

// shutdown stops the event goroutine and waits for it to exit.
func (c *Client) shutdown() {
	close(c.stop)
	<-c.done
}

// enqueue is the callback registered with the vendor. It may be called from
// any goroutine.
func (c *Client) enqueue(ev RawEvent) {
	_ = c.b.enqueue(ev)
}

// run is the event goroutine.
func (c *Client) run() {
	defer close(c.done)

	for {
		select {
		case <-c.b.wake:
			c.dispatch()
		case <-c.stop:
			// Deliver anything queued before the vendor stopped calling
			// back.
			c.dispatch()
			return
		}
	}
}

// dispatch drains the event queue, translates every event, and delivers the
// results in order.
func (c *Client) dispatch() {
	raw := c.b.drain()
	if len(raw) == 0 {
		return
	}

	evs := make([]Event, 0, len(raw))

	c.mu.Lock()
	for _, r := range raw {
		ev, err := c.tr.translate(r)
		switch {
		case err == nil:
			evs = append(evs, ev)
		case errors.Is(err, errUnknownSource):
			c.m.discarded.WithLabelValues(discardUnknownSource).Inc()
			klog.V(4).Infof("bsal: dropping event %d: %v", r.Type, err)
		case errors.Is(err, ErrUnknownValue):
			c.m.discarded.WithLabelValues(discardUnknownValue).Inc()
			klog.Errorf("bsal: dropping event: %v", err)
		default:
			c.m.discarded.WithLabelValues(discardInvalid).Inc()
			klog.Errorf("bsal: dropping event: %v", err)
		}
	}
	c.mu.Unlock()

	for _, ev := range evs {
		c.m.delivered.WithLabelValues(ev.Data.Kind()).Inc()
		c.fn(ev)
	}
}

// locked runs fn with the Client's lock held.
func (c *Client) locked(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return fn()
}

// AddInterface adds an interface to the steering group. The vendor group is
// configured once every radio has an interface.
func (c *Client) AddInterface(ifcfg IfaceConfig) error {
	return c.locked(func() error {
		return c.topo.add(ifcfg)
	})
}

// UpdateInterface updates the thresholds of an interface in the steering
// group. An interface cannot change bands.
func (c *Client) UpdateInterface(ifcfg IfaceConfig) error {
	return c.locked(func() error {
		return c.topo.update(ifcfg)
	})
}

// RemoveInterface removes an interface from the steering group. The vendor
// group is torn down once no radio has an interface.
func (c *Client) RemoveInterface(ifcfg IfaceConfig) error {
	return c.locked(func() error {
		return c.topo.remove(ifcfg)
	})
}

// Initialized reports whether every radio of the steering group has an
// interface.
func (c *Client) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topo.initialized()
}

// apIndex returns the AP index of an interface in the steering group.
func (c *Client) apIndex(ifname string) (int, error) {
	s, ok := c.topo.byName(ifname)
	if !ok {
		return 0, fmt.Errorf("bsal: %q: %w", ifname, ErrNotFound)
	}

	return s.apIndex, nil
}

// clientCall validates mac, resolves ifname, and runs the vendor operation op
// for the client.
func (c *Client) clientCall(op, ifname string, mac net.HardwareAddr, fn func(v Vendor, apIndex int) error) error {
	return c.locked(func() error {
		if _, err := newMACKey(mac); err != nil {
			return err
		}

		apIndex, err := c.apIndex(ifname)
		if err != nil {
			return err
		}

		return c.vc.call(op, fmt.Sprintf("%q %s", ifname, mac), func(v Vendor) error {
			return fn(v, apIndex)
		})
	})
}

// ClientAdd configures steering of the client mac on an interface.
func (c *Client) ClientAdd(ifname string, mac net.HardwareAddr, cfg ClientConfig) error {
	return c.clientCall("client_set", ifname, mac, func(v Vendor, apIndex int) error {
		return v.ClientSet(c.cfg.GroupIndex, apIndex, mac, cfg)
	})
}

// ClientUpdate replaces the steering configuration of the client mac.
func (c *Client) ClientUpdate(ifname string, mac net.HardwareAddr, cfg ClientConfig) error {
	return c.clientCall("client_set", ifname, mac, func(v Vendor, apIndex int) error {
		return v.ClientSet(c.cfg.GroupIndex, apIndex, mac, cfg)
	})
}

// ClientRemove stops steering the client mac on an interface.
func (c *Client) ClientRemove(ifname string, mac net.HardwareAddr) error {
	return c.clientCall("client_remove", ifname, mac, func(v Vendor, apIndex int) error {
		return v.ClientRemove(c.cfg.GroupIndex, apIndex, mac)
	})
}

// ClientMeasure requests an RSSI measurement of the client mac. The result
// is delivered as an RSSI event.
func (c *Client) ClientMeasure(ifname string, mac net.HardwareAddr) error {
	return c.clientCall("client_measure", ifname, mac, func(v Vendor, apIndex int) error {
		return v.ClientMeasure(c.cfg.GroupIndex, apIndex, mac)
	})
}

// ClientDisconnect disconnects the client mac from an interface.
func (c *Client) ClientDisconnect(ifname string, mac net.HardwareAddr, typ DisconnectType, reason int) error {
	return c.clientCall("client_disconnect", ifname, mac, func(v Vendor, apIndex int) error {
		return v.ClientDisconnect(apIndex, mac, typ, reason)
	})
}

// BTMRequest sends a BSS Transition Management request to the client mac.
func (c *Client) BTMRequest(ifname string, mac net.HardwareAddr, req *BTMRequest) error {
	return c.clientCall("btm_request", ifname, mac, func(v Vendor, apIndex int) error {
		return v.BTMRequest(apIndex, mac, req)
	})
}

// RRMBeaconRequest sends a beacon measurement request to the client mac.
func (c *Client) RRMBeaconRequest(ifname string, mac net.HardwareAddr, req *RRMBeaconRequest) error {
	return c.clientCall("rrm_beacon_request", ifname, mac, func(v Vendor, apIndex int) error {
		return v.RRMBeaconRequest(apIndex, mac, req)
	})
}

// ClientInfo queries the vendor for the connection state and counters of the
// client mac. For a cached client they are merged into the capability cache
// and the updated snapshot is returned; capabilities learned from connect
// events are kept. Other clients are not cached.
func (c *Client) ClientInfo(ifname string, mac net.HardwareAddr) (*ClientSnapshot, error) {
	var snap *ClientSnapshot
	err := c.locked(func() error {
		if _, err := newMACKey(mac); err != nil {
			return err
		}

		apIndex, err := c.apIndex(ifname)
		if err != nil {
			return err
		}

		var stats *ClientStats
		err = c.vc.lookup("client_info", fmt.Sprintf("%q %s", ifname, mac), func(v Vendor) error {
			var err error
			stats, err = v.ClientInfo(apIndex, mac)
			return err
		})
		if err != nil {
			return err
		}
		if stats == nil {
			stats = &ClientStats{}
		}

		// Entries are created by connect events only.
		if _, ok := c.cache.get(mac); !ok {
			s := *stats
			snap = &ClientSnapshot{HardwareAddr: cloneMAC(mac), Stats: &s}
			return nil
		}

		if err := c.cache.upsert(mac, clientUpdate{stats: stats}); err != nil {
			return err
		}

		snap, _ = c.cache.get(mac)
		return nil
	})

	return snap, err
}

// ClientSnapshot returns the cached state of the client mac. It never calls
// into the vendor.
func (c *Client) ClientSnapshot(mac net.HardwareAddr) (*ClientSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.get(mac)
}

// SetNeighbor adds or replaces a neighbor report entry of an interface and
// pushes the interface's full neighbor list to the vendor. If the push fails,
// the entry is not changed.
func (c *Client) SetNeighbor(ifname string, n Neighbor) error {
	return c.locked(func() error {
		return c.nbrs.set(ifname, n)
	})
}

// RemoveNeighbor removes a neighbor report entry of an interface and pushes
// the interface's full neighbor list to the vendor. If the push fails, the
// entry is kept. Removing an unknown entry succeeds.
func (c *Client) RemoveNeighbor(ifname string, bssid net.HardwareAddr) error {
	return c.locked(func() error {
		return c.nbrs.remove(ifname, bssid)
	})
}

// Neighbors returns the neighbor report entries of an interface in BSSID
// order.
func (c *Client) Neighbors(ifname string) []Neighbor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nbrs.list(ifname)
}
