// Command bsald steers WiFi clients between the bands of the local access
// point interfaces using nl80211, logging every steering event and serving
// Prometheus metrics.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mdlayher/bsal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

var (
	groupFlag    = flag.Uint("group", 0, "vendor steering group index")
	radiosFlag   = flag.Int("radios", bsal.DefaultRadios, "number of radios in the steering group")
	queueFlag    = flag.Int("queue", bsal.DefaultQueueSize, "capacity of the vendor event queue")
	slowCallFlag = flag.Duration("slow_call", bsal.DefaultSlowCallThreshold, "vendor calls slower than this are logged")
	ifacesFlag   = flag.String("ifaces", "", "comma-separated list of access point interfaces to steer between")
	listenFlag   = flag.String("listen", ":9410", "address to serve Prometheus metrics on, empty to disable")
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()
	flag.Parse()

	ifaces := splitList(*ifacesFlag)
	if len(ifaces) == 0 {
		klog.Fatal("At least one interface must be set with -ifaces.")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	v, err := bsal.NewNL80211()
	if err != nil {
		klog.Fatalf("Failed to open nl80211: %v", err)
	}

	c, err := bsal.New(v, logEvent, &bsal.Config{
		GroupIndex:        uint32(*groupFlag),
		Radios:            *radiosFlag,
		QueueSize:         *queueFlag,
		SlowCallThreshold: *slowCallFlag,
		Registerer:        reg,
	})
	if err != nil {
		klog.Fatalf("Failed to create steering client: %v", err)
	}

	for _, name := range ifaces {
		if err := c.AddInterface(bsal.IfaceConfig{Name: name}); err != nil {
			klog.Fatalf("Failed to add interface %q: %v", name, err)
		}
		klog.V(1).Infof("Added interface %q", name)
	}
	if !c.Initialized() {
		klog.Warningf("Steering group %d is waiting for %d radios, have %d interfaces",
			*groupFlag, *radiosFlag, len(ifaces))
	}

	installSignalHandler(c, v)

	if *listenFlag == "" {
		select {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	klog.V(1).Infof("Serving metrics on %s", *listenFlag)
	klog.Fatal(http.ListenAndServe(*listenFlag, mux))
}

// logEvent logs a steering event. Probe requests and RSSI reports are
// frequent, so they are only logged at higher verbosity.
func logEvent(ev bsal.Event) {
	switch d := ev.Data.(type) {
	case *bsal.ProbeRequest:
		klog.V(4).Infof("%s (%s): probe request from %s, RSSI %d", ev.Interface, ev.Band, d.HardwareAddr, d.RSSI)
	case *bsal.RSSI:
		klog.V(4).Infof("%s (%s): %s RSSI %d", ev.Interface, ev.Band, d.HardwareAddr, d.RSSI)
	case *bsal.ClientConnect:
		klog.Infof("%s (%s): %s connected (BTM: %t, RRM: %t, streams: %d)",
			ev.Interface, ev.Band, d.HardwareAddr, d.Capabilities.BTM, d.Capabilities.RRM, d.Capabilities.MaxStreams)
	case *bsal.ClientDisconnect:
		klog.Infof("%s (%s): %s disconnected (%s %s, reason %d)",
			ev.Interface, ev.Band, d.HardwareAddr, d.Source, d.Type, d.Reason)
	default:
		klog.V(2).Infof("%s (%s): %s: %+v", ev.Interface, ev.Band, ev.Data.Kind(), ev.Data)
	}
}

func installSignalHandler(c *bsal.Client, v *bsal.NL80211) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigc
		if err := c.Close(); err != nil {
			klog.Errorf("Failed to close steering client: %v", err)
		}
		if err := v.Close(); err != nil {
			klog.Errorf("Failed to close nl80211: %v", err)
		}
		klog.Infof("Exiting given signal: %v", sig)
		klog.Flush()
		os.Exit(0)
	}()
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}

	return out
}
