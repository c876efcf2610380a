// Package metrics exposes an endpoint's transfer counters in Prometheus
// format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rudpnet/rudp"
)

// Collector reads a live rudp.Counters on every scrape. The counters are
// atomics, so no coordination with the endpoint is needed.
type Collector struct {
	counters *rudp.Counters

	bytesSent     *prometheus.Desc
	bytesReceived *prometheus.Desc
	messagesSent  *prometheus.Desc
	messagesRecv  *prometheus.Desc
	wireBytesSent *prometheus.Desc
	wireBytesRecv *prometheus.Desc
	packetsSent   *prometheus.Desc
	packetsRecv   *prometheus.Desc
	retransmits   *prometheus.Desc
	dupSegments   *prometheus.Desc
	dupAcks       *prometheus.Desc
	strayPackets  *prometheus.Desc
}

// NewCollector creates a collector over the given counters.
func NewCollector(c *rudp.Counters) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("rudp_"+name, help, nil, nil)
	}

	return &Collector{
		counters:      c,
		bytesSent:     desc("payload_bytes_sent_total", "Application payload bytes sent."),
		bytesReceived: desc("payload_bytes_received_total", "Application payload bytes received."),
		messagesSent:  desc("messages_sent_total", "Whole messages sent."),
		messagesRecv:  desc("messages_received_total", "Whole messages received."),
		wireBytesSent: desc("wire_bytes_sent_total", "Datagram bytes sent, retransmissions included."),
		wireBytesRecv: desc("wire_bytes_received_total", "Datagram bytes received, drops included."),
		packetsSent:   desc("packets_sent_total", "Datagrams sent."),
		packetsRecv:   desc("packets_received_total", "Datagrams received."),
		retransmits:   desc("retransmissions_total", "Packets sent more than once."),
		dupSegments:   desc("duplicate_segments_total", "Data segments received twice."),
		dupAcks:       desc("duplicate_acks_total", "Acknowledgements received twice."),
		strayPackets:  desc("stray_packets_total", "Datagrams rejected by the source check."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	counter(c.bytesSent, c.counters.BytesSent.Load())
	counter(c.bytesReceived, c.counters.BytesReceived.Load())
	counter(c.messagesSent, c.counters.MessagesSent.Load())
	counter(c.messagesRecv, c.counters.MessagesReceived.Load())
	counter(c.wireBytesSent, c.counters.WireBytesSent.Load())
	counter(c.wireBytesRecv, c.counters.WireBytesReceived.Load())
	counter(c.packetsSent, c.counters.PacketsSent.Load())
	counter(c.packetsRecv, c.counters.PacketsReceived.Load())
	counter(c.retransmits, c.counters.Retransmissions.Load())
	counter(c.dupSegments, c.counters.DuplicateSegments.Load())
	counter(c.dupAcks, c.counters.DuplicateAcks.Load())
	counter(c.strayPackets, c.counters.StrayPackets.Load())
}

// NewRegistry builds a private registry with the endpoint collector plus
// the standard process and Go runtime collectors.
func NewRegistry(c *rudp.Counters) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(c),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
