// Package docio ingests the XML network/traffic/config/patch/optimize
// documents of §6 and serializes the schedule/patched-schedule/timing
// documents the CLI entry points emit. encoding/xml is used directly: no
// example repo in this corpus's retrieval pack pulls in a third-party XML
// library, and the document shapes here are simple enough that stdlib's
// struct-tag decoding is the idiomatic choice rather than a gap to fill.
package docio

import (
	"encoding/xml"
	"io"

	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

// NetworkDoc is the XML shape of the network document in §6.
type NetworkDoc struct {
	XMLName           xml.Name          `xml:"Network"`
	GeneralInformation generalInfoXML    `xml:"GeneralInformation"`
	TopologyInformation topologyInfoXML  `xml:"TopologyInformation"`
	TrafficDescription trafficDescXML    `xml:"TrafficDescription"`
}

type generalInfoXML struct {
	SwitchInformation    switchInfoXML     `xml:"SwitchInformation"`
	SelfHealingProtocol  *shpXML           `xml:"SelfHealingProtocol"`
}

type switchInfoXML struct {
	MinimumTime valueWithUnit `xml:"MinimumTime"`
}

type shpXML struct {
	Period valueWithUnit `xml:"Period"`
	Time   valueWithUnit `xml:"Time"`
}

type valueWithUnit struct {
	Unit  string  `xml:"unit,attr"`
	Value float64 `xml:",chardata"`
}

type topologyInfoXML struct {
	Node []nodeXML `xml:"Node"`
}

type nodeXML struct {
	Category   string         `xml:"category,attr"`
	NodeID     int            `xml:"NodeID"`
	Connection []connectionXML `xml:"Connection"`
}

type connectionXML struct {
	NodeID int    `xml:"NodeID"`
	Link   linkXML `xml:"Link"`
}

type linkXML struct {
	LinkID   int           `xml:"LinkID"`
	Category string        `xml:"category,attr"`
	Speed    valueWithUnit `xml:"Speed"`
}

type trafficDescXML struct {
	Frame []frameXML `xml:"Frame"`
}

type frameXML struct {
	FrameID      int            `xml:"FrameID"`
	SenderID     int            `xml:"SenderID"`
	Period       valueWithUnit  `xml:"Period"`
	Deadline     *valueWithUnit `xml:"Deadline"`
	Size         *valueWithUnit `xml:"Size"`
	StartingTime *valueWithUnit `xml:"StartingTime"`
	EndToEnd     *valueWithUnit `xml:"EndToEnd"`
	Paths        pathsXML       `xml:"Paths"`
}

type pathsXML struct {
	Receiver []receiverXML `xml:"Receiver"`
}

type receiverXML struct {
	ReceiverID int    `xml:"ReceiverID"`
	Path       string `xml:"Path"`
}

// ReadNetwork decodes a network document and builds the Topology, Traffic
// and SHP it describes, converting every unit-carrying value to canonical
// ns/Byte/MB-per-s units.
func ReadNetwork(r io.Reader) (*netmodel.Topology, *netmodel.Traffic, *netmodel.SHP, int64, error) {
	var doc NetworkDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, nil, 0, schederr.Wrap(schederr.InvalidInput, "docio.ReadNetwork", "decoding network document", err)
	}

	switchMinTime, err := toNanos(doc.GeneralInformation.SwitchInformation.MinimumTime)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	topo := netmodel.NewTopology()
	for _, n := range doc.TopologyInformation.Node {
		role, err := parseRole(n.Category)
		if err != nil {
			return nil, nil, nil, 0, err
		}
		if err := topo.AddNode(&netmodel.Node{ID: n.NodeID, Role: role}); err != nil {
			return nil, nil, nil, 0, err
		}
	}
	for _, n := range doc.TopologyInformation.Node {
		for _, c := range n.Connection {
			kind, err := parseLinkKind(c.Link.Category)
			if err != nil {
				return nil, nil, nil, 0, err
			}
			if !topo.HasLink(c.Link.LinkID) {
				speed, err := toMBs(c.Link.Speed)
				if err != nil {
					return nil, nil, nil, 0, err
				}
				if err := topo.AddLink(&netmodel.Link{ID: c.Link.LinkID, Kind: kind, SpeedMBs: speed}); err != nil {
					return nil, nil, nil, 0, err
				}
			}
			if err := topo.Connect(n.NodeID, netmodel.Connection{PeerNodeID: c.NodeID, LinkID: c.Link.LinkID}); err != nil {
				return nil, nil, nil, 0, err
			}
		}
	}

	traffic := &netmodel.Traffic{}
	for _, fx := range doc.TrafficDescription.Frame {
		f, err := parseFrame(fx)
		if err != nil {
			return nil, nil, nil, 0, err
		}
		traffic.Add(f)
	}

	shp := &netmodel.SHP{}
	if doc.GeneralInformation.SelfHealingProtocol != nil {
		period, err := toNanos(doc.GeneralInformation.SelfHealingProtocol.Period)
		if err == nil {
			dur, derr := toNanos(doc.GeneralInformation.SelfHealingProtocol.Time)
			if derr == nil && period > 0 {
				shp.Period, shp.Duration = period, dur
			}
		}
	}

	return topo, traffic, shp, switchMinTime, nil
}

func parseFrame(fx frameXML) (*netmodel.Frame, error) {
	period, err := toNanos(fx.Period)
	if err != nil {
		return nil, err
	}
	deadline := period
	if fx.Deadline != nil && fx.Deadline.Value != 0 {
		deadline, err = toNanos(*fx.Deadline)
		if err != nil {
			return nil, err
		}
	}
	sizeBytes := 1000
	if fx.Size != nil && fx.Size.Value != 0 {
		sz, err := toBytes(*fx.Size)
		if err != nil {
			return nil, err
		}
		sizeBytes = sz
	}
	var starting int64
	if fx.StartingTime != nil {
		starting, err = toNanos(*fx.StartingTime)
		if err != nil {
			return nil, err
		}
	}
	var endToEnd int64
	if fx.EndToEnd != nil {
		endToEnd, err = toNanos(*fx.EndToEnd)
		if err != nil {
			return nil, err
		}
	}

	receivers := make([]netmodel.Receiver, 0, len(fx.Paths.Receiver))
	for _, rx := range fx.Paths.Receiver {
		path, err := parsePath(rx.Path)
		if err != nil {
			return nil, err
		}
		receivers = append(receivers, netmodel.Receiver{ReceiverID: rx.ReceiverID, Path: path})
	}

	return &netmodel.Frame{
		ID:            fx.FrameID,
		SizeBytes:     sizeBytes,
		Period:        period,
		Deadline:      deadline,
		Starting:      starting,
		EndToEndDelay: endToEnd,
		SenderID:      fx.SenderID,
		Receivers:     receivers,
	}, nil
}

func parsePath(s string) ([]int, error) {
	var ids []int
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ';' {
			if i > start {
				v, err := parseInt(s[start:i])
				if err != nil {
					return nil, schederr.Wrap(schederr.InvalidInput, "docio.parsePath", "parsing link id in path", err)
				}
				ids = append(ids, v)
			}
			start = i + 1
		}
	}
	return ids, nil
}

func parseRole(category string) (netmodel.NodeRole, error) {
	switch category {
	case "EndSystem":
		return netmodel.EndSystem, nil
	case "Switch":
		return netmodel.Switch, nil
	case "AccessPoint":
		return netmodel.AccessPoint, nil
	default:
		return 0, schederr.New(schederr.InvalidInput, "docio.parseRole", "unknown node category: "+category)
	}
}

func parseLinkKind(category string) (netmodel.LinkKind, error) {
	switch category {
	case "Wired":
		return netmodel.Wired, nil
	case "Wireless":
		return netmodel.Wireless, nil
	default:
		return 0, schederr.New(schederr.InvalidInput, "docio.parseLinkKind", "unknown link category: "+category)
	}
}
