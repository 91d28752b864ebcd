package docio

import (
	"encoding/xml"
	"io"
	"sort"

	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
	"github.com/signalsfoundry/shsched/internal/timeslot"
)

type scheduleOutXML struct {
	XMLName            xml.Name           `xml:"Schedule"`
	GeneralInformation scheduleGeneralOut `xml:"GeneralInformation"`
	SelfHealingProtocol *shpOutXML        `xml:"SelfHealingProtocol,omitempty"`
	TrafficInformation  trafficOutXML     `xml:"TrafficInformation"`
}

type scheduleGeneralOut struct {
	TimeslotSize  int64 `xml:"TimeslotSize"`
	HyperPeriod   int64 `xml:"HyperPeriod"`
	NumberLinks   int   `xml:"NumberLinks"`
	NumberNodes   int   `xml:"NumberNodes"`
	NumberFrames  int   `xml:"NumberFrames"`
}

type shpOutXML struct {
	Period int64 `xml:"Period"`
	Time   int64 `xml:"Time"`
}

type trafficOutXML struct {
	Frame []frameOutXML `xml:"Frame"`
}

type frameOutXML struct {
	FrameID int          `xml:"FrameID,attr"`
	Path    []pathOutXML `xml:"Path"`
}

type pathOutXML struct {
	ReceiverID int          `xml:"ReceiverID,attr"`
	Link       []linkOutXML `xml:"Link"`
}

type linkOutXML struct {
	LinkID   int              `xml:"LinkID,attr"`
	Instance []instanceOutXML `xml:"Instance"`
}

type instanceOutXML struct {
	NumInstance      int              `xml:"NumInstance,attr"`
	TransmissionTime int64            `xml:"TransmissionTime"`
	EndingTime       int64            `xml:"EndingTime"`
	Replica          []replicaOutXML  `xml:"Replica,omitempty"`
}

type replicaOutXML struct {
	NumReplica       int   `xml:"NumReplica,attr"`
	TransmissionTime int64 `xml:"TransmissionTime"`
	EndingTime       int64 `xml:"EndingTime"`
}

// WriteSchedule serializes the solved traffic set per §6's Schedule output
// document shape.
func WriteSchedule(w io.Writer, topo *netmodel.Topology, traffic *netmodel.Traffic, shp *netmodel.SHP, model *timeslot.Model) error {
	out := scheduleOutXML{
		GeneralInformation: scheduleGeneralOut{
			TimeslotSize: model.Timeslot,
			HyperPeriod:  model.Hyperperiod,
			NumberLinks:  len(topo.Links),
			NumberNodes:  len(topo.Nodes),
			NumberFrames: len(traffic.Frames),
		},
	}
	if shp.Active() {
		out.SelfHealingProtocol = &shpOutXML{Period: shp.Period, Time: shp.Duration}
	}

	for _, f := range traffic.Frames {
		fo := frameOutXML{FrameID: f.ID}
		for _, rx := range f.Receivers {
			po := pathOutXML{ReceiverID: rx.ReceiverID}
			for _, off := range rx.PathRefs {
				lo := linkOutXML{LinkID: off.LinkID}
				for i := 0; i < off.NumInstances; i++ {
					inst := instanceOutXML{
						NumInstance:      i,
						TransmissionTime: off.Value[i][0],
						EndingTime:       off.Value[i][0] + off.Time - 1,
					}
					for r := 1; r < off.NumReplicas; r++ {
						inst.Replica = append(inst.Replica, replicaOutXML{
							NumReplica:       r,
							TransmissionTime: off.Value[i][r],
							EndingTime:       off.Value[i][r] + off.Time - 1,
						})
					}
					lo.Instance = append(lo.Instance, inst)
				}
				po.Link = append(po.Link, lo)
			}
			fo.Path = append(fo.Path, po)
		}
		out.TrafficInformation.Frame = append(out.TrafficInformation.Frame, fo)
	}

	return encode(w, out)
}

type patchedScheduleOutXML struct {
	XMLName            xml.Name               `xml:"PatchedSchedule"`
	GeneralInformation  patchedGeneralOut      `xml:"GeneralInformation"`
	TrafficInformation  patchedTrafficOutXML   `xml:"TrafficInformation"`
}

type patchedGeneralOut struct {
	LinkID int `xml:"LinkID"`
}

type patchedTrafficOutXML struct {
	Frame []patchedFrameOutXML `xml:"Frame"`
}

type patchedFrameOutXML struct {
	FrameID  int                    `xml:"FrameID,attr"`
	Instance []instanceOutXML       `xml:"Instance"`
}

// WritePatchedSchedule serializes a patch (or optimize) engine's result per
// §6's patched/optimized schedule document shape. durs supplies each new
// frame's own transmission duration (frame id -> timeslots), since distinct
// new frames on the same link need not share a duration.
func WritePatchedSchedule(w io.Writer, linkID int, durs map[int]int64, starts map[int][]int64) error {
	out := patchedScheduleOutXML{GeneralInformation: patchedGeneralOut{LinkID: linkID}}
	ids := make([]int, 0, len(starts))
	for frameID := range starts {
		ids = append(ids, frameID)
	}
	sort.Ints(ids)
	for _, frameID := range ids {
		vals := starts[frameID]
		dur := durs[frameID]
		fo := patchedFrameOutXML{FrameID: frameID}
		for i, v := range vals {
			fo.Instance = append(fo.Instance, instanceOutXML{
				NumInstance:      i,
				TransmissionTime: v,
				EndingTime:       v + dur - 1,
			})
		}
		out.TrafficInformation.Frame = append(out.TrafficInformation.Frame, fo)
	}
	return encode(w, out)
}

type timingOutXML struct {
	XMLName       xml.Name `xml:"Timing"`
	ExecutionTime int64    `xml:"ExecutionTime"`
}

// WriteTiming serializes the execution-time document, always emitted even
// on PatchInfeasible, per §7's "Patch infeasibility still emits the timing
// document for post-mortem."
func WriteTiming(w io.Writer, executionTimeNs int64) error {
	return encode(w, timingOutXML{ExecutionTime: executionTimeNs})
}

func encode(w io.Writer, v any) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return schederr.Wrap(schederr.InvalidInput, "docio.encode", "serializing output document", err)
	}
	return nil
}
