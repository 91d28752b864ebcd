package docio

import (
	"encoding/xml"
	"io"

	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/patch"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

// PatchDoc is the XML shape of the patch input document of §6. OptimizeDoc
// shares the identical shape under a different root element name.
type PatchDoc struct {
	XMLName            xml.Name          `xml:"Patch"`
	GeneralInformation patchGeneralXML   `xml:"GeneralInformation"`
	FixedTraffic       fixedTrafficXML   `xml:"FixedTraffic"`
	Traffic            newTrafficXML     `xml:"Traffic"`
}

// OptimizeDoc mirrors PatchDoc with the Optimize root element.
type OptimizeDoc struct {
	XMLName            xml.Name        `xml:"Optimize"`
	GeneralInformation patchGeneralXML `xml:"GeneralInformation"`
	FixedTraffic       fixedTrafficXML `xml:"FixedTraffic"`
	Traffic            newTrafficXML   `xml:"Traffic"`
}

type patchGeneralXML struct {
	LinkID         int   `xml:"LinkID"`
	ProtocolPeriod int64 `xml:"ProtocolPeriod"`
	ProtocolTime   int64 `xml:"ProtocolTime"`
	HyperPeriod    int64 `xml:"HyperPeriod"`
}

type fixedTrafficXML struct {
	Frame []fixedFrameXML `xml:"Frame"`
}

type fixedFrameXML struct {
	FrameID int             `xml:"FrameID"`
	Offset  fixedOffsetXML  `xml:"Offset"`
}

type fixedOffsetXML struct {
	Instance []fixedInstanceXML `xml:"Instance"`
}

type fixedInstanceXML struct {
	TransmissionTime int64 `xml:"TransmissionTime"`
	EndingTime       int64 `xml:"EndingTime"`
}

type newTrafficXML struct {
	Frame []newFrameXML `xml:"Frame"`
}

type newFrameXML struct {
	FrameID int            `xml:"FrameID"`
	Offset  newOffsetXML   `xml:"Offset"`
}

type newOffsetXML struct {
	TimeSlots int64              `xml:"TimeSlots"`
	Instance  []newInstanceXML   `xml:"Instance"`
}

type newInstanceXML struct {
	MinTransmission int64 `xml:"MinTransmission"`
	MaxTransmission int64 `xml:"MaxTransmission"`
}

// PatchInput is the decoded, backend-agnostic form of a patch or optimize
// document: general parameters, fixed transmissions, and new frames
// awaiting placement.
type PatchInput struct {
	LinkID      int
	SHP         *netmodel.SHP
	Hyperperiod int64
	FixedList   []patch.FixedTransmission
	NewFrames   []patch.NewFrame
}

// ReadPatch decodes a patch document.
func ReadPatch(r io.Reader) (*PatchInput, error) {
	var doc PatchDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, schederr.Wrap(schederr.InvalidInput, "docio.ReadPatch", "decoding patch document", err)
	}
	return toPatchInput(doc.GeneralInformation, doc.FixedTraffic, doc.Traffic)
}

// ReadOptimize decodes an optimize document.
func ReadOptimize(r io.Reader) (*PatchInput, error) {
	var doc OptimizeDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, schederr.Wrap(schederr.InvalidInput, "docio.ReadOptimize", "decoding optimize document", err)
	}
	return toPatchInput(doc.GeneralInformation, doc.FixedTraffic, doc.Traffic)
}

func toPatchInput(gen patchGeneralXML, fixedX fixedTrafficXML, trafficX newTrafficXML) (*PatchInput, error) {
	in := &PatchInput{
		LinkID:      gen.LinkID,
		Hyperperiod: gen.HyperPeriod,
		SHP:         &netmodel.SHP{Period: gen.ProtocolPeriod, Duration: gen.ProtocolTime},
	}

	for _, fx := range fixedX.Frame {
		for _, inst := range fx.Offset.Instance {
			dur := inst.EndingTime - inst.TransmissionTime + 1
			in.FixedList = append(in.FixedList, patch.FixedTransmission{Start: inst.TransmissionTime, Dur: dur})
		}
	}

	for _, fx := range trafficX.Frame {
		nf := patch.NewFrame{FrameID: fx.FrameID, Dur: fx.Offset.TimeSlots}
		for _, inst := range fx.Offset.Instance {
			nf.MinPerInst = append(nf.MinPerInst, inst.MinTransmission)
			nf.MaxPerInst = append(nf.MaxPerInst, inst.MaxTransmission)
		}
		in.NewFrames = append(in.NewFrames, nf)
	}

	return in, nil
}
