package docio

import (
	"encoding/xml"
	"io"

	"github.com/signalsfoundry/shsched/internal/schederr"
	"github.com/signalsfoundry/shsched/internal/session"
)

// ConfigDoc is the XML shape of the scheduler configuration document.
type ConfigDoc struct {
	XMLName   xml.Name     `xml:"Schedule"`
	Algorithm algorithmXML `xml:"Algorithm"`
}

type algorithmXML struct {
	Name            string  `xml:"name,attr"`
	MIPGAP          float64 `xml:"MIPGAP"`
	TimeLimit       int64   `xml:"TimeLimit"`
	FramesIteration int     `xml:"FramesIteration"`
}

// ReadConfig decodes the scheduler configuration document into a
// session.Config. SwitchMinTime is supplied separately since it is a
// network-document field (GeneralInformation.SwitchInformation.MinimumTime),
// not a scheduler-configuration one.
func ReadConfig(r io.Reader, switchMinTime int64) (session.Config, error) {
	var doc ConfigDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return session.Config{}, schederr.Wrap(schederr.InvalidInput, "docio.ReadConfig", "decoding scheduler configuration", err)
	}

	var algo session.Algorithm
	switch doc.Algorithm.Name {
	case "OneShot":
		algo = session.OneShot
	case "Incremental":
		algo = session.Incremental
	default:
		return session.Config{}, schederr.New(schederr.InvalidInput, "docio.ReadConfig", "unknown algorithm name: "+doc.Algorithm.Name)
	}

	return session.Config{
		Algorithm:     algo,
		SwitchMinTime: switchMinTime,
		MIPGap:        doc.Algorithm.MIPGAP,
		TimeLimit:     doc.Algorithm.TimeLimit,
		K:             doc.Algorithm.FramesIteration,
	}, nil
}
