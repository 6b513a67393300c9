package statement

import (
	"time"
)

// ProbeReport is the outcome of parsing a document with one layout.
type ProbeReport struct {
	Layout       string
	OK           bool
	Transactions int
	Skipped      int
	Err          string
}

// Probe parses text once per registered layout and once with detection, and
// reports how each fared. It is a format-discovery aid; Parse is the
// production path.
func Probe(text string, reg *Registry, now func() time.Time) []ProbeReport {
	var reports []ProbeReport
	for _, l := range reg.Layouts() {
		reports = append(reports, probeOne(l.Name, New(Config{Layout: &l, Now: now}), text))
	}
	return append(reports, probeOne(AutoLayout, New(Config{Now: now}), text))
}

func probeOne(name string, p *Parser, text string) ProbeReport {
	rep := ProbeReport{Layout: name}
	res, err := p.Parse(text)
	if err != nil {
		rep.Err = err.Error()
		return rep
	}
	rep.OK = true
	rep.Transactions = len(res.Transactions)
	rep.Skipped = len(res.Skipped)
	return rep
}
