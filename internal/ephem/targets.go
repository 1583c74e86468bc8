package ephem

import (
	"strconv"

	"github.com/litescript/ls-natal/internal/chart"
)

// TargetID is a NAIF SPICE ID for a solar system body.
type TargetID int

// TargetInfo maps a chart body to its Horizons target.
type TargetInfo struct {
	Body     chart.Body
	NAIFID   TargetID
	HorizCmd string // Horizons command string (if different from NAIF ID)
}

// Command returns the Horizons COMMAND value for the target.
func (t TargetInfo) Command() string {
	if t.HorizCmd != "" {
		return t.HorizCmd
	}
	return strconv.Itoa(int(t.NAIFID))
}

// NAIF SPICE IDs for the chart bodies.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
const (
	NAIFSun     TargetID = 10
	NAIFMoon    TargetID = 301
	NAIFMercury TargetID = 199
	NAIFVenus   TargetID = 299
	NAIFMars    TargetID = 499
	NAIFJupiter TargetID = 599
	NAIFSaturn  TargetID = 699
	NAIFUranus  TargetID = 799
	NAIFNeptune TargetID = 899
	NAIFPluto   TargetID = 999
)

// Targets lists the bodies fetched from Horizons, in chart order.
// The Ascendant and lunar node are computed locally.
var Targets = []TargetInfo{
	{Body: chart.Sun, NAIFID: NAIFSun},
	{Body: chart.Moon, NAIFID: NAIFMoon},
	{Body: chart.Mercury, NAIFID: NAIFMercury},
	{Body: chart.Venus, NAIFID: NAIFVenus},
	{Body: chart.Mars, NAIFID: NAIFMars},
	{Body: chart.Jupiter, NAIFID: NAIFJupiter},
	{Body: chart.Saturn, NAIFID: NAIFSaturn},
	{Body: chart.Uranus, NAIFID: NAIFUranus},
	{Body: chart.Neptune, NAIFID: NAIFNeptune},
	{Body: chart.Pluto, NAIFID: NAIFPluto},
}

// TargetsByBody provides O(1) lookup by chart body.
var TargetsByBody = func() map[chart.Body]TargetInfo {
	m := make(map[chart.Body]TargetInfo, len(Targets))
	for _, t := range Targets {
		m[t.Body] = t
	}
	return m
}()

// GetTarget returns the Horizons target for a body.
func GetTarget(b chart.Body) (TargetInfo, bool) {
	t, ok := TargetsByBody[b]
	return t, ok
}
