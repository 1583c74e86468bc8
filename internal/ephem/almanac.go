package ephem

import (
	"context"
	"time"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
)

// keplerRates holds J2000 mean elements and their rates per Julian century.
// Values from the JPL "Approximate Positions of the Planets" table,
// valid 1800-2050.
type keplerRates struct {
	el, rate astro.OrbitalElements
}

func (k keplerRates) at(T float64) astro.OrbitalElements {
	return astro.OrbitalElements{
		A:          k.el.A + k.rate.A*T,
		E:          k.el.E + k.rate.E*T,
		I:          k.el.I + k.rate.I*T,
		L:          k.el.L + k.rate.L*T,
		Perihelion: k.el.Perihelion + k.rate.Perihelion*T,
		Node:       k.el.Node + k.rate.Node*T,
	}
}

var earthMoonBary = keplerRates{
	el:   astro.OrbitalElements{A: 1.00000261, E: 0.01671123, I: -0.00001531, L: 100.46457166, Perihelion: 102.93768193, Node: 0},
	rate: astro.OrbitalElements{A: 0.00000562, E: -0.00004392, I: -0.01294668, L: 35999.37244981, Perihelion: 0.32327364, Node: 0},
}

var planetElements = map[chart.Body]keplerRates{
	chart.Mercury: {
		el:   astro.OrbitalElements{A: 0.38709927, E: 0.20563593, I: 7.00497902, L: 252.25032350, Perihelion: 77.45779628, Node: 48.33076593},
		rate: astro.OrbitalElements{A: 0.00000037, E: 0.00001906, I: -0.00594749, L: 149472.67411175, Perihelion: 0.16047689, Node: -0.12534081},
	},
	chart.Venus: {
		el:   astro.OrbitalElements{A: 0.72333566, E: 0.00677672, I: 3.39467605, L: 181.97909950, Perihelion: 131.60246718, Node: 76.67984255},
		rate: astro.OrbitalElements{A: 0.00000390, E: -0.00004107, I: -0.00078890, L: 58517.81538729, Perihelion: 0.00268329, Node: -0.27769418},
	},
	chart.Mars: {
		el:   astro.OrbitalElements{A: 1.52371034, E: 0.09339410, I: 1.84969142, L: -4.55343205, Perihelion: -23.94362959, Node: 49.55953891},
		rate: astro.OrbitalElements{A: 0.00001847, E: 0.00007882, I: -0.00813131, L: 19140.30268499, Perihelion: 0.44441088, Node: -0.29257343},
	},
	chart.Jupiter: {
		el:   astro.OrbitalElements{A: 5.20288700, E: 0.04838624, I: 1.30439695, L: 34.39644051, Perihelion: 14.72847983, Node: 100.47390909},
		rate: astro.OrbitalElements{A: -0.00011607, E: -0.00013253, I: -0.00183714, L: 3034.74612775, Perihelion: 0.21252668, Node: 0.20469106},
	},
	chart.Saturn: {
		el:   astro.OrbitalElements{A: 9.53667594, E: 0.05386179, I: 2.48599187, L: 49.95424423, Perihelion: 92.59887831, Node: 113.66242448},
		rate: astro.OrbitalElements{A: -0.00125060, E: -0.00050991, I: 0.00193609, L: 1222.49362201, Perihelion: -0.41897216, Node: -0.28867794},
	},
	chart.Uranus: {
		el:   astro.OrbitalElements{A: 19.18916464, E: 0.04725744, I: 0.77263783, L: 313.23810451, Perihelion: 170.95427630, Node: 74.01692503},
		rate: astro.OrbitalElements{A: -0.00196176, E: -0.00004397, I: -0.00242939, L: 428.48202785, Perihelion: 0.40805281, Node: 0.04240589},
	},
	chart.Neptune: {
		el:   astro.OrbitalElements{A: 30.06992276, E: 0.00859048, I: 1.77004347, L: -55.12002969, Perihelion: 44.96476227, Node: 131.78422574},
		rate: astro.OrbitalElements{A: 0.00026291, E: 0.00005105, I: 0.00035372, L: 218.45945325, Perihelion: -0.32241464, Node: -0.00508664},
	},
	chart.Pluto: {
		el:   astro.OrbitalElements{A: 39.48211675, E: 0.24882730, I: 17.14001206, L: 238.92903833, Perihelion: 224.06891629, Node: 110.30393684},
		rate: astro.OrbitalElements{A: -0.00031596, E: 0.00005170, I: 0.00004818, L: 145.20780515, Perihelion: -0.04062942, Node: -0.01183482},
	},
}

// AlmanacProvider computes positions offline from mean orbital elements and
// short series. Good to roughly a degree for the planets, which is enough to
// land bodies in the right sign most of the time.
type AlmanacProvider struct{}

// NewAlmanacProvider creates the offline provider.
func NewAlmanacProvider() *AlmanacProvider {
	return &AlmanacProvider{}
}

// Name implements Provider.
func (p *AlmanacProvider) Name() string {
	return "Almanac"
}

// Longitudes implements Provider.
func (p *AlmanacProvider) Longitudes(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !obs.Valid() {
		return nil, ErrInvalidObserver
	}

	lons := make([]chart.CelestialLongitude, 0, len(Targets)+2)
	for _, target := range Targets {
		lons = append(lons, chart.CelestialLongitude{
			Body:      target.Body,
			Longitude: almanacLongitude(target.Body, t),
		})
	}
	return append(lons, localAngles(t, obs)...), nil
}

// almanacLongitude returns the geocentric ecliptic longitude of date.
func almanacLongitude(b chart.Body, t time.Time) float64 {
	switch b {
	case chart.Sun:
		return astro.SunEclipticLongitude(t)
	case chart.Moon:
		return astro.MoonEclipticLongitude(t)
	}

	k, ok := planetElements[b]
	if !ok {
		return 0
	}
	T := astro.JulianCenturies(t)
	earth := earthMoonBary.at(T).Heliocentric()
	geo := k.at(T).Heliocentric().Sub(earth)
	return astro.NormalizeAngle360(astro.EclipticLongitude(geo) + astro.PrecessionJ2000(T))
}
