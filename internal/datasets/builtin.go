package datasets

import (
	"context"
	"fmt"

	"trendcharts/internal/projection"
	"trendcharts/internal/series"
)

func projected(name string, target int, base int, value float64, segments ...projection.Segment) (series.Series, error) {
	p, err := projection.NewParams(base, value, segments...)
	if err != nil {
		return series.Series{}, fmt.Errorf("%s: %w", name, err)
	}
	return projection.Project(name, p, target)
}

func flat(rate float64) projection.Segment {
	return projection.Segment{UpperBound: 0, Rate: rate}
}

func bricsVsG7() Definition {
	return Definition{
		Name:  "brics-vs-g7",
		Title: "G7 vs BRICS GDP per capita (PPP) 2025-2050",
		Unit:  "USD",
		Kind:  KindProjection,
		build: func(context.Context, Deps) (Dataset, error) {
			// 2025 GDP per capita PPP: US, Japan, Germany, UK, France, Italy, Canada.
			g7 := average(89105, 54820, 73550, 63760, 66060, 63130, 63170)
			// Brazil, Russia, India, China, South Africa.
			brics := average(23310, 49049, 12100, 29190, 16050)

			g7s, err := projected("G7 (1.5%)", 2050, 2025, g7, flat(0.015))
			if err != nil {
				return Dataset{}, err
			}
			bricsS, err := projected("BRICS (4.5%)", 2050, 2025, brics, flat(0.045))
			if err != nil {
				return Dataset{}, err
			}
			gap, err := series.Ratio("G7/BRICS", g7s, bricsS)
			if err != nil {
				return Dataset{}, err
			}
			ds := Dataset{Series: []series.Series{g7s, bricsS}, Derived: []series.Series{gap}}
			if last, ok := gap.Last(); ok {
				ds.Notes = append(ds.Notes, fmt.Sprintf("G7 average is %.1fx BRICS in %d", last.Value, last.Period))
			}
			return ds, nil
		},
	}
}

func gdppcOutlook() Definition {
	return Definition{
		Name:  "gdppc-ppp-outlook",
		Title: "GDP per capita (PPP) outlook to 2100",
		Unit:  "USD",
		Kind:  KindProjection,
		build: func(context.Context, Deps) (Dataset, error) {
			india, err := projected("India", 2100, 2025, 12100,
				projection.Segment{UpperBound: 2040, Rate: 0.065},
				projection.Segment{UpperBound: 2060, Rate: 0.045},
				projection.Segment{UpperBound: 2080, Rate: 0.03},
				projection.Segment{UpperBound: 2100, Rate: 0.02},
			)
			if err != nil {
				return Dataset{}, err
			}
			china, err := projected("China", 2100, 2025, 29191,
				projection.Segment{UpperBound: 2040, Rate: 0.045},
				projection.Segment{UpperBound: 2060, Rate: 0.03},
				projection.Segment{UpperBound: 2100, Rate: 0.02},
			)
			if err != nil {
				return Dataset{}, err
			}
			germany, err := projected("Germany", 2100, 2025, 73553, flat(0.015))
			if err != nil {
				return Dataset{}, err
			}
			uk, err := projected("UK", 2100, 2025, 63760, flat(0.015))
			if err != nil {
				return Dataset{}, err
			}
			ds := Dataset{Series: []series.Series{india, china, germany, uk}}
			for _, pair := range [][2]series.Series{{india, china}, {china, uk}, {china, germany}, {india, uk}} {
				if year, ok := Crossover(pair[0], pair[1]); ok {
					ds.Notes = append(ds.Notes, fmt.Sprintf("%s passes %s in %d", pair[0].Name, pair[1].Name, year))
				}
			}
			return ds, nil
		},
	}
}

func usaGDPPerCapita() Definition {
	return Definition{
		Name:  "usa-gdp-per-capita",
		Title: "USA GDP per capita at 2% growth",
		Unit:  "USD",
		Kind:  KindProjection,
		build: func(context.Context, Deps) (Dataset, error) {
			usa, err := projected("USA", 2047, 2024, 80300, flat(0.02))
			if err != nil {
				return Dataset{}, err
			}
			ds := Dataset{Series: []series.Series{usa}}
			if g, err := series.GrowthFactor(usa); err == nil {
				ds.Notes = append(ds.Notes, fmt.Sprintf("%.2fx by 2047", g))
			}
			return ds, nil
		},
	}
}

func aiEnergy() Definition {
	return Definition{
		Name:     "ai-energy",
		Title:    "AI electricity use vs total generation",
		Unit:     "TWh",
		Kind:     KindFit,
		DualAxis: true,
		build: func(context.Context, Deps) (Dataset, error) {
			ai, err := series.FromValues("AI", 2020, 11.0, 15.9, 23.0, 33.3, 48.2)
			if err != nil {
				return Dataset{}, err
			}
			total, err := series.FromValues("Total", 2020, 26931, 28454, 28830, 29665, 30700)
			if err != nil {
				return Dataset{}, err
			}
			ds := Dataset{}
			var full []series.Series
			for _, hist := range []series.Series{ai, total} {
				fit, err := projection.FitExponential(hist, projection.WithMethod(projection.Nonlinear))
				if err != nil {
					return Dataset{}, fmt.Errorf("%s: %w", hist.Name, err)
				}
				last, _ := hist.Last()
				ext, err := fit.Extrapolate(hist.Name, last.Period+1, 2050)
				if err != nil {
					return Dataset{}, err
				}
				s, err := hist.Append(ext.Points...)
				if err != nil {
					return Dataset{}, err
				}
				full = append(full, s)
				ds.Notes = append(ds.Notes, fmt.Sprintf("%s CAGR from fit: %.2f%% (R² %.3f)", hist.Name, fit.CAGR()*100, fit.RSquared))
			}
			share, err := series.Share("AI share", full[0], full[1])
			if err != nil {
				return Dataset{}, err
			}
			ds.Series = full
			ds.Derived = []series.Series{share}
			if year, ok := Crossover(full[0], full[1]); ok {
				ds.Notes = append(ds.Notes, fmt.Sprintf("trend lines cross in %d", year))
			}
			return ds, nil
		},
	}
}

func indiaVsJapan() Definition {
	return Definition{
		Name:   "india-vs-japan-gdp",
		Title:  "GDP: India vs Japan",
		Unit:   "USD",
		Kind:   KindFetched,
		Remote: true,
		build: func(ctx context.Context, deps Deps) (Dataset, error) {
			const indicator = "NY.GDP.MKTP.CD"
			extra := map[string][]series.Point{
				"IND": {series.At(2024, 3.567552e12), series.At(2025, 4.192345e12), series.At(2026, 4.593552e12)},
				"JPN": {series.At(2024, 4.104495e12), series.At(2025, 4.191365e12), series.At(2026, 4.373495e12)},
			}
			var out []series.Series
			for _, code := range []string{"IND", "JPN"} {
				s, err := deps.Fetcher.FetchIndicator(ctx, code, indicator, 1992, 2023)
				if err != nil {
					return Dataset{}, err
				}
				s = s.Slice(1992, 2023)
				if s, err = s.Append(extra[code]...); err != nil {
					return Dataset{}, fmt.Errorf("%s: %w", code, err)
				}
				out = append(out, s)
			}
			india, japan := out[0], out[1]
			multiple, err := series.Ratio("Japan/India", japan, india)
			if err != nil {
				return Dataset{}, err
			}
			multiple.Unit = "x"
			ds := Dataset{Series: out, Derived: []series.Series{multiple}}
			if year, ok := Crossover(india, japan); ok {
				ds.Notes = append(ds.Notes, fmt.Sprintf("%s overtakes %s in %d", india.Name, japan.Name, year))
			}
			if first, ok := multiple.First(); ok {
				ds.Notes = append(ds.Notes, fmt.Sprintf("Japan was %.1fx India in %d", first.Value, first.Period))
			}
			return ds, nil
		},
	}
}

func southAsia() Definition {
	return Definition{
		Name:   "south-asia-gdppc",
		Title:  "South Asia GDP per capita",
		Unit:   "USD",
		Kind:   KindFetched,
		Remote: true,
		build: func(ctx context.Context, deps Deps) (Dataset, error) {
			ds := Dataset{}
			for _, code := range []string{"IN", "PK", "BD", "LK", "BT"} {
				s, err := deps.Fetcher.FetchIndicator(ctx, code, "NY.GDP.PCAP.CD", 2014, 2023)
				if err != nil {
					return Dataset{}, err
				}
				ds.Series = append(ds.Series, series.Interpolate(s))
				if rate, err := projection.HistoricalRate(s); err == nil {
					ds.Notes = append(ds.Notes, fmt.Sprintf("%s CAGR %.1f%%", s.Name, rate*100))
				}
			}
			return ds, nil
		},
	}
}
