package datasets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"trendcharts/internal/series"
)

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrNeedsFetcher   = errors.New("dataset needs a data source")
)

// Kind describes how a dataset's series are produced.
type Kind int

const (
	KindProjection Kind = iota
	KindFit
	KindFetched
)

func (k Kind) String() string {
	switch k {
	case KindProjection:
		return "projection"
	case KindFit:
		return "fit"
	case KindFetched:
		return "fetched"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fetcher is the remote source used by fetched datasets.
type Fetcher interface {
	FetchIndicator(ctx context.Context, country, indicator string, from, to int) (series.Series, error)
}

// Deps carries the collaborators a Build may need.
type Deps struct {
	Fetcher Fetcher
}

// Definition describes a dataset. The series are constructed by Build on every call.
type Definition struct {
	Name     string
	Title    string
	Unit     string
	Kind     Kind
	Remote   bool
	DualAxis bool
	build    func(ctx context.Context, deps Deps) (Dataset, error)
}

// Dataset is one built dataset: the series to chart plus derived series and
// short notes describing the outcome.
type Dataset struct {
	Name     string
	Title    string
	Unit     string
	DualAxis bool
	Series   []series.Series
	Derived  []series.Series
	Notes    []string
}

// Build constructs the dataset's series.
func (d Definition) Build(ctx context.Context, deps Deps) (Dataset, error) {
	if d.Remote && deps.Fetcher == nil {
		return Dataset{}, fmt.Errorf("%s: %w", d.Name, ErrNeedsFetcher)
	}
	ds, err := d.build(ctx, deps)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", d.Name, err)
	}
	ds.Name, ds.Title, ds.DualAxis = d.Name, d.Title, d.DualAxis
	if ds.Unit == "" {
		ds.Unit = d.Unit
	}
	for i := range ds.Series {
		if ds.Series[i].Unit == "" {
			ds.Series[i].Unit = ds.Unit
		}
	}
	return ds, nil
}

func registry() []Definition {
	return []Definition{
		bricsVsG7(),
		gdppcOutlook(),
		usaGDPPerCapita(),
		aiEnergy(),
		indiaVsJapan(),
		southAsia(),
	}
}

// All lists every built-in definition sorted by name.
func All() []Definition {
	defs := registry()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names lists the built-in dataset names sorted.
func Names() []string {
	defs := All()
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

// Lookup finds a definition by name, case-insensitively.
func Lookup(name string) (Definition, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, d := range registry() {
		if d.Name == name {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
}

// Crossover returns the first period where a reaches or passes b after being below it.
func Crossover(a, b series.Series) (int, bool) {
	below := false
	for _, p := range a.Points {
		if !p.Valid {
			continue
		}
		bv, ok := b.Value(p.Period)
		if !ok {
			continue
		}
		if p.Value < bv {
			below = true
			continue
		}
		if below {
			return p.Period, true
		}
	}
	return 0, false
}

func average(values ...float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
