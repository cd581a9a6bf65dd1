package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"trendcharts/internal/datasets"
	"trendcharts/internal/datasource"
	"trendcharts/internal/gallery"
	"trendcharts/internal/projection"
	"trendcharts/internal/render"
	"trendcharts/internal/series"
	"trendcharts/internal/storage"
)

const usage = `usage: trendchart <command> [flags]

commands:
  list                                    list built-in datasets
  render  -dataset NAME | -csv FILE -out F  render a PNG (-view line|indexed, -year Y for a snapshot)
  animate -dataset NAME | -csv FILE -out F  render an animated GIF
  project [-out F] BASE FROM RATE[@BOUND]... TO   print a projection table
  fit [-method M] [-out F] P:V P:V ... [TO]      print an exponential fit`

func main() {
	log.SetFlags(0)
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "list":
		return list(out)
	case "render":
		return renderCmd(ctx, args[1:], out)
	case "animate":
		return animateCmd(ctx, args[1:], out)
	case "project":
		return projectCmd(args[1:], out)
	case "fit":
		return fitCmd(args[1:], out)
	case "-h", "--help", "help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func list(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tTITLE")
	for _, d := range datasets.All() {
		kind := d.Kind.String()
		if d.Remote {
			kind += " (remote)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, kind, d.Title)
	}
	return tw.Flush()
}

// source holds the flags shared by render and animate.
type source struct {
	dataset   *string
	csvPath   *string
	periodCol *string
	worldbank *string
	dbPath    *string
	width     *int
	height    *int
	outPath   *string
}

func sourceFlags(fs *flag.FlagSet) *source {
	return &source{
		dataset:   fs.String("dataset", "", "built-in dataset name"),
		csvPath:   fs.String("csv", "", "wide CSV file, one column per series"),
		periodCol: fs.String("period", "Year", "CSV period column"),
		worldbank: fs.String("worldbank", datasource.DefaultWorldBankURL, "World Bank API base URL"),
		dbPath:    fs.String("db", "", "optional sqlite file caching fetched series"),
		width:     fs.Int("width", 900, "chart width"),
		height:    fs.Int("height", 600, "chart height"),
		outPath:   fs.String("out", "", "output file (required)"),
	}
}

// load returns the series to draw and the chart options for them.
func (s *source) load(ctx context.Context) ([]series.Series, render.LineOptions, error) {
	opts := render.LineOptions{Width: *s.width, Height: *s.height}
	if *s.outPath == "" {
		return nil, opts, errors.New("-out is required")
	}
	switch {
	case *s.csvPath != "":
		list, err := datasource.LoadCSVFile(*s.csvPath, *s.periodCol)
		if err != nil {
			return nil, opts, err
		}
		opts.Title = strings.TrimSuffix(filepath.Base(*s.csvPath), ".csv")
		return list, opts, nil
	case *s.dataset != "":
		def, err := datasets.Lookup(*s.dataset)
		if err != nil {
			return nil, opts, err
		}
		var deps datasets.Deps
		if def.Remote {
			var wbOpts []datasource.Option
			if *s.dbPath != "" {
				db, err := storage.OpenSQLite("file:" + *s.dbPath)
				if err != nil {
					return nil, opts, err
				}
				defer db.Close()
				if err := storage.InitSchema(ctx, db); err != nil {
					return nil, opts, err
				}
				wbOpts = append(wbOpts, datasource.WithCache(storage.NewStore(db), 24*time.Hour))
			}
			deps.Fetcher = datasource.NewWorldBank(*s.worldbank, wbOpts...)
		}
		ds, err := def.Build(ctx, deps)
		if err != nil {
			return nil, opts, err
		}
		opts.Title, opts.DualAxis = ds.Title, ds.DualAxis
		return ds.Series, opts, nil
	default:
		return nil, opts, errors.New("one of -dataset or -csv is required")
	}
}

func renderCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	src := sourceFlags(fs)
	view := fs.String("view", "line", "line or indexed")
	year := fs.Int("year", 0, "render a bar snapshot of this period instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, opts, err := src.load(ctx)
	if err != nil {
		return err
	}
	var img []byte
	switch {
	case *year != 0:
		snap := opts
		snap.Title = fmt.Sprintf("%s, %d", opts.Title, *year)
		img, err = render.Snapshot(snap, *year, list...)
	case *view == "indexed":
		img, err = render.Indexed(opts, 100, list...)
	case *view == "line":
		img, err = render.Line(opts, list...)
	default:
		return fmt.Errorf("unknown view %q", *view)
	}
	if err != nil {
		return err
	}
	return writeFile(out, *src.outPath, img)
}

func animateCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("animate", flag.ContinueOnError)
	src := sourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, opts, err := src.load(ctx)
	if err != nil {
		return err
	}
	img, err := gallery.Animate(ctx, opts, list...)
	if err != nil {
		return err
	}
	return writeFile(out, *src.outPath, img)
}

func writeFile(out io.Writer, path string, img []byte) error {
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(img))))
	return nil
}

// positional parses leading flags and returns the remaining arguments.
func positional(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

func projectCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("project", flag.ContinueOnError)
	outPath := fs.String("out", "", "optional chart file")
	rest, err := positional(fs, args)
	if err != nil {
		return err
	}
	p, to, err := projection.ParseProject(strings.Join(rest, " "))
	if err != nil {
		return err
	}
	s, err := projection.Project("Projection", p, to)
	if err != nil {
		return err
	}
	if err := printTable(out, s); err != nil {
		return err
	}
	if *outPath == "" {
		return nil
	}
	img, err := render.Line(render.LineOptions{}, s)
	if err != nil {
		return err
	}
	return writeFile(out, *outPath, img)
}

func fitCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	outPath := fs.String("out", "", "optional chart file")
	method := fs.String("method", "loglinear", "loglinear or nonlinear")
	rest, err := positional(fs, args)
	if err != nil {
		return err
	}
	hist, to, err := projection.ParseFit(strings.Join(rest, " "))
	if err != nil {
		return err
	}
	var m projection.FitMethod
	switch *method {
	case "loglinear":
		m = projection.LogLinear
	case "nonlinear":
		m = projection.Nonlinear
	default:
		return fmt.Errorf("unknown method %q", *method)
	}
	fit, err := projection.FitExponential(hist, projection.WithMethod(m))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "method=%s a=%s b=%s cagr=%s%% r2=%s origin=%d\n", fit.Method,
		decimal.NewFromFloat(fit.A).Round(4), decimal.NewFromFloat(fit.B).Round(4),
		decimal.NewFromFloat(fit.CAGR()*100).Round(2), decimal.NewFromFloat(fit.RSquared).Round(4), fit.Origin)

	first, _ := hist.First()
	curve, err := fit.Extrapolate("Fitted", first.Period, to)
	if err != nil {
		return err
	}
	if err := printTable(out, curve); err != nil {
		return err
	}
	if *outPath == "" {
		return nil
	}
	img, err := render.Line(render.LineOptions{}, hist.Rename("Observed"), curve)
	if err != nil {
		return err
	}
	return writeFile(out, *outPath, img)
}

// printTable lists every point with its value rounded to cents and the growth
// over the previous period.
func printTable(out io.Writer, s series.Series) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PERIOD\tVALUE\tGROWTH\t")
	var prev decimal.Decimal
	for i, p := range s.Points {
		if !p.Valid {
			fmt.Fprintf(tw, "%d\t-\t\t\n", p.Period)
			continue
		}
		v := decimal.NewFromFloat(p.Value)
		growth := ""
		if i > 0 && !prev.IsZero() {
			growth = v.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", p.Period, humanize.CommafWithDigits(v.Round(2).InexactFloat64(), 2), growth)
		prev = v
	}
	return tw.Flush()
}
