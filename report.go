package bounce

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// BenchReport is the serialized form of a performance run, suitable for
// plotting time per call against n for each variant.
type BenchReport struct {
	Generated   time.Time      `yaml:"generated"`
	GoVersion   string         `yaml:"go_version"`
	Platform    string         `yaml:"platform"`
	Height      float64        `yaml:"height"`
	Restitution float64        `yaml:"restitution"`
	MinTime     time.Duration  `yaml:"min_time"`
	Samples     int            `yaml:"samples"`
	Series      []SeriesReport `yaml:"series"`
}

// SeriesReport is one variant's measurements and fit.
type SeriesReport struct {
	Variant     string        `yaml:"variant"`
	Declared    string        `yaml:"declared"`
	Fitted      string        `yaml:"fitted"`
	Coefficient float64       `yaml:"coefficient_ns"`
	RMS         float64       `yaml:"rms"`
	Match       bool          `yaml:"match"`
	Points      []PointReport `yaml:"points"`
}

// PointReport is one (n, time per call) measurement.
type PointReport struct {
	N          int     `yaml:"n"`
	NsPerOp    float64 `yaml:"ns_per_op"`
	Iterations int64   `yaml:"iterations"`
	TailRatio  float64 `yaml:"tail_ratio"`
}

// NewBenchReport converts the output of Run into a report.
func NewBenchReport(series []Series, cfg Config) BenchReport {
	r := BenchReport{
		Generated:   time.Now().UTC().Truncate(time.Second),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		Height:      cfg.H,
		Restitution: cfg.R,
		MinTime:     cfg.MinTime,
		Samples:     cfg.Samples,
	}
	for _, s := range series {
		sr := SeriesReport{
			Variant:     s.Variant,
			Declared:    s.Declared.String(),
			Fitted:      s.Fit.Class.String(),
			Coefficient: s.Fit.Coefficient,
			RMS:         s.Fit.RMS,
			Match:       s.Matches(),
		}
		for _, p := range s.Points {
			sr.Points = append(sr.Points, PointReport{N: p.N, NsPerOp: p.NsPerOp, Iterations: p.Iterations, TailRatio: p.TailRatio})
		}
		r.Series = append(r.Series, sr)
	}
	return r
}

// WriteYAML encodes the report to w.
func (r BenchReport) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// ReadBenchReport decodes a report written by WriteYAML.
func ReadBenchReport(rd io.Reader) (BenchReport, error) {
	var r BenchReport
	if err := yaml.NewDecoder(rd).Decode(&r); err != nil {
		return BenchReport{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

// WriteTable prints one row per variant: the declared and fitted growth
// order followed by ns/op at each n.
func (r BenchReport) WriteTable(w io.Writer) error {
	if len(r.Series) == 0 {
		_, err := fmt.Fprintln(w, "no series")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := []string{"variant", "declared", "fitted", "rms"}
	for _, p := range r.Series[0].Points {
		header = append(header, fmt.Sprintf("n=%d", p.N))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, s := range r.Series {
		mark := "✓"
		if !s.Match {
			mark = "✗"
		}
		row := []string{s.Variant, s.Declared, s.Fitted + " " + mark, fmt.Sprintf("%.3f", s.RMS)}
		for _, p := range s.Points {
			row = append(row, fmt.Sprintf("%.1f", p.NsPerOp))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}

	return tw.Flush()
}

// ParseClass is the inverse of Class.String.
func ParseClass(s string) (Class, error) {
	for _, c := range Classes() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("bounce: unknown complexity class %q", s)
}
