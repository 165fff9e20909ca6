package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"geocoder_backend/internal/geocoder"
	"geocoder_backend/platform/apperr"
	"geocoder_backend/platform/config"
	"geocoder_backend/platform/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// OutputColumns are appended to every input row.
var OutputColumns = []string{"x", "y", "gctype", "gcquality", "codedaddress"}

// Options selects the input columns of a batch.
type Options struct {
	Column     string
	CityColumn string
}

// Stats summarises a finished batch.
type Stats struct {
	Rows     int           `json:"rows"`
	Matched  int           `json:"matched"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Processor geocodes CSV rows with bounded concurrency and an optional
// request rate limit.
type Processor struct {
	svc           geocoder.Service
	log           *logger.Logger
	concurrency   int
	limiter       *rate.Limiter
	progressEvery int
}

// NewProcessor creates a processor. A non-positive rate disables throttling.
func NewProcessor(svc geocoder.Service, cfg config.BatchConfig, log *logger.Logger) *Processor {
	concurrency := cfg.GetBatchConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	var limiter *rate.Limiter
	if perSec := cfg.GetBatchRatePerSecond(); perSec > 0 {
		burst := int(perSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}

	return &Processor{
		svc:           svc,
		log:           log,
		concurrency:   concurrency,
		limiter:       limiter,
		progressEvery: cfg.GetBatchProgressEvery(),
	}
}

type rowResult struct {
	res *geocoder.Result
	err error
}

// Process reads a CSV with a header row from in, geocodes opts.Column of
// every row and writes the rows with OutputColumns appended to out, in
// input order. Rows that fail are logged, counted and written with empty
// result columns.
func (p *Processor) Process(ctx context.Context, jobID string, in io.Reader, out io.Writer, opts Options) (Stats, error) {
	start := time.Now()
	log := p.log.WithContext(ctx)

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Stats{}, apperr.Validation("batch file is empty")
		}
		return Stats{}, apperr.Wrap(apperr.KindValidation, "batch file is not valid CSV", err)
	}
	col := columnIndex(header, opts.Column)
	if col < 0 {
		return Stats{}, apperr.Validation(fmt.Sprintf("column %q not found", opts.Column))
	}
	cityCol := -1
	if opts.CityColumn != "" {
		if cityCol = columnIndex(header, opts.CityColumn); cityCol < 0 {
			return Stats{}, apperr.Validation(fmt.Sprintf("column %q not found", opts.CityColumn))
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindValidation, "batch file is not valid CSV", err)
	}

	results := make([]rowResult, len(rows))
	var done, matched, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, row := range rows {
		i, row := i, row // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			if p.limiter != nil {
				if err := p.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			street := cell(row, col)
			if city := cell(row, cityCol); city != "" && !strings.Contains(street, ",") {
				street += ", " + city
			}

			res, err := p.svc.Geocode(gctx, street)
			switch {
			case err != nil:
				failed.Add(1)
				log.Warn("batch row failed", "job_id", jobID, "row", i+1, "input", street, "error", err)
				results[i] = rowResult{err: err}
			case res != nil:
				matched.Add(1)
				results[i] = rowResult{res: res}
			}

			n := done.Add(1)
			if p.progressEvery > 0 && n%int64(p.progressEvery) == 0 {
				log.BatchProgress(jobID, int(n), int(matched.Load()), int(failed.Load()), perSecond(n, start))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	if err := writeResults(out, header, rows, results); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Rows:     len(rows),
		Matched:  int(matched.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	log.BatchProgress(jobID, stats.Rows, stats.Matched, stats.Failed, perSecond(int64(stats.Rows), start))
	return stats, nil
}

func writeResults(out io.Writer, header []string, rows [][]string, results []rowResult) error {
	w := csv.NewWriter(out)
	if err := w.Write(append(append([]string(nil), header...), OutputColumns...)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		record := append(append(make([]string, 0, len(row)+len(OutputColumns)), row...), resultColumns(results[i].res)...)
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	return w.Error()
}

func resultColumns(res *geocoder.Result) []string {
	if res == nil {
		return make([]string, len(OutputColumns))
	}
	return []string{
		strconv.FormatFloat(res.X, 'f', -1, 64),
		strconv.FormatFloat(res.Y, 'f', -1, 64),
		string(res.Type),
		strconv.Itoa(res.Quality),
		res.CodedAddress,
	}
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func perSecond(n int64, start time.Time) float64 {
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed
}
