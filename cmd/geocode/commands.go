package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"geocoder_backend/internal/address"
	"geocoder_backend/internal/area"
	"geocoder_backend/internal/batch"
	"geocoder_backend/internal/geocoder"
	"geocoder_backend/internal/geocoder/cache"
	"geocoder_backend/internal/geocoder/repository"
	"geocoder_backend/platform/config"
	"geocoder_backend/platform/db"
	"geocoder_backend/platform/logger"

	"github.com/urfave/cli/v2"
)

var suffixesFlag = &cli.StringFlag{
	Name:    "suffixes",
	Usage:   "CSV of raw,canonical street types replacing the built-in table",
	EnvVars: []string{"GEOCODER_SUFFIXES_PATH"},
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "split an address into its parts without touching the database",
		ArgsUsage: "<address>",
		Flags:     []cli.Flag{suffixesFlag},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return cli.Exit("an address is required", 2)
			}
			parser, err := loadParser(c.String("suffixes"))
			if err != nil {
				return err
			}
			addr, err := parser.Parse(text)
			if err != nil {
				return err
			}
			return render(c.App.Writer, c.String("format"), addr)
		},
	}
}

func geocodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "geocode",
		Usage:     "geocode an address or an \"A / B\" intersection",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "city", Usage: "city appended when the address names none"},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return cli.Exit("an address is required", 2)
			}
			if city := c.String("city"); city != "" && !strings.Contains(text, ",") {
				text += ", " + city
			}
			return withGeocoder(c, func(svc geocoder.Service, _ *config.Config, _ *logger.Logger) error {
				res, err := svc.Geocode(c.Context, text)
				if err != nil {
					return err
				}
				if res == nil {
					return cli.Exit("no match", 3)
				}
				return render(c.App.Writer, c.String("format"), res)
			})
		},
	}
}

func streetCommand() *cli.Command {
	return &cli.Command{
		Name:      "street",
		Usage:     "print the best ranked segment for a street",
		ArgsUsage: "<street>",
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return cli.Exit("a street is required", 2)
			}
			return withGeocoder(c, func(svc geocoder.Service, _ *config.Config, _ *logger.Logger) error {
				seg, err := svc.GeocodeStreet(c.Context, text)
				if err != nil {
					return err
				}
				if seg == nil {
					return cli.Exit("no match", 3)
				}
				return render(c.App.Writer, c.String("format"), seg)
			})
		},
	}
}

func intersectionCommand() *cli.Command {
	return &cli.Command{
		Name:      "intersection",
		Usage:     "locate the node where two streets meet",
		ArgsUsage: "<street> <street>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("exactly two streets are required", 2)
			}
			return withGeocoder(c, func(svc geocoder.Service, _ *config.Config, _ *logger.Logger) error {
				node, err := svc.GeocodeIntersection(c.Context, c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return err
				}
				if node == nil {
					return cli.Exit("no match", 3)
				}
				return render(c.App.Writer, c.String("format"), node)
			})
		},
	}
}

func semiblockCommand() *cli.Command {
	return &cli.Command{
		Name:      "semiblock",
		Usage:     "list address points near a block, grouped by segment",
		ArgsUsage: "<street>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "city"},
			&cli.StringFlag{Name: "state"},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return cli.Exit("a street is required", 2)
			}
			return withGeocoder(c, func(svc geocoder.Service, _ *config.Config, _ *logger.Logger) error {
				groups, err := svc.GeocodeSemiblock(c.Context, text, c.String("city"), c.String("state"))
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					return cli.Exit("no match", 3)
				}
				return render(c.App.Writer, c.String("format"), groups)
			})
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "geocode a local CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Required: true, Usage: "input CSV with a header row"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "output CSV"},
			&cli.StringFlag{Name: "column", Value: "address", Usage: "column holding the address"},
			&cli.StringFlag{Name: "city-column", Usage: "optional column holding the city"},
		},
		Action: func(c *cli.Context) error {
			return withGeocoder(c, func(svc geocoder.Service, cfg *config.Config, log *logger.Logger) error {
				in, err := os.Open(c.String("in"))
				if err != nil {
					return err
				}
				defer func() {
					_ = in.Close()
				}()
				out, err := os.Create(c.String("out"))
				if err != nil {
					return err
				}

				proc := batch.NewProcessor(svc, cfg, log)
				stats, err := proc.Process(c.Context, "local", in, out, batch.Options{
					Column:     c.String("column"),
					CityColumn: c.String("city-column"),
				})
				if cerr := out.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				return render(c.App.Writer, c.String("format"), stats)
			})
		},
	}
}

func areaCommand() *cli.Command {
	return &cli.Command{
		Name:      "area",
		Usage:     "map a lon/lat onto an analysis area grid",
		ArgsUsage: "<lon> <lat>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bounds", Required: true, Usage: "minlon,minlat,maxlon,maxlat"},
			&cli.Float64Flag{Name: "cell", Value: 100, Usage: "cell size in metres"},
		},
		Action: func(c *cli.Context) error {
			bounds, err := parseBounds(c.String("bounds"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			a, err := area.New(bounds, c.Float64("cell"))
			if err != nil {
				return err
			}

			cols, rows := a.Dims()
			report := areaReport{Bounds: bounds, CellSize: a.CellSize(), Cols: cols, Rows: rows}
			if c.NArg() == 2 {
				lon, err1 := strconv.ParseFloat(c.Args().Get(0), 64)
				lat, err2 := strconv.ParseFloat(c.Args().Get(1), 64)
				if err1 != nil || err2 != nil {
					return cli.Exit("lon and lat must be numbers", 2)
				}
				report.X, report.Y = a.Project(lon, lat)
				if col, row, ok := a.Cell(lon, lat); ok {
					cx, cy := a.CellCenter(col, row)
					report.Cell = &cellReport{Col: col, Row: row, CenterLon: cx, CenterLat: cy}
				}
			}
			return render(c.App.Writer, c.String("format"), report)
		},
	}
}

func suffixesCommand() *cli.Command {
	return &cli.Command{
		Name:      "suffixes",
		Usage:     "look up street types in the dictionary",
		ArgsUsage: "[word...]",
		Flags:     []cli.Flag{suffixesFlag},
		Action: func(c *cli.Context) error {
			parser, err := loadParser(c.String("suffixes"))
			if err != nil {
				return err
			}
			dict := parser.Suffixes()
			report := suffixReport{Entries: dict.Len(), Lookups: map[string]string{}}
			for _, word := range c.Args().Slice() {
				if canonical, ok := dict.Canonical(word); ok {
					report.Lookups[word] = canonical
				} else {
					report.Lookups[word] = ""
				}
			}
			return render(c.App.Writer, c.String("format"), report)
		},
	}
}

type areaReport struct {
	Bounds   area.Bounds `json:"bounds" yaml:"bounds"`
	CellSize float64     `json:"cell_size" yaml:"cell_size"`
	Cols     int         `json:"cols" yaml:"cols"`
	Rows     int         `json:"rows" yaml:"rows"`
	X        float64     `json:"x,omitempty" yaml:"x,omitempty"`
	Y        float64     `json:"y,omitempty" yaml:"y,omitempty"`
	Cell     *cellReport `json:"cell,omitempty" yaml:"cell,omitempty"`
}

type cellReport struct {
	Col       int     `json:"col" yaml:"col"`
	Row       int     `json:"row" yaml:"row"`
	CenterLon float64 `json:"center_lon" yaml:"center_lon"`
	CenterLat float64 `json:"center_lat" yaml:"center_lat"`
}

type suffixReport struct {
	Entries int               `json:"entries" yaml:"entries"`
	Lookups map[string]string `json:"lookups,omitempty" yaml:"lookups,omitempty"`
}

func parseBounds(s string) (area.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return area.Bounds{}, fmt.Errorf("bounds must be minlon,minlat,maxlon,maxlat")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return area.Bounds{}, fmt.Errorf("bounds value %q is not a number", p)
		}
		vals[i] = v
	}
	return area.Bounds{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}, nil
}

func loadParser(path string) (*address.Parser, error) {
	if path == "" {
		return address.NewParser(nil), nil
	}
	suffixes, err := address.LoadSuffixesFile(path)
	if err != nil {
		return nil, err
	}
	return address.NewParser(suffixes), nil
}


// withGeocoder connects to the reference database and runs fn with a
// geocoder configured from the environment.
func withGeocoder(c *cli.Context, fn func(geocoder.Service, *config.Config, *logger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	pool, err := db.NewPool(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	parser, err := loadParser(cfg.GetSuffixesPath())
	if err != nil {
		return err
	}

	var svc geocoder.Service = geocoder.New(repository.New(pool), parser,
		geocoder.WithThreshold(cfg.GetMatchThreshold()),
		geocoder.WithDefaultCity(cfg.GetDefaultCity()),
		geocoder.WithLogger(log),
	)
	if cfg.IsCacheEnabled() {
		ctx, cancel := context.WithTimeout(c.Context, cacheConnectTimeout)
		rdb, err := cache.NewRedisClient(ctx, cfg)
		cancel()
		if err != nil {
			log.Warn("geocode cache disabled", "error", err)
		} else {
			defer func() {
				_ = rdb.Close()
			}()
			svc = cache.New(svc, rdb, cfg, log)
		}
	}

	return fn(svc, cfg, log)
}
