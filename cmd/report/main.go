// Command report writes the LaTeX maintenance report from a plan database.
//
//	report -db plan.db -template plantilla.tex -out informe.tex -period "agosto 2025 -- enero 2026"
//
// -db defaults to the plan database remembered in the configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/warp/maintenance-plan/config"
	"github.com/warp/maintenance-plan/maintenance"
	"github.com/warp/maintenance-plan/report"
	"github.com/warp/maintenance-plan/store/sqlite"
)

func main() {
	settings := config.FromEnv()

	configPath := flag.String("config", settings.ConfigFile, "configuration file")
	dbPath := flag.String("db", settings.PlanDB, "plan database")
	templatePath := flag.String("template", "plantilla_mantenimiento.tex", "LaTeX template")
	outPath := flag.String("out", "informe_mantenimiento.tex", "output file")
	period := flag.String("period", "", "academic period (required)")
	presented := flag.String("date", report.PresentationDate(time.Now()), "presentation date")
	summary := flag.Bool("summary", false, "also print the completion summary")
	flag.Parse()

	if *period == "" {
		fmt.Fprintln(os.Stderr, "report: -period is required")
		flag.Usage()
		os.Exit(2)
	}

	db := *dbPath
	if db == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[Report] %v", err)
		}
		db = cfg.StoreLocation()
	}
	if db == "" {
		log.Fatalf("[Report] %v: pass -db or select one in the server first", maintenance.ErrNoStoreSelected)
	}

	ctx := context.Background()
	store := sqlite.New(db)

	err := report.NewGenerator(store).Generate(ctx, report.Request{
		TemplatePath: *templatePath,
		OutputPath:   *outPath,
		Params:       report.Params{Period: *period, PresentationDate: *presented},
	})
	if err != nil {
		log.Fatalf("[Report] %v", err)
	}

	if *summary {
		records, err := store.ListAll(ctx)
		if err != nil {
			log.Fatalf("[Report] %v", err)
		}
		fmt.Println(maintenance.Summarize(records, maintenance.Today()).Summary())
	}
}
