package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"valvefinder/internal"
	"valvefinder/internal/catalog"
	"valvefinder/internal/config"
	"valvefinder/internal/importer"
	"valvefinder/internal/storage"
	"valvefinder/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := cfg.Logger("valvefinder")

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := catalog.NewClient(cfg)

	cmd := os.Args[1]
	switch cmd {
	case "catalog:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		q := fs.String("q", "", "text query over ref, name and serial")
		banks := fs.String("banks", "", "comma separated bank tags, e.g. A,C")
		out := fs.String("out", "", "optional xlsx output path")
		_ = fs.Parse(os.Args[2:])

		store := loadCatalog(ctx, cfg, client, db, log)
		view := catalog.Filter(store.All(), catalog.Query{Text: *q, Banks: catalog.ParseBanks(*banks)})
		if strings.TrimSpace(*out) != "" {
			must(importer.ExportCatalogXLSX(view, bankTags, *out))
			fmt.Printf("exported %d of %d valves to %s\n", len(view), store.Len(), *out)
			return
		}
		printRecords(view)
		fmt.Printf("%d of %d valves\n", len(view), store.Len())
	case "catalog:find":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		code := fs.String("code", "", "scanned code, URL or name")
		codeType := fs.String("type", "qr", "code type recorded in the scan log")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*code) == "" {
			must(fmt.Errorf("--code is required"))
		}

		store := loadCatalog(ctx, cfg, client, db, log)
		id, ok := store.Find(*code)
		var matched *string
		if ok {
			matched = util.StringPtr(id)
		}
		if _, err := db.InsertScan(*code, *codeType, matched); err != nil {
			log.WithError(err).Warn("scan log write failed")
		}
		if !ok {
			fmt.Printf("no valve for %q\n", *code)
			for _, s := range catalog.Suggest(store.All(), *code) {
				fmt.Printf("  did you mean %s (%s) score=%.2f\n", s.Ref, s.Name, s.Score)
			}
			os.Exit(2)
		}
		rec, _ := store.Get(id)
		printDetail(rec)
	case "catalog:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "valve id or ref")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}

		store := loadCatalog(ctx, cfg, client, db, log)
		key := *id
		if found, ok := store.Find(key); ok {
			key = found
		}
		sel := catalog.NewSelection(store, catalog.NewSyncService(db, client, log))
		sel.Select(key)
		rec, err := sel.Enrich(ctx, key)
		must(err)
		printDetail(rec)
	case "catalog:banks":
		store := loadCatalog(ctx, cfg, client, db, log)
		records := store.All()
		if !catalog.DatasetHasBanks(records) {
			fmt.Println("no bank tags in catalog")
			return
		}
		counts := catalog.CountByBank(records)
		for _, b := range catalog.Banks {
			fmt.Printf("bank %s: %d\n", b, counts[b])
		}
	case "catalog:sync":
		svc := catalog.NewSyncService(db, client, log)
		count, err := svc.Sync(ctx)
		must(err)
		cached, err := db.CountValves()
		must(err)
		fmt.Printf("sync complete: %d valves (cache holds %d)\n", count, cached)
		if at, ok := svc.LastSync(); ok {
			fmt.Printf("last sync: %s\n", at.Local().Format("2006-01-02 15:04:05"))
		}
	case "valves:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "xlsx or csv path")
		upload := fs.Bool("upload", false, "also upload the spreadsheet to the backend")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		valves, err := importer.ParseFile(*file)
		must(err)
		must(db.UpsertValves(valves))
		fmt.Printf("imported %d valves from %s\n", len(valves), filepath.Base(*file))
		if *upload {
			inserted, err := client.UploadExcel(ctx, *file)
			must(err)
			fmt.Printf("backend inserted %d rows\n", inserted)
		}
	case "valves:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		q := fs.String("q", "", "text to match in valvula, ubicacion or numero_serie")
		limit := fs.Int("limit", 50, "max rows")
		_ = fs.Parse(os.Args[2:])

		valves, err := db.SearchValves(*q, *limit)
		must(err)
		records := make([]internal.ValveRecord, 0, len(valves))
		for _, v := range valves {
			if r, ok := catalog.RecordFromBackend(v); ok {
				records = append(records, r)
			}
		}
		printRecords(records)
	case "scans:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max rows")
		_ = fs.Parse(os.Args[2:])

		scans, err := db.ListScans(*limit)
		must(err)
		for _, s := range scans {
			fmt.Printf("%s\t%s\t%s\t%s\n", s.CreatedAt, s.CodeType, s.CodeText, util.Deref(s.MatchedID))
		}
	case "train:start":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "valve id or ref to tag captured frames with")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}

		store := loadCatalog(ctx, cfg, client, db, log)
		ref := *id
		if rec, ok := store.Lookup(*id); ok {
			ref = rec.Key()
		}
		must(client.StartTraining(ctx, ref))
		fmt.Printf("training capture started ref=%s\n", ref)
	case "train:finalize":
		must(client.FinalizeTraining(ctx))
		fmt.Println("training capture finalized")
	default:
		usage()
		os.Exit(1)
	}
}

func loadCatalog(ctx context.Context, cfg config.Config, client *catalog.Client, db *storage.DB, log *logrus.Entry) *catalog.Store {
	store := catalog.NewStoreWithNormalizer(catalog.Normalizer{Schemes: cfg.ValveSchemes})
	loader := catalog.NewLoaderFromConfig(cfg, client, db, log)
	_, err := loader.Load(ctx, store)
	must(err)
	return store
}

func bankTags(r internal.ValveRecord) []string {
	return catalog.GetBanks(r).Sorted()
}

func printRecords(records []internal.ValveRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REF\tNAME\tBANKS\tLOCATION\tQTY")
	for _, r := range records {
		qty := ""
		if r.Quantity != nil {
			qty = fmt.Sprint(*r.Quantity)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Key(), r.Name, strings.Join(bankTags(r), ","), r.Location.String(), qty)
	}
	_ = w.Flush()
}

func printDetail(r internal.ValveRecord) {
	fmt.Printf("id:        %s\n", r.ID)
	fmt.Printf("ref:       %s\n", r.Key())
	fmt.Printf("name:      %s\n", r.Name)
	if bank := catalog.GetBank(r); bank != "" {
		fmt.Printf("bank:      %s\n", bank)
	}
	if len(r.Location) > 0 {
		fmt.Printf("location:  %s\n", r.Location.String())
	}
	if r.Quantity != nil {
		fmt.Printf("quantity:  %d\n", *r.Quantity)
	}
	if r.SerialNumber != "" {
		fmt.Printf("serial:    %s\n", r.SerialNumber)
	}
	if r.DatasheetURL != "" {
		fmt.Printf("datasheet: %s\n", r.DatasheetURL)
	}
	if r.ImageURL != "" {
		fmt.Printf("image:     %s\n", r.ImageURL)
	}
	if r.Notes != "" {
		fmt.Printf("notes:     %s\n", r.Notes)
	}
}

func usage() {
	fmt.Println("usage: valvefinder <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:list [--q=text] [--banks=A,C] [--out=file.xlsx]")
	fmt.Println("  catalog:find --code=valve://152860 [--type=qr]")
	fmt.Println("  catalog:show --id=152860")
	fmt.Println("  catalog:banks")
	fmt.Println("  catalog:sync")
	fmt.Println("  valves:import --file=valves.xlsx [--upload]")
	fmt.Println("  valves:search --q=text [--limit=50]")
	fmt.Println("  scans:list [--limit=20]")
	fmt.Println("  train:start --id=152860")
	fmt.Println("  train:finalize")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
