// focus-report - list stored study sessions and print their summaries
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/daemon"
	"github.com/teslashibe/go-focus/pkg/report"
	"github.com/teslashibe/go-focus/pkg/session"
)

func main() {
	dataDir := flag.String("data-dir", config.DataDir(), "Data directory holding config and sessions")
	storeKind := flag.String("store", "", "Session store: json, redis (default from config)")
	redisAddr := flag.String("redis-addr", "", "Redis address (default from config)")
	id := flag.String("id", "", "Print the report for one session")
	last := flag.Bool("last", false, "Print the report for the most recent session")
	asJSON := flag.Bool("json", false, "Emit JSON instead of text")
	del := flag.String("delete", "", "Delete a stored session by id")
	flag.Parse()

	log.Init("warn")

	cfg, err := daemon.LoadFile(daemon.ConfigPath(*dataDir))
	if err != nil {
		fatal(err)
	}
	cfg.LoadEnvConfig()
	cfg.DataDir = *dataDir
	if *storeKind != "" {
		cfg.Store = *storeKind
	}
	if *redisAddr != "" {
		cfg.Redis.Addr = *redisAddr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer closeStore()

	switch {
	case *del != "":
		if err := store.Delete(ctx, *del); err != nil {
			fatal(err)
		}
		fmt.Printf("deleted %s\n", *del)

	case *id != "":
		d, err := store.Get(ctx, *id)
		if err != nil {
			fatal(err)
		}
		printReport(d, *asJSON)

	case *last:
		list, err := store.List(ctx)
		if err != nil {
			fatal(err)
		}
		if len(list) == 0 {
			fatal(fmt.Errorf("no sessions stored"))
		}
		printReport(list[0], *asJSON)

	default:
		list, err := store.List(ctx)
		if err != nil {
			fatal(err)
		}
		printList(list, *asJSON)
	}
}

func openStore(ctx context.Context, cfg daemon.Config) (session.Store, func(), error) {
	if cfg.Store == daemon.StoreRedis {
		st, err := session.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	}
	st, err := session.NewDefaultStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {}, nil
}

func printReport(d *session.Data, asJSON bool) {
	m := session.Aggregate(d.Slices)
	if asJSON {
		writeJSON(struct {
			Session *session.Data   `json:"session"`
			Metrics session.Metrics `json:"metrics"`
		}{d, m})
		return
	}
	fmt.Println(report.Title(d))
	fmt.Println()
	fmt.Print(report.FormatText(d, m))
}

func printList(list []*session.Data, asJSON bool) {
	type row struct {
		ID       string `json:"id"`
		Subject  string `json:"subject"`
		Started  string `json:"started"`
		Duration int    `json:"duration"`
		Score    int    `json:"focus_score"`
	}

	rows := make([]row, 0, len(list))
	for _, d := range list {
		m := session.Aggregate(d.Slices)
		rows = append(rows, row{
			ID:       d.ID,
			Subject:  d.Subject,
			Started:  time.UnixMilli(d.StartTime).Format("2006-01-02 15:04"),
			Duration: m.TotalDuration,
			Score:    m.FocusScore,
		})
	}

	if asJSON {
		writeJSON(rows)
		return
	}
	if len(rows) == 0 {
		fmt.Println("no sessions stored")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBJECT\tSTARTED\tDURATION\tSCORE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.Subject, r.Started, time.Duration(r.Duration)*time.Second, r.Score)
	}
	w.Flush()
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "focus-report: %v\n", err)
	os.Exit(1)
}
