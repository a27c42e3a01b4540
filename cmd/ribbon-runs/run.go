package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/ribbon/internal/storage/sqlite"
)

type options struct {
	dbPath  string
	list    int
	show    string
	compare string
	delete  string

	migrations  bool
	showVersion bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.dbPath, "db", "ribbon_runs.db", "sqlite database path")
	fs.IntVar(&o.list, "list", 20, "list the most recent N runs")
	fs.StringVar(&o.show, "show", "", "print the packets of one run")
	fs.StringVar(&o.compare, "compare", "", "compare two runs: RUN_ID1,RUN_ID2")
	fs.StringVar(&o.delete, "delete", "", "delete one run and its packets")
	fs.BoolVar(&o.migrations, "migrations", false, "print the schema migration status")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

// run performs one action and prints its result as indented JSON. The
// actions are checked in the order migrations, delete, compare, show, list.
func run(w io.Writer, o *options) error {
	db, err := sqlite.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	store := sqlite.NewRunStore(db)

	switch {
	case o.migrations:
		status, err := db.MigrationStatus()
		if err != nil {
			return err
		}
		return writeJSON(w, status)

	case o.delete != "":
		if err := store.DeleteRun(o.delete); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("run %s not found", o.delete)
			}
			return err
		}
		return writeJSON(w, map[string]string{"deleted": o.delete})

	case o.compare != "":
		ids := strings.Split(o.compare, ",")
		if len(ids) != 2 || strings.TrimSpace(ids[0]) == "" || strings.TrimSpace(ids[1]) == "" {
			return fmt.Errorf("-compare expects RUN_ID1,RUN_ID2, got %q", o.compare)
		}
		cmp, err := store.CompareRuns(strings.TrimSpace(ids[0]), strings.TrimSpace(ids[1]))
		if err != nil {
			return err
		}
		return writeJSON(w, cmp)

	case o.show != "":
		r, err := store.GetRun(o.show)
		if err != nil {
			return fmt.Errorf("load run %s: %w", o.show, err)
		}
		packets, err := store.ListPackets(o.show)
		if err != nil {
			return err
		}
		return writeJSON(w, struct {
			Run     *sqlite.Run         `json:"run"`
			Packets []*sqlite.PacketRow `json:"packets"`
		}{r, packets})

	default:
		runs, err := store.ListRuns(o.list)
		if err != nil {
			return err
		}
		return writeJSON(w, runs)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
