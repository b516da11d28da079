package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/index.db)")
	limit := fs.Int("limit", 20, "result limit")
	kind := fs.String("kind", "", `kind filter: "scene" or an intent token (recent)`)
	_ = fs.Parse(args)

	q := "recent"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "index.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "recent":
		if *limit <= 0 {
			*limit = 20
		}
		query := `SELECT request_id,received_at,kind,scene_digest,seed,chunks,shapes_ok,shapes_skipped,duration_ms,remote
			FROM generations ORDER BY rowid DESC LIMIT ?`
		qargs := []any{*limit}
		if strings.TrimSpace(*kind) != "" {
			query = `SELECT request_id,received_at,kind,scene_digest,seed,chunks,shapes_ok,shapes_skipped,duration_ms,remote
				FROM generations WHERE kind=? ORDER BY rowid DESC LIMIT ?`
			qargs = []any{strings.TrimSpace(*kind), *limit}
		}
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RequestID     string `json:"request_id,omitempty"`
				ReceivedAt    string `json:"received_at"`
				Kind          string `json:"kind"`
				SceneDigest   string `json:"scene_digest,omitempty"`
				Seed          int64  `json:"seed"`
				Chunks        int    `json:"chunks"`
				ShapesOK      int    `json:"shapes_ok"`
				ShapesSkipped int    `json:"shapes_skipped"`
				DurationMS    int64  `json:"duration_ms"`
				Remote        string `json:"remote,omitempty"`
			}
			if err := rows.Scan(&r.RequestID, &r.ReceivedAt, &r.Kind, &r.SceneDigest, &r.Seed,
				&r.Chunks, &r.ShapesOK, &r.ShapesSkipped, &r.DurationMS, &r.Remote); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	case "kinds":
		rows, err := db.Query(`SELECT kind,COUNT(*) AS n,SUM(chunks),SUM(shapes_skipped),AVG(duration_ms)
			FROM generations GROUP BY kind ORDER BY n DESC`)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Kind          string  `json:"kind"`
				Count         int64   `json:"count"`
				Chunks        int64   `json:"chunks"`
				ShapesSkipped int64   `json:"shapes_skipped"`
				AvgDurationMS float64 `json:"avg_duration_ms"`
			}
			if err := rows.Scan(&r.Kind, &r.Count, &r.Chunks, &r.ShapesSkipped, &r.AvgDurationMS); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	case "meta":
		rows, err := db.Query(`SELECT key,value FROM meta ORDER BY key`)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			}
			if err := rows.Scan(&r.Key, &r.Value); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-limit N] [-kind K] recent|kinds|meta")
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
