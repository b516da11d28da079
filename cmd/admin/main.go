package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voxelito.dev/internal/gen/encoding"
	"voxelito.dev/internal/gen/voxel"
	"voxelito.dev/internal/persistence/archive"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "stats":
			statsCmd(os.Args[2:])
			return
		case "generations":
			generationsCmd(os.Args[2:])
			return
		case "archive":
			archiveCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dir := fs.String("dir", ".", "directory holding world archives")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), archive.Ext) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		h, err := archive.ReadHeader(filepath.Join(*dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			continue
		}
		fmt.Printf("%s\tsource=%s seed=%d palette=%.12s created=%s\n",
			name, h.Source, h.Seed, h.PaletteDigest, h.CreatedAt)
	}
}

func archiveCmd(args []string) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	records := fs.Bool("records", false, "decode the body and print per-chunk stats")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: admin archive [-records] PATH")
		os.Exit(2)
	}
	path := fs.Arg(0)

	if !*records {
		h, err := archive.ReadHeader(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read archive:", err)
			os.Exit(1)
		}
		printJSON(h)
		return
	}

	w, err := archive.Read(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read archive:", err)
		os.Exit(1)
	}

	var total int
	for i, rec := range w.Records {
		ids, err := encoding.DecodeRuns(rec.RLEData)
		if err != nil {
			fmt.Fprintf(os.Stderr, "record %d (%v): %v\n", i, rec.Position, err)
			os.Exit(1)
		}
		if len(ids) != voxel.Volume {
			fmt.Fprintf(os.Stderr, "record %d (%v): decoded %d cells, want %d\n", i, rec.Position, len(ids), voxel.Volume)
			os.Exit(1)
		}
		filled := 0
		for _, id := range ids {
			if id != 0 {
				filled++
			}
		}
		total += filled
		printJSON(struct {
			Position [3]int `json:"position"`
			Voxels   int    `json:"voxels"`
			RLEBytes int    `json:"rle_bytes"`
		}{Position: rec.Position, Voxels: filled, RLEBytes: len(rec.RLEData)})
	}
	fmt.Printf("archive v%d source=%s seed=%d bound=%d records=%d voxels=%d\n",
		w.Header.Version, w.Header.Source, w.Header.Seed, w.Bound, len(w.Records), total)
}
