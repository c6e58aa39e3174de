package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kindleget/kindle-downloader/internal/model"
	"github.com/kindleget/kindle-downloader/internal/planner"
)

// printListing prints the catalog with the 1-based indices selection and
// resume operate on.
func printListing(out io.Writer, entries []model.CatalogEntry) {
	for i := range entries {
		entry := &entries[i]
		line := fmt.Sprintf("%4d  %s", i+1, entry.DisplayTitle())
		if entry.Authors != "" {
			line += " by " + entry.Authors
		}
		if entry.AcquiredAt != "" {
			line += " (" + entry.AcquiredAt + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%d items\n", len(entries))
}

// promptSelection runs the interactive pick loop: indices and a:b ranges
// to select, "l" to relist, "q" to abort.
func promptSelection(in io.Reader, out io.Writer, entries []model.CatalogEntry) ([]int, error) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Select indices to download (e.g. \"4 5 10:12\"), l to relist, q to quit: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, errSelectionAborted
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "q":
			return nil, errSelectionAborted
		case "l":
			printListing(out, entries)
			continue
		}

		selection, err := planner.ParseSelection(input)
		if err != nil {
			fmt.Fprintf(out, "Bad selection: %v\n", err)
			continue
		}
		if last := selection[len(selection)-1]; last > len(entries) {
			fmt.Fprintf(out, "Index %d is past the end of the listing (%d items).\n", last, len(entries))
			continue
		}
		return selection, nil
	}
}
