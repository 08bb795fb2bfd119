package commands

import (
	"fmt"
	"io"
	"os"

	"qlab/internal/histogram"
)

const barWidth = 40

func shotsOrDefault(shots int) int {
	if shots == 0 {
		return cfg.DefaultShots
	}
	return shots
}

func printCounts(w io.Writer, counts map[string]int) {
	fmt.Fprintln(w, histogram.Terminal(counts, barWidth))
}

// writePNG saves the counts histogram when path is set.
func writePNG(path string, counts map[string]int, title string) error {
	if path == "" {
		return nil
	}
	img, err := histogram.PNG(counts, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("writing histogram: %w", err)
	}
	log.Info().Str("path", path).Msg("Histogram written")
	return nil
}
