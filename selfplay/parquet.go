package selfplay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Row is a single training sample: a position, the search's visit
// distribution over its legal moves and the final result of the game.
// Legal moves the search left unexpanded carry a policy of 0.
type Row struct {
	GameID string `parquet:"game_id,dict"`
	Ply    int32  `parquet:"ply"`
	FEN    string `parquet:"fen"`
	// Moves and Policy are aligned. Policy holds the normalised root visit
	// counts.
	Moves  []string  `parquet:"moves"`
	Policy []float32 `parquet:"policy"`
	Played string    `parquet:"played"`
	// Value is the game result in [-1..1] from the side to move's perspective,
	// 0 for draws and unfinished games.
	Value  float32 `parquet:"value"`
	Engine string  `parquet:"engine,dict"`
}

// WriteRows stores rows as a zstd-compressed parquet file at path.
func WriteRows(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Write to a temp file and rename atomically.
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "selfplay_v1"),
	); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadRows loads every row of a file written by WriteRows.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	rows := make([]Row, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows[:n], nil
}
