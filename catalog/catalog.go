// Package catalog builds and serves the immutable region snapshot: decoded
// polygons, their aligned region identifiers, the score table, and the
// broad-phase spatial index.
//
// A Catalog is constructed wholesale from the two dataset artifacts and never
// mutated afterwards; a reload produces a new Catalog and the service swaps
// an atomic pointer. No partially built catalog is ever visible: Build either
// returns a complete snapshot or an error.
package catalog

import (
	"context"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"geoscore/blobstore"
	"geoscore/codec"
	"geoscore/geometry"
	"geoscore/rtree"
)

// Required polygon-table columns. Extra columns are ignored.
const (
	colRegionID = "geoid"
	colWKB      = "wkb"
)

// Source names the two artifacts a catalog is built from.
type Source struct {
	// Store provides read access to both artifacts.
	Store blobstore.BlobStore

	// PolygonsName is the polygon table: CSV with required columns
	// "geoid" (region identifier) and "wkb" (hex-encoded WKB geometry).
	// Row order defines the internal index alignment.
	PolygonsName string

	// ScoresName is the score table: a JSON object mapping region
	// identifier to a number. Absent keys and nulls mean "score unknown".
	ScoresName string

	// Codec decodes the score table. Defaults to codec.Default.
	Codec codec.Codec
}

// Catalog is the committed, queryable snapshot for one dataset generation.
// All methods are safe for concurrent use; nothing mutates a Catalog after
// Build returns.
type Catalog struct {
	regions []*geometry.Region
	ids     []string
	scores  map[string]float64
	tree    *rtree.Tree
	builtAt time.Time
}

// Build reads both artifacts, decodes every polygon record, builds the
// spatial index, and returns the finished snapshot.
//
// Any failure aborts the whole build: a missing artifact surfaces as an
// error matching blobstore.ErrNotFound, a malformed header as *SchemaError,
// and a bad row as *RecordError wrapping the geometry decode error.
func Build(ctx context.Context, src Source) (*Catalog, error) {
	ids, rawWKB, err := readPolygonTable(ctx, src.Store, src.PolygonsName)
	if err != nil {
		return nil, err
	}

	regions, err := decodeRegions(ctx, ids, rawWKB)
	if err != nil {
		return nil, err
	}

	scores, err := readScoreTable(ctx, src)
	if err != nil {
		return nil, err
	}

	bounds := make([]orb.Bound, len(regions))
	for i, r := range regions {
		bounds[i] = r.Bound()
	}

	return &Catalog{
		regions: regions,
		ids:     ids,
		scores:  scores,
		tree:    rtree.Build(bounds),
		builtAt: time.Now(),
	}, nil
}

// Len returns the number of regions in the snapshot.
func (c *Catalog) Len() int { return len(c.regions) }

// ScoreCount returns the number of entries in the score table.
func (c *Catalog) ScoreCount() int { return len(c.scores) }

// BuiltAt returns the build completion time of this generation.
func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// Ready reports whether the snapshot can answer queries: an index was built
// and the score table is non-empty. A zero-region index is valid; every
// lookup against it resolves to "no match".
func (c *Catalog) Ready() bool {
	return c != nil && c.tree != nil && len(c.scores) > 0
}

// Score returns the score for a region identifier. The second return is
// false when the identifier is absent from the score table; that is "score
// unknown", not an error.
func (c *Catalog) Score(id string) (float64, bool) {
	s, ok := c.scores[id]
	return s, ok
}

// Locate resolves a planar (lon, lat) point to the identifier of the region
// covering it. The second return is false when no region covers the point.
//
// When overlapping source polygons both cover the point — a data-quality
// condition, not expected in a clean partition — the first candidate in
// index order wins. This tie-break is deliberate and deterministic for a
// fixed build.
func (c *Catalog) Locate(pt orb.Point) (string, bool) {
	i := resolveFirst(pt, c.tree.Query(pt), c.regions)
	if i < 0 {
		return "", false
	}
	return c.ids[i], true
}

func readPolygonTable(ctx context.Context, store blobstore.BlobStore, name string) (ids []string, rawWKB [][]byte, err error) {
	rc, err := openArtifact(ctx, store, name)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: open polygon table %q: %w", name, err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, &SchemaError{Artifact: name, Missing: []string{colRegionID, colWKB}}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: read polygon table %q: %w", name, err)
	}

	idCol, wkbCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case colRegionID:
			idCol = i
		case colWKB:
			wkbCol = i
		}
	}
	var missing []string
	if idCol < 0 {
		missing = append(missing, colRegionID)
	}
	if wkbCol < 0 {
		missing = append(missing, colWKB)
	}
	if len(missing) > 0 {
		return nil, nil, &SchemaError{Artifact: name, Missing: missing}
	}

	row := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: read polygon table %q row %d: %w", name, row+1, err)
		}
		row++

		id := strings.TrimSpace(rec[idCol])
		raw, err := hex.DecodeString(strings.TrimSpace(rec[wkbCol]))
		if err != nil {
			return nil, nil, &RecordError{Row: row, RegionID: id, cause: fmt.Errorf("invalid hex: %w", err)}
		}
		ids = append(ids, id)
		rawWKB = append(rawWKB, raw)
	}
	return ids, rawWKB, nil
}

// decodeRegions decodes all WKB records in parallel. The first failure
// cancels the group and fails the build.
func decodeRegions(ctx context.Context, ids []string, rawWKB [][]byte) ([]*geometry.Region, error) {
	regions := make([]*geometry.Region, len(rawWKB))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range rawWKB {
		g.Go(func() error {
			r, err := geometry.Decode(rawWKB[i])
			if err != nil {
				return &RecordError{Row: i + 1, RegionID: ids[i], cause: err}
			}
			regions[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return regions, nil
}

func readScoreTable(ctx context.Context, src Source) (map[string]float64, error) {
	c := src.Codec
	if c == nil {
		c = codec.Default
	}

	rc, err := openArtifact(ctx, src.Store, src.ScoresName)
	if err != nil {
		return nil, fmt.Errorf("catalog: open score table %q: %w", src.ScoresName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("catalog: read score table %q: %w", src.ScoresName, err)
	}

	// Nulls decode to nil pointers and are dropped: "score unknown" is the
	// same as the key being absent.
	var raw map[string]*float64
	if err := c.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaError{Artifact: src.ScoresName, Missing: nil, cause: err}
	}

	scores := make(map[string]float64, len(raw))
	for id, v := range raw {
		if v != nil {
			scores[id] = *v
		}
	}
	return scores, nil
}
