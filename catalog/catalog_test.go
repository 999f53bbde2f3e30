package catalog

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoscore/blobstore"
	"geoscore/geometry"
)

func squareAt(x, y, size float64) orb.Polygon {
	return orb.Polygon{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}}
}

func hexWKB(t *testing.T, g orb.Geometry) string {
	t.Helper()
	return hex.EncodeToString(wkb.MustMarshal(g))
}

func polygonCSV(rows ...[2]string) []byte {
	var buf bytes.Buffer
	buf.WriteString("geoid,wkb\n")
	for _, r := range rows {
		fmt.Fprintf(&buf, "%s,%s\n", r[0], r[1])
	}
	return buf.Bytes()
}

func newSource(store *blobstore.MemoryStore) Source {
	return Source{Store: store, PolygonsName: "polys.csv", ScoresName: "scores.json"}
}

func TestBuild(t *testing.T) {
	store := blobstore.NewMemoryStore()
	store.Put("polys.csv", polygonCSV(
		[2]string{"R1", hexWKB(t, squareAt(0, 0, 1))},
		[2]string{"R2", hexWKB(t, squareAt(10, 10, 1))},
	))
	store.Put("scores.json", []byte(`{"R1": 5, "R2": 7.25}`))

	cat, err := Build(context.Background(), newSource(store))
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, 2, cat.ScoreCount())
	assert.True(t, cat.Ready())
	assert.False(t, cat.BuiltAt().IsZero())

	id, found := cat.Locate(orb.Point{0.5, 0.5})
	require.True(t, found)
	assert.Equal(t, "R1", id)

	id, found = cat.Locate(orb.Point{10.5, 10.5})
	require.True(t, found)
	assert.Equal(t, "R2", id)

	_, found = cat.Locate(orb.Point{5, 5})
	assert.False(t, found)

	score, ok := cat.Score("R2")
	require.True(t, ok)
	assert.Equal(t, 7.25, score)
}

func TestBuildMissingArtifacts(t *testing.T) {
	t.Run("Polygons", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("scores.json", []byte(`{"R1": 1}`))

		_, err := Build(context.Background(), newSource(store))
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Scores", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("polys.csv", polygonCSV([2]string{"R1", hexWKB(t, squareAt(0, 0, 1))}))

		_, err := Build(context.Background(), newSource(store))
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestBuildSchemaErrors(t *testing.T) {
	t.Run("MissingWKBColumn", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("polys.csv", []byte("geoid,name\nR1,Anderson County\n"))
		store.Put("scores.json", []byte(`{"R1": 1}`))

		_, err := Build(context.Background(), newSource(store))
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []string{"wkb"}, se.Missing)
	})

	t.Run("EmptyPolygonTable", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("polys.csv", nil)
		store.Put("scores.json", []byte(`{"R1": 1}`))

		_, err := Build(context.Background(), newSource(store))
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.ElementsMatch(t, []string{"geoid", "wkb"}, se.Missing)
	})

	t.Run("ScoresNotAnObject", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("polys.csv", polygonCSV([2]string{"R1", hexWKB(t, squareAt(0, 0, 1))}))
		store.Put("scores.json", []byte(`[1, 2, 3]`))

		_, err := Build(context.Background(), newSource(store))
		var se *SchemaError
		require.ErrorAs(t, err, &se)
	})
}

func TestBuildBadRecords(t *testing.T) {
	t.Run("InvalidHex", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("polys.csv", polygonCSV([2]string{"R1", "zzzz"}))
		store.Put("scores.json", []byte(`{"R1": 1}`))

		_, err := Build(context.Background(), newSource(store))
		var re *RecordError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, 1, re.Row)
		assert.Equal(t, "R1", re.RegionID)
	})

	t.Run("MalformedWKB", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("polys.csv", polygonCSV(
			[2]string{"R1", hexWKB(t, squareAt(0, 0, 1))},
			[2]string{"R2", "0103"},
		))
		store.Put("scores.json", []byte(`{"R1": 1}`))

		_, err := Build(context.Background(), newSource(store))
		var de *geometry.DecodeError
		require.ErrorAs(t, err, &de, "decode cause surfaces through the record error")
	})

	t.Run("NonArealGeometry", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		store.Put("polys.csv", polygonCSV([2]string{"R1", hexWKB(t, orb.Point{1, 2})}))
		store.Put("scores.json", []byte(`{"R1": 1}`))

		_, err := Build(context.Background(), newSource(store))
		var ue *geometry.UnsupportedGeometryError
		require.ErrorAs(t, err, &ue)
	})
}

func TestScoreUnknown(t *testing.T) {
	store := blobstore.NewMemoryStore()
	store.Put("polys.csv", polygonCSV(
		[2]string{"R1", hexWKB(t, squareAt(0, 0, 1))},
		[2]string{"R2", hexWKB(t, squareAt(10, 10, 1))},
	))
	// R2 absent, R3 explicitly null: both are "unknown", not errors.
	store.Put("scores.json", []byte(`{"R1": 5, "R3": null}`))

	cat, err := Build(context.Background(), newSource(store))
	require.NoError(t, err)
	assert.True(t, cat.Ready())

	_, ok := cat.Score("R2")
	assert.False(t, ok)
	_, ok = cat.Score("R3")
	assert.False(t, ok)

	id, found := cat.Locate(orb.Point{10.5, 10.5})
	require.True(t, found)
	assert.Equal(t, "R2", id, "region without score still resolves")
}

func TestNotReadyWithoutScores(t *testing.T) {
	store := blobstore.NewMemoryStore()
	store.Put("polys.csv", polygonCSV([2]string{"R1", hexWKB(t, squareAt(0, 0, 1))}))
	store.Put("scores.json", []byte(`{}`))

	cat, err := Build(context.Background(), newSource(store))
	require.NoError(t, err)
	assert.False(t, cat.Ready())
}

func TestReadyWithZeroPolygons(t *testing.T) {
	store := blobstore.NewMemoryStore()
	store.Put("polys.csv", polygonCSV())
	store.Put("scores.json", []byte(`{"R1": 5}`))

	cat, err := Build(context.Background(), newSource(store))
	require.NoError(t, err)

	assert.Equal(t, 0, cat.Len())
	assert.True(t, cat.Ready(), "empty index is valid; lookups resolve to no match")

	_, found := cat.Locate(orb.Point{0.5, 0.5})
	assert.False(t, found)
}

func TestBuildCompressedArtifacts(t *testing.T) {
	csvData := polygonCSV([2]string{"R1", hexWKB(t, squareAt(0, 0, 1))})

	t.Run("Gzip", func(t *testing.T) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(csvData)
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		store := blobstore.NewMemoryStore()
		store.Put("polys.csv.gz", buf.Bytes())
		store.Put("scores.json", []byte(`{"R1": 1}`))

		src := Source{Store: store, PolygonsName: "polys.csv.gz", ScoresName: "scores.json"}
		cat, err := Build(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, 1, cat.Len())
	})

	t.Run("LZ4", func(t *testing.T) {
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		_, err := zw.Write(csvData)
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		store := blobstore.NewMemoryStore()
		store.Put("polys.csv.lz4", buf.Bytes())
		store.Put("scores.json", []byte(`{"R1": 1}`))

		src := Source{Store: store, PolygonsName: "polys.csv.lz4", ScoresName: "scores.json"}
		cat, err := Build(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, 1, cat.Len())
	})
}

func TestLocateOverlapFirstWins(t *testing.T) {
	// Two identical squares is a data-quality condition; the documented
	// policy is that the first candidate in index order wins, stably.
	store := blobstore.NewMemoryStore()
	store.Put("polys.csv", polygonCSV(
		[2]string{"A", hexWKB(t, squareAt(0, 0, 1))},
		[2]string{"B", hexWKB(t, squareAt(0, 0, 1))},
	))
	store.Put("scores.json", []byte(`{"A": 1, "B": 2}`))

	cat, err := Build(context.Background(), newSource(store))
	require.NoError(t, err)

	winner, found := cat.Locate(orb.Point{0.5, 0.5})
	require.True(t, found)
	assert.Contains(t, []string{"A", "B"}, winner)
	for i := 0; i < 20; i++ {
		id, found := cat.Locate(orb.Point{0.5, 0.5})
		require.True(t, found)
		assert.Equal(t, winner, id)
	}

	// A rebuild over the same artifacts picks the same winner.
	rebuilt, err := Build(context.Background(), newSource(store))
	require.NoError(t, err)
	id, found := rebuilt.Locate(orb.Point{0.5, 0.5})
	require.True(t, found)
	assert.Equal(t, winner, id)
}

func TestLocateSharedEdge(t *testing.T) {
	store := blobstore.NewMemoryStore()
	store.Put("polys.csv", polygonCSV(
		[2]string{"L", hexWKB(t, squareAt(0, 0, 1))},
		[2]string{"R", hexWKB(t, squareAt(1, 0, 1))},
	))
	store.Put("scores.json", []byte(`{"L": 1, "R": 2}`))

	cat, err := Build(context.Background(), newSource(store))
	require.NoError(t, err)

	// Boundary-inclusive containment: the edge point resolves to exactly
	// one of the two neighbours, deterministically for this build.
	winner, found := cat.Locate(orb.Point{1, 0.5})
	require.True(t, found)
	assert.Contains(t, []string{"L", "R"}, winner)
	for i := 0; i < 20; i++ {
		id, found := cat.Locate(orb.Point{1, 0.5})
		require.True(t, found)
		assert.Equal(t, winner, id)
	}
}
