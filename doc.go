// Package geoscore answers "which administrative region contains this
// geographic point, and what precomputed score does that region carry?"
// over a reloadable dataset of polygon boundaries and a per-region score
// table.
//
// # Quick Start
//
//	src := catalog.Source{
//	    Store:        blobstore.NewLocalStore("/data"),
//	    PolygonsName: "tracts_wkb.csv",
//	    ScoresName:   "tract_lookup.json",
//	}
//	svc, _ := geoscore.Open(ctx, src)
//
//	m, err := svc.Locate(ctx, 40.7128, -74.0060)
//	if err == nil && m.RegionID != "" {
//	    fmt.Println(m.RegionID, m.Score)
//	}
//
// Open is best-effort: when an artifact is missing at startup the service
// comes up not-ready instead of failing, and Load can be retried once the
// artifacts appear.
//
// # Dataset reloads
//
// Load builds a complete new catalog off to the side and publishes it with a
// single atomic swap. Lookups are lock-free reads against the active
// snapshot; a query that started before a swap finishes against the snapshot
// it captured. A failed reload leaves the previous catalog serving.
//
// # Remote artifacts
//
// Artifacts are read through blobstore.BlobStore: local disk, MinIO
// (blobstore/minio) or AWS S3 (blobstore/s3). Names ending in .gz or .lz4
// are decompressed transparently.
package geoscore
