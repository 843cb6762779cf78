package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys.
const (
	AttrDatasetVersion = attribute.Key("crashlens.dataset.version")
	AttrRecords        = attribute.Key("crashlens.records")
	AttrMaxPoints      = attribute.Key("crashlens.map.max_points")
	AttrPoints         = attribute.Key("crashlens.map.points")
	AttrChart          = attribute.Key("crashlens.chart")
	AttrBatchID        = attribute.Key("crashlens.ingest.batch_id")
	AttrCacheHit       = attribute.Key("crashlens.cache.hit")
)
