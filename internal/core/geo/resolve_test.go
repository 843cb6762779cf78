package geo

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

func opts(max int) Options {
	o := DefaultOptions()
	o.MaxPoints = max
	return o
}

func crashAt(id string, lat, lon float64, injured, killed int) domain.Record {
	return domain.Record{
		"collision_id":              id,
		"latitude":                  lat,
		"longitude":                 lon,
		"number_of_persons_injured": injured,
		"number_of_persons_killed":  killed,
		"crash_datetime":            "2023-04-05 10:00:00",
	}
}

func TestExtract_Aliases(t *testing.T) {
	ex := NewExtractor(DefaultOptions().LatRange, DefaultOptions().LonRange)

	tests := []struct {
		name    string
		rec     domain.Record
		lat     float64
		lon     float64
		resolve bool
	}{
		{"capitalised fields", domain.Record{"Latitude": "40.7128", "Longitude": "-74.0060"}, 40.7128, -74.0060, true},
		{"short fields", domain.Record{"lat": 40.7128, "lng": -74.006}, 40.7128, -74.006, true},
		{"noisy text", domain.Record{"LAT": "40.7128N", "LON": " -74.0060 "}, 40.7128, -74.006, true},
		{"combined pair", domain.Record{"location": "(40.7128, -74.0060)"}, 40.7128, -74.006, true},
		{"combined pair reversed", domain.Record{"coords": "-74.0060 40.7128"}, 40.7128, -74.006, true},
		{"wkt point", domain.Record{"location": "POINT (-74.0060 40.7128)"}, 40.7128, -74.006, true},
		{"wkt lowercase", domain.Record{"the_geom": "point(-74.0060 40.7128)"}, 40.7128, -74.006, true},
		{"ambiguous pair falls through", domain.Record{"location": "(5.5, 6.5)", "point": "(40.7128, -74.0060)"}, 40.7128, -74.006, true},
		{"only latitude", domain.Record{"latitude": "40.7"}, 0, 0, false},
		{"garbage", domain.Record{"latitude": "n/a", "longitude": "n/a"}, 0, 0, false},
		{"empty record", domain.Record{}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, ok := ex.Extract(tt.rec)
			require.Equal(t, tt.resolve, ok)
			if ok {
				assert.InDelta(t, tt.lat, lat, 1e-9)
				assert.InDelta(t, tt.lon, lon, 1e-9)
			}
		})
	}
}

func TestResolve_CountsNeverExceedInput(t *testing.T) {
	records := []domain.Record{
		crashAt("1", 40.7, -73.9, 0, 0),
		crashAt("1", 40.7, -73.9, 0, 0),
		{"latitude": "51.5", "longitude": "-0.12"},
		{"borough": "QUEENS"},
		crashAt("2", 40.8, -73.8, 1, 0),
	}

	res := Resolve(records, opts(1500))
	assert.Equal(t, 5, res.TotalInput)
	assert.Equal(t, 2, res.TotalValid)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.OutOfBounds)
	assert.Equal(t, 1, res.Unresolved)
	assert.LessOrEqual(t, res.TotalValid, res.TotalInput)
	assert.LessOrEqual(t, len(res.Points), res.TotalValid)
}

func TestResolve_DuplicateCollisionFirstWins(t *testing.T) {
	records := []domain.Record{
		crashAt("42", 40.70, -73.90, 1, 0),
		crashAt("42", 40.75, -73.95, 0, 1),
	}

	res := Resolve(records, opts(1500))
	require.Len(t, res.Points, 1)
	assert.Equal(t, "42", res.Points[0].CollisionID)
	assert.Equal(t, 40.70, res.Points[0].Lat)
	assert.Equal(t, 1, res.Points[0].Injured)
}

func TestResolve_CoordinateDedupWithoutID(t *testing.T) {
	a := domain.Record{"latitude": "40.7000001", "longitude": "-73.9", "crash_datetime": "2023-01-01 08:00:00"}
	b := domain.Record{"latitude": "40.7000004", "longitude": "-73.9", "crash_datetime": "2023-01-01 17:30:00"}
	c := domain.Record{"latitude": "40.7000001", "longitude": "-73.9", "crash_datetime": "2023-01-02 08:00:00"}

	res := Resolve([]domain.Record{a, b, c}, opts(1500))
	assert.Equal(t, 2, res.TotalValid)
	assert.Equal(t, "2023-01-01", res.Points[0].DateKey)
	assert.Equal(t, "2023-01-02", res.Points[1].DateKey)
}

func TestResolve_CombinedFieldsMatchSeparateFields(t *testing.T) {
	separate := Resolve([]domain.Record{{"Latitude": "40.7128", "Longitude": "-74.0060"}}, opts(10))
	pair := Resolve([]domain.Record{{"location": "(40.7128, -74.0060)"}}, opts(10))
	wkt := Resolve([]domain.Record{{"location": "POINT (-74.0060 40.7128)"}}, opts(10))

	require.Len(t, separate.Points, 1)
	require.Len(t, pair.Points, 1)
	require.Len(t, wkt.Points, 1)

	ignoreSource := cmpopts.IgnoreFields(domain.GeoPoint{}, "Source")
	assert.Empty(t, cmp.Diff(separate.Points, pair.Points, ignoreSource))
	assert.Empty(t, cmp.Diff(separate.Points, wkt.Points, ignoreSource))
}

func TestResolve_RejectsOutsideRegion(t *testing.T) {
	res := Resolve([]domain.Record{
		{"latitude": "51.5", "longitude": "-74.0", "collision_id": "london"},
	}, opts(1500))
	assert.Equal(t, 0, res.TotalValid)
	assert.Equal(t, 1, res.OutOfBounds)
	assert.NotNil(t, res.Points)
	assert.Empty(t, res.Points)
}

func TestResolve_EmptyInputIsNotNil(t *testing.T) {
	res := Resolve(nil, Options{})
	assert.NotNil(t, res.Points)
	assert.Equal(t, 0, res.TotalInput)
}

func TestResolve_SeverityPriority(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 15; i++ {
		records = append(records, crashAt(fmt.Sprintf("s%d", i), 40.6+float64(i)*0.001, -73.9, 1, 0))
	}
	for i := 0; i < 50; i++ {
		records = append(records, crashAt(fmt.Sprintf("b%d", i), 40.7+float64(i)*0.001, -73.9, 0, 0))
	}

	res := Resolve(records, opts(10))
	require.Len(t, res.Points, 10)
	for i, p := range res.Points {
		assert.True(t, p.Severe())
		assert.Equal(t, fmt.Sprintf("s%d", i), p.CollisionID)
	}
	assert.Equal(t, 65, res.TotalValid)
}

func TestResolve_MixedSampling(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 50; i++ {
		records = append(records, crashAt(fmt.Sprintf("b%d", i), 40.7+float64(i)*0.001, -73.9, 0, 0))
		if i < 4 {
			records = append(records, crashAt(fmt.Sprintf("s%d", i), 40.6+float64(i)*0.001, -73.9, 0, 1))
		}
	}

	res := Resolve(records, opts(10))
	require.Len(t, res.Points, 10)

	var ids []string
	for _, p := range res.Points {
		ids = append(ids, p.CollisionID)
	}
	assert.Equal(t, []string{"s0", "s1", "s2", "s3", "b0", "b8", "b16", "b24", "b32", "b40"}, ids)
}

func TestResolve_Idempotent(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 3000; i++ {
		records = append(records, crashAt(fmt.Sprintf("%d", i%2500), 40.5+float64(i%500)*0.001, -73.9, i%7/6, i%31/30))
	}

	first := Resolve(records, opts(1500))
	second := Resolve(records, opts(1500))
	assert.Empty(t, cmp.Diff(first, second))
	assert.LessOrEqual(t, len(first.Points), 1500)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{"", 0},
		{"3", 3},
		{"2 persons", 2},
		{2.9, 2},
		{int64(4), 4},
		{"abc", 0},
		{1e20, math.MaxInt32},
		{-1e20, math.MinInt32},
		{"99999999999999999999", math.MaxInt32},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, parseCount(tt.in))
		})
	}
}

func TestResolve_HugeCountStaysSevere(t *testing.T) {
	rec := crashAt("big", 40.7, -73.9, 0, 0)
	rec["number_of_persons_killed"] = 1e20

	res := Resolve([]domain.Record{rec}, opts(1500))
	require.Len(t, res.Points, 1)
	assert.True(t, res.Points[0].Severe())
	assert.Equal(t, "red", MarkerColor(res.Points[0]))
}

func TestSample_NonPositiveCap(t *testing.T) {
	points := []domain.GeoPoint{{Lat: 40.7, Lon: -73.9}, {Lat: 40.8, Lon: -73.8}}

	for _, max := range []int{0, -1} {
		got := Sample(points, max)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDedupKey_RoundsTiesAwayFromZero(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{40.0078125, -74.0078125, "coord:40.007813|-74.007813|2023-01-01"},
		{40.7, -73.9, "coord:40.700000|-73.900000|2023-01-01"},
		{40.12345649, -73.0000004, "coord:40.123456|-73.000000|2023-01-01"},
		{0.0000001, -0.0000001, "coord:0.000000|-0.000000|2023-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p := domain.GeoPoint{Lat: tt.lat, Lon: tt.lon, DateKey: "2023-01-01"}
			assert.Equal(t, tt.want, DedupKey(p))
		})
	}
}
