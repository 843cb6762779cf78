package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

func sampleRecords() []domain.Record {
	return []domain.Record{
		{
			"collision_id": "1", "borough": "Brooklyn", "year": 2021,
			"vehicle_type_code_1": "Sedan", "contributing_factor_vehicle_1": "Unsafe Speed",
			"number_of_persons_injured": 1, "number_of_persons_killed": 0,
			"on_street_name": "ATLANTIC AVENUE",
		},
		{
			"collision_id": "2", "borough": "Queens", "year": int64(2022),
			"vehicle_type_code_1": nil, "vehicle_type_code_2": "Taxi",
			"contributing_factor_vehicle_2": "Unsafe Speed",
			"number_of_persons_injured": 0, "number_of_persons_killed": 1,
		},
		{
			"collision_id": "3", "borough": "Brooklyn", "year": 2022.0,
			"vehicle_type_code_1": "Bus", "contributing_factor_vehicle_1": "Backing Unsafely",
			"number_of_persons_injured": 0, "number_of_persons_killed": 0,
			"cross_street_name": "FLATBUSH AVENUE",
		},
	}
}

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.String("collision_id"))
	}
	return out
}

func TestApply(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name string
		f    domain.Filters
		want []string
	}{
		{"no filters", domain.Filters{}, []string{"1", "2", "3"}},
		{"borough", domain.Filters{Borough: domain.StringList{"Brooklyn"}}, []string{"1", "3"}},
		{"year across numeric types", domain.Filters{Year: domain.StringList{"2022"}}, []string{"2", "3"}},
		{"vehicle falls back to code 2", domain.Filters{VehicleType: domain.StringList{"Taxi"}}, []string{"2"}},
		{"factor in either column", domain.Filters{ContributingFactor: domain.StringList{"Unsafe Speed"}}, []string{"1", "2"}},
		{"injury or", domain.Filters{InjuryType: domain.StringList{"Injured", "Killed"}}, []string{"1", "2"}},
		{"injury none", domain.Filters{InjuryType: domain.StringList{"None"}}, []string{"3"}},
		{"search any word", domain.Filters{Search: "atlantic flatbush"}, []string{"1", "3"}},
		{"search no match", domain.Filters{Search: "broadway"}, []string{}},
		{"combined", domain.Filters{Borough: domain.StringList{"Brooklyn"}, Year: domain.StringList{"2021"}}, []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(records, tt.f)))
		})
	}
}

func TestApply_SkipsMissingColumns(t *testing.T) {
	records := []domain.Record{{"collision_id": "1"}, {"collision_id": "2"}}
	got := Apply(records, domain.Filters{
		Borough:     domain.StringList{"Queens"},
		VehicleType: domain.StringList{"Sedan"},
	})
	assert.Len(t, got, 2)
}

func TestParseSearch(t *testing.T) {
	f := ParseSearch("Brooklyn 2021 pedestrian crashes")
	assert.Equal(t, domain.StringList{"Brooklyn"}, f.Borough)
	assert.Equal(t, domain.StringList{"2021"}, f.Year)
	assert.Equal(t, domain.StringList{"Pedestrian"}, f.VehicleType)
	assert.Empty(t, f.InjuryType)
	assert.Empty(t, f.Search)

	f = ParseSearch("fatal SUV speeding in the bronx")
	assert.Equal(t, domain.StringList{"Bronx"}, f.Borough)
	assert.Equal(t, domain.StringList{"Killed"}, f.InjuryType)
	assert.Equal(t, domain.StringList{"Station Wagon/Sport Utility Vehicle"}, f.VehicleType)
	assert.Equal(t, domain.StringList{"Unsafe Speed"}, f.ContributingFactor)

	assert.Equal(t, domain.Filters{}, ParseSearch("   "))
}

func TestMergeSearch(t *testing.T) {
	merged := MergeSearch(domain.Filters{
		Borough: domain.StringList{"Queens"},
		Search:  "  brooklyn 2020 taxi ",
	})
	assert.Equal(t, domain.StringList{"Queens"}, merged.Borough)
	assert.Equal(t, domain.StringList{"2020"}, merged.Year)
	assert.Equal(t, domain.StringList{"Taxi"}, merged.VehicleType)
	assert.Equal(t, "brooklyn 2020 taxi", merged.Search)

	empty := MergeSearch(domain.Filters{Search: "  "})
	assert.Equal(t, "", empty.Search)
	assert.False(t, empty.HasStructured())
}

func TestOptions(t *testing.T) {
	opts := Options(sampleRecords())
	assert.Equal(t, []string{"Brooklyn", "Queens"}, opts.Boroughs)
	assert.Equal(t, []int{2021, 2022}, opts.Years)
	assert.Equal(t, []string{"Bus", "Sedan"}, opts.VehicleTypes)
	assert.Equal(t, []string{"Backing Unsafely", "Unsafe Speed"}, opts.ContributingFactors)
	assert.Equal(t, []string{"Injured", "Killed", "None"}, opts.InjuryTypes)

	bare := Options([]domain.Record{{"borough": "Queens"}})
	require.NotNil(t, bare.InjuryTypes)
	assert.Empty(t, bare.InjuryTypes)
	assert.Empty(t, bare.Years)
}
