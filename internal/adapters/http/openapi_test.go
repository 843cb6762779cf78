package http_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/crashlens/api"
)

func loadDoc(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return doc
}

// TestOpenAPIDocument validates the embedded OpenAPI document.
func TestOpenAPIDocument(t *testing.T) {
	doc := loadDoc(t)

	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI document validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/api/filters",
		"/api/data",
		"/api/records",
		"/api/map",
		"/api/map/nearby",
		"/api/charts/{name}",
		"/",
		"/charts/{name}",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := doc.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in doc", path)
		}
	}

	expectedSchemas := []string{
		"Filters",
		"FilterOptions",
		"Record",
		"MapView",
		"NearbyCrash",
		"CategoryCount",
		"MonthlySeries",
		"Heatmap",
		"Summary",
		"APIError",
		"Pagination",
	}

	for _, schema := range expectedSchemas {
		if doc.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI document valid: %d paths, %d schemas", len(doc.Paths.Map()), len(doc.Components.Schemas))
}

// TestOpenAPIInfo verifies doc metadata.
func TestOpenAPIInfo(t *testing.T) {
	doc := loadDoc(t)

	if doc.Info.Title != "Crashlens API" {
		t.Errorf("expected title 'Crashlens API', got %q", doc.Info.Title)
	}

	if doc.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", doc.Info.Version)
	}

	if doc.Info.Description == "" {
		t.Error("expected non-empty description")
	}

	if len(doc.Servers) == 0 {
		t.Fatal("expected at least one server")
	}

	t.Logf("OpenAPI Info: %s v%s @ %s", doc.Info.Title, doc.Info.Version, doc.Servers[0].URL)
}

// TestOpenAPIMapColors keeps the documented marker colors in step with the
// resolver's palette.
func TestOpenAPIMapColors(t *testing.T) {
	doc := loadDoc(t)

	colors := doc.Components.Schemas["MapView"].Value.Properties["colors"].Value.Items.Value
	want := map[string]bool{"red": true, "orange": true, "yellow": true}
	if len(colors.Enum) != len(want) {
		t.Fatalf("expected %d colors, got %d", len(want), len(colors.Enum))
	}
	for _, c := range colors.Enum {
		if !want[c.(string)] {
			t.Errorf("unexpected color %v", c)
		}
	}
}
