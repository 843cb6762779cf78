package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// recordScalar passes crash records through as JSON objects.
var recordScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Record",
	Description: "A crash record as a JSON object keyed by column name",
	Serialize: func(value interface{}) interface{} {
		return value
	},
	ParseValue: func(value interface{}) interface{} {
		return value
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return nil
	},
})

// filtersFromArgs converts the "filter" input object into domain filters.
func filtersFromArgs(args map[string]interface{}) domain.Filters {
	var f domain.Filters
	in, ok := args["filter"].(map[string]interface{})
	if !ok {
		return f
	}
	for _, key := range domain.FilterKeys {
		raw, ok := in[key].([]interface{})
		if !ok {
			continue
		}
		values := make(domain.StringList, 0, len(raw))
		for _, v := range raw {
			if v != nil {
				values = append(values, domain.Stringify(v))
			}
		}
		f.SetList(key, values)
	}
	if s, ok := in["search"].(string); ok {
		f.Search = s
	}
	return f
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	stringList := graphql.NewList(graphql.String)

	filterInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "FilterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			domain.FilterBorough:            &graphql.InputObjectFieldConfig{Type: stringList},
			domain.FilterYear:               &graphql.InputObjectFieldConfig{Type: stringList},
			domain.FilterVehicleType:        &graphql.InputObjectFieldConfig{Type: stringList},
			domain.FilterContributingFactor: &graphql.InputObjectFieldConfig{Type: stringList},
			domain.FilterInjuryType:         &graphql.InputObjectFieldConfig{Type: stringList},
			"search":                        &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	filterOptionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FilterOptions",
		Fields: graphql.Fields{
			"boroughs":             &graphql.Field{Type: stringList},
			"years":                &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"vehicle_types":        &graphql.Field{Type: stringList},
			"contributing_factors": &graphql.Field{Type: stringList},
			"injury_types":         &graphql.Field{Type: stringList},
		},
	})

	crashPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CrashPage",
		Fields: graphql.Fields{
			"total":   &graphql.Field{Type: graphql.Int},
			"offset":  &graphql.Field{Type: graphql.Int},
			"limit":   &graphql.Field{Type: graphql.Int},
			"records": &graphql.Field{Type: graphql.NewList(recordScalar)},
		},
	})

	mapViewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"lat":               &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"lon":               &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"sizes":             &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"colors":            &graphql.Field{Type: stringList},
			"labels":            &graphql.Field{Type: stringList},
			"text":              &graphql.Field{Type: stringList},
			"show_labels":       &graphql.Field{Type: graphql.Boolean},
			"total_data":        &graphql.Field{Type: graphql.Int},
			"total_points":      &graphql.Field{Type: graphql.Int},
			"available_columns": &graphql.Field{Type: stringList},
			"generated_at":      &graphql.Field{Type: graphql.DateTime},
		},
	})

	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyCrash",
		Fields: graphql.Fields{
			"lat":          &graphql.Field{Type: graphql.Float},
			"lon":          &graphql.Field{Type: graphql.Float},
			"injured":      &graphql.Field{Type: graphql.Int},
			"killed":       &graphql.Field{Type: graphql.Int},
			"collision_id": &graphql.Field{Type: graphql.String},
			"date":         &graphql.Field{Type: graphql.String},
			"distance":     &graphql.Field{Type: graphql.Float},
		},
	})

	categoryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CategoryCount",
		Fields: graphql.Fields{
			"label": &graphql.Field{Type: graphql.String},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	timelineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MonthlySeries",
		Fields: graphql.Fields{
			"months":  &graphql.Field{Type: stringList},
			"crashes": &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"injured": &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"killed":  &graphql.Field{Type: graphql.NewList(graphql.Float)},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Summary",
		Fields: graphql.Fields{
			"rows":              &graphql.Field{Type: graphql.Int},
			"unique_collisions": &graphql.Field{Type: graphql.Int},
			"injured":           &graphql.Field{Type: graphql.Int},
			"killed":            &graphql.Field{Type: graphql.Int},
			"monthly_mean":      &graphql.Field{Type: graphql.Float},
			"monthly_std_dev":   &graphql.Field{Type: graphql.Float},
		},
	})

	filterArg := &graphql.ArgumentConfig{Type: filterInput}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"filterOptions": &graphql.Field{
				Type:        filterOptionsType,
				Description: "Dropdown choices of the loaded dataset",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Dataset.Options(p.Context)
				},
			},
			"crashes": &graphql.Field{
				Type:        crashPageType,
				Description: "Page through filtered crash records",
				Args: graphql.FieldConfigArgument{
					"filter": filterArg,
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					if offset < 0 {
						offset = 0
					}
					if limit <= 0 || limit > 1000 {
						limit = 100
					}
					records, total, err := deps.Dataset.Page(p.Context, filtersFromArgs(p.Args), offset, limit)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"total":   total,
						"offset":  offset,
						"limit":   limit,
						"records": records,
					}, nil
				},
			},
			"mapView": &graphql.Field{
				Type:        mapViewType,
				Description: "Resolved, deduplicated and sampled map markers",
				Args: graphql.FieldConfigArgument{
					"filter":    filterArg,
					"maxPoints": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Maps.View(p.Context, filtersFromArgs(p.Args), p.Args["maxPoints"].(int))
				},
			},
			"nearby": &graphql.Field{
				Type:        graphql.NewList(nearbyType),
				Description: "Crashes within a radius of a location, closest first",
				Args: graphql.FieldConfigArgument{
					"filter": filterArg,
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					points, err := deps.Maps.Nearby(p.Context, filtersFromArgs(p.Args),
						p.Args["lat"].(float64), p.Args["lon"].(float64),
						p.Args["radius"].(float64), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(points))
					for i, np := range points {
						out[i] = map[string]interface{}{
							"lat":          np.Lat,
							"lon":          np.Lon,
							"injured":      np.Injured,
							"killed":       np.Killed,
							"collision_id": np.CollisionID,
							"date":         np.DateKey,
							"distance":     np.Distance,
						}
					}
					return out, nil
				},
			},
			"boroughCounts": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Args: graphql.FieldConfigArgument{"filter": filterArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Charts.Borough(p.Context, filtersFromArgs(p.Args))
				},
			},
			"topFactors": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Args: graphql.FieldConfigArgument{
					"filter": filterArg,
					"n":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Charts.Factors(p.Context, filtersFromArgs(p.Args), p.Args["n"].(int))
				},
			},
			"vehicleShare": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Args: graphql.FieldConfigArgument{"filter": filterArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Charts.Vehicles(p.Context, filtersFromArgs(p.Args))
				},
			},
			"timeline": &graphql.Field{
				Type: timelineType,
				Args: graphql.FieldConfigArgument{"filter": filterArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Charts.Timeline(p.Context, filtersFromArgs(p.Args))
				},
			},
			"summary": &graphql.Field{
				Type: summaryType,
				Args: graphql.FieldConfigArgument{"filter": filterArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Charts.Summary(p.Context, filtersFromArgs(p.Args))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
