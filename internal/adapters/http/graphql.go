package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

var errArchiveUnavailable = errors.New("archive not available")

// buildSchema creates the GraphQL read schema wired to our services.
// Analysis stays REST-only; GraphQL mirrors the archive and watchpoint reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	assessmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Assessment",
		Fields: graphql.Fields{
			"id":                  &graphql.Field{Type: graphql.String},
			"source":              &graphql.Field{Type: graphql.String},
			"risk_level":          &graphql.Field{Type: graphql.String},
			"factors":             &graphql.Field{Type: graphql.NewList(graphql.String)},
			"recommendations":     &graphql.Field{Type: graphql.NewList(graphql.String)},
			"historical_context":  &graphql.Field{Type: graphql.String},
			"elevation":           &graphql.Field{Type: graphql.Float},
			"distance_from_water": &graphql.Field{Type: graphql.Float},
			"analysis":            &graphql.Field{Type: graphql.String},
			"location":            &graphql.Field{Type: geoPointType},
			"model":               &graphql.Field{Type: graphql.String},
		},
	})

	watchpointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Watchpoint",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"name":            &graphql.Field{Type: graphql.String},
			"location":        &graphql.Field{Type: geoPointType},
			"last_risk_level": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"recentAssessments": &graphql.Field{
				Type:        graphql.NewList(assessmentType),
				Description: "Archived assessments, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.History == nil {
						return nil, errArchiveUnavailable
					}
					limit := p.Args["limit"].(int)
					items, _, err := deps.History.ListRecent(p.Context, limit, 0)
					return items, err
				},
			},
			"assessment": &graphql.Field{
				Type:        assessmentType,
				Description: "Get an archived assessment by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.History == nil {
						return nil, errArchiveUnavailable
					}
					id := p.Args["id"].(string)
					return deps.History.GetByID(p.Context, id)
				},
			},
			"watchpoints": &graphql.Field{
				Type:        graphql.NewList(watchpointType),
				Description: "All registered watchpoints",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Watchpoints == nil {
						return nil, errArchiveUnavailable
					}
					return deps.Watchpoints.List(p.Context)
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
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
