package grid

import (
	"context"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type IntrospectionShape string

const (
	ShapeObjectFields IntrospectionShape = "objectFields"
	ShapeInputFields  IntrospectionShape = "inputFields"
	ShapeEnumValues   IntrospectionShape = "enumValues"
)

type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *TypeRef `json:"ofType,omitempty"`
}

// NamedType resolves through NON_NULL/LIST wrappers to the first named type.
func (t TypeRef) NamedType() string {
	for cur := &t; cur != nil; cur = cur.OfType {
		if cur.Name != "" {
			return cur.Name
		}
	}
	return ""
}

type FieldInfo struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

type EnumValue struct {
	Name string `json:"name"`
}

type TypeInfo struct {
	Name        string      `json:"name"`
	Fields      []FieldInfo `json:"fields,omitempty"`
	InputFields []FieldInfo `json:"inputFields,omitempty"`
	EnumValues  []EnumValue `json:"enumValues,omitempty"`
}

const typeRefFields = `
	type {
		kind
		name
		ofType {
			kind
			name
			ofType {
				kind
				name
			}
		}
	}
`

// Each query carries exactly one __type selection; GRID rejects requests
// with more than one introspection root.
func introspectionQuery(name string, shape IntrospectionShape) string {
	switch shape {
	case ShapeObjectFields:
		return fmt.Sprintf(`query Introspect%[1]s { __type(name: "%[1]s") { name fields { name %[2]s } } }`, name, typeRefFields)
	case ShapeInputFields:
		return fmt.Sprintf(`query Introspect%[1]s { __type(name: "%[1]s") { name inputFields { name %[2]s } } }`, name, typeRefFields)
	default:
		return fmt.Sprintf(`query Introspect%[1]s { __type(name: "%[1]s") { name enumValues { name } } }`, name)
	}
}

// IntrospectType returns the schema description of one type, read through
// the introspection cache.
func (c *Client) IntrospectType(ctx context.Context, name string, shape IntrospectionShape) (TypeInfo, error) {
	key := name + ":" + string(shape)

	var cached TypeInfo
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	var resp struct {
		Type *TypeInfo `json:"__type"`
	}
	if err := c.runCentral(ctx, "introspect "+name, c.newRequest(introspectionQuery(name, shape)), &resp); err != nil {
		return TypeInfo{}, &IntrospectionError{Which: name, Err: err}
	}
	if resp.Type == nil {
		return TypeInfo{}, &IntrospectionError{Which: name, Err: crerr.Newf("type %s not found in schema", name)}
	}

	if err := c.cache.Set(ctx, key, resp.Type, introspectionTTL); err != nil {
		c.logger.Warn("failed to cache introspection result", zap.String("key", key), zap.Error(err))
	}
	return *resp.Type, nil
}

func (c *Client) ClearIntrospectionCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

type SeriesTypes struct {
	Series        TypeInfo `json:"seriesType"`
	SeriesFilter  TypeInfo `json:"seriesFilter"`
	SeriesOrderBy TypeInfo `json:"seriesOrderBy"`
}

// IntrospectSeriesTypes fetches Series, SeriesFilter and SeriesOrderBy as
// three separate single-type requests.
func (c *Client) IntrospectSeriesTypes(ctx context.Context) (SeriesTypes, error) {
	var out SeriesTypes

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		t, err := c.IntrospectType(ctx, "Series", ShapeObjectFields)
		out.Series = t
		return err
	})
	p.Go(func(ctx context.Context) error {
		t, err := c.IntrospectType(ctx, "SeriesFilter", ShapeInputFields)
		out.SeriesFilter = t
		return err
	})
	p.Go(func(ctx context.Context) error {
		t, err := c.IntrospectType(ctx, "SeriesOrderBy", ShapeEnumValues)
		out.SeriesOrderBy = t
		return err
	})

	if err := p.Wait(); err != nil {
		return SeriesTypes{}, err
	}
	return out, nil
}

// SchemaFields are the names discovery relies on, as the live schema spells them.
type SchemaFields struct {
	SeriesStartField      string `json:"seriesStartField"`
	FilterStartField      string `json:"filterStartField"`
	FilterTournamentField string `json:"filterTournamentField"`
	FilterTitleField      string `json:"filterTitleField"`
	OrderByStart          string `json:"orderByStart"`
}

func DefaultSchemaFields() SchemaFields {
	return SchemaFields{
		SeriesStartField:      "startTimeScheduled",
		FilterStartField:      "startTimeScheduled",
		FilterTournamentField: "tournament",
		FilterTitleField:      "titleId",
		OrderByStart:          "StartTimeScheduled",
	}
}

// ExtractSchemaFields matches candidate names case-insensitively, keeping
// the default for anything the schema does not expose.
func ExtractSchemaFields(types SeriesTypes) SchemaFields {
	def := DefaultSchemaFields()
	return SchemaFields{
		SeriesStartField:      findField(types.Series.Fields, def.SeriesStartField, "startTimeScheduled", "startDate", "start"),
		FilterStartField:      findField(types.SeriesFilter.InputFields, def.FilterStartField, "startTimeScheduled", "startDate", "start"),
		FilterTournamentField: findField(types.SeriesFilter.InputFields, def.FilterTournamentField, "tournament", "tournamentId"),
		FilterTitleField:      findField(types.SeriesFilter.InputFields, def.FilterTitleField, "titleId", "title"),
		OrderByStart:          findEnum(types.SeriesOrderBy.EnumValues, def.OrderByStart, "StartTimeScheduled", "START_DATE", "startDate"),
	}
}

func findField(fields []FieldInfo, fallback string, candidates ...string) string {
	for _, candidate := range candidates {
		for _, f := range fields {
			if strings.EqualFold(f.Name, candidate) {
				return f.Name
			}
		}
	}
	return fallback
}

func findEnum(values []EnumValue, fallback string, candidates ...string) string {
	for _, candidate := range candidates {
		for _, v := range values {
			if strings.EqualFold(v.Name, candidate) {
				return v.Name
			}
		}
	}
	return fallback
}
