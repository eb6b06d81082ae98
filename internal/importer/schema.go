package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/edgeops/sensorctl/internal/api"
)

// ErrSchemaUnavailable means the sensor-type schema could not be fetched.
// No record can be validated without it, so the whole import aborts.
var ErrSchemaUnavailable = errors.New("sensor type schema unavailable")

// SchemaSource is the slice of the API client the resolver needs.
type SchemaSource interface {
	GetDefinition(ctx context.Context, proto api.Protocol, definitionID string) (api.Definition, error)
	ListSensorTypes(ctx context.Context, assetTypeID, valueType string) ([]api.SensorType, error)
}

// Schema is the validation context for one (asset type, class) pair.
type Schema struct {
	AssetType string
	// ForAsset holds the sensor types valid for the asset type.
	ForAsset map[string]api.SensorType
	// Catalog holds every sensor type of the class, across asset types.
	// A reference found here but not in ForAsset is incompatible rather
	// than unknown.
	Catalog map[string]api.SensorType
}

// Resolver fetches and caches sensor-type schemas for the duration of one
// run. It is scoped to a single import so parallel runs stay isolated.
type Resolver struct {
	src SchemaSource
	log *zap.Logger

	mu      sync.Mutex
	schemas map[string]*Schema
	defs    map[string]api.Definition
}

// NewResolver builds a per-run resolver over src.
func NewResolver(src SchemaSource, log *zap.Logger) *Resolver {
	return &Resolver{
		src:     src,
		log:     log.With(zap.String("module", "schema")),
		schemas: make(map[string]*Schema),
		defs:    make(map[string]api.Definition),
	}
}

// DefinitionAssetType resolves a definition id to its asset type.
func (r *Resolver) DefinitionAssetType(ctx context.Context, proto api.Protocol, definitionID string) (string, error) {
	key := string(proto) + ":" + definitionID
	r.mu.Lock()
	def, ok := r.defs[key]
	r.mu.Unlock()
	if !ok {
		var err error
		def, err = r.src.GetDefinition(ctx, proto, definitionID)
		if err != nil {
			return "", fmt.Errorf("%w: definition %s: %v", ErrSchemaUnavailable, definitionID, err)
		}
		r.mu.Lock()
		r.defs[key] = def
		r.mu.Unlock()
	}
	return def.AssetType, nil
}

// Resolve returns the schema for an asset type and sensor class, fetching
// it at most once per run.
func (r *Resolver) Resolve(ctx context.Context, assetType string, class api.SensorClass) (*Schema, error) {
	key := assetType + ":" + class.ValueType()
	r.mu.Lock()
	s, ok := r.schemas[key]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	forAsset, err := r.src.ListSensorTypes(ctx, assetType, class.ValueType())
	if err != nil {
		return nil, fmt.Errorf("%w: asset type %s: %v", ErrSchemaUnavailable, assetType, err)
	}
	catalog, err := r.src.ListSensorTypes(ctx, "", class.ValueType())
	if err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", ErrSchemaUnavailable, err)
	}

	s = &Schema{
		AssetType: assetType,
		ForAsset:  indexTypes(forAsset),
		Catalog:   indexTypes(catalog),
	}
	r.log.Debug("schema resolved", zap.String("asset_type", assetType),
		zap.Int("for_asset", len(s.ForAsset)), zap.Int("catalog", len(s.Catalog)))

	r.mu.Lock()
	r.schemas[key] = s
	r.mu.Unlock()
	return s, nil
}

func indexTypes(types []api.SensorType) map[string]api.SensorType {
	m := make(map[string]api.SensorType, len(types))
	for _, t := range types {
		m[t.ID] = t
	}
	return m
}
