package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const sensorTypeAssetTypePath = "/api/setting/sensorTypeAssetType"

// Authorizer supplies the Authorization header value for each request.
type Authorizer interface {
	Header(ctx context.Context) (string, error)
}

// Client talks to the platform settings API.
type Client struct {
	base string
	auth Authorizer
	http *http.Client
	log  *zap.Logger
}

// NewClient builds a Client for the given instance URL.
func NewClient(instanceURL string, auth Authorizer, log *zap.Logger) *Client {
	return &Client{
		base: strings.TrimRight(instanceURL, "/"),
		auth: auth,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log.With(zap.String("module", "api")),
	}
}

// do issues one JSON request. A nil out skips response decoding.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	header, err := c.auth.Header(ctx)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("token: %w", err)}
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug("request", zap.String("method", method), zap.String("path", path))
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &TransportError{Op: op, Status: resp.StatusCode}
		if te.Transient() {
			return te
		}
		rej := &RemoteRejection{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		// Batch endpoints report per-record verdicts on rejection.
		var br BatchResult
		if json.Unmarshal(raw, &br) == nil && len(br.Results) > 0 {
			rej.Result = &br
		}
		return rej
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// ListDefinitions returns all definitions for a protocol.
func (c *Client) ListDefinitions(ctx context.Context, proto Protocol) ([]Definition, error) {
	var out []Definition
	err := c.do(ctx, "list definitions", http.MethodGet, proto.definitionPath(), nil, nil, &out)
	return out, err
}

// GetDefinition fetches one definition by id.
func (c *Client) GetDefinition(ctx context.Context, proto Protocol, definitionID string) (Definition, error) {
	var out Definition
	err := c.do(ctx, "get definition", http.MethodGet,
		proto.definitionPath()+"/"+url.PathEscape(definitionID), nil, nil, &out)
	return out, err
}

// AddDefinition creates a new definition and returns the platform's copy.
func (c *Client) AddDefinition(ctx context.Context, proto Protocol, name, assetType string) (Definition, error) {
	in := Definition{Name: name, AssetType: assetType}
	var out Definition
	err := c.do(ctx, "add definition", http.MethodPost, proto.definitionPath(), nil, in, &out)
	return out, err
}

// ListNumericSensors returns the numeric sensors of a definition.
func (c *Client) ListNumericSensors(ctx context.Context, proto Protocol, definitionID string) ([]NumericSensor, error) {
	var out []NumericSensor
	err := c.do(ctx, "list numeric sensors", http.MethodGet,
		c.sensorPath(proto, ClassNumeric, definitionID), nil, nil, &out)
	return out, err
}

// ListNonNumericSensors returns the non-numeric sensors of a definition.
func (c *Client) ListNonNumericSensors(ctx context.Context, proto Protocol, definitionID string) ([]NonNumericSensor, error) {
	var out []NonNumericSensor
	err := c.do(ctx, "list non-numeric sensors", http.MethodGet,
		c.sensorPath(proto, ClassNonNumeric, definitionID), nil, nil, &out)
	return out, err
}

// ListSensorTypes returns the sensor types valid for an asset type and
// value type. An empty assetTypeID queries the whole catalog.
func (c *Client) ListSensorTypes(ctx context.Context, assetTypeID, valueType string) ([]SensorType, error) {
	q := url.Values{}
	if assetTypeID != "" {
		q.Set("assetTypeId", assetTypeID)
	}
	if valueType != "" {
		q.Set("sensorTypeValueType", valueType)
	}
	var out []SensorType
	err := c.do(ctx, "list sensor types", http.MethodGet, sensorTypeAssetTypePath, q, nil, &out)
	return out, err
}

// SubmitNumericBatch submits one batch of numeric sensors. Records with an
// id are updated, the rest are created.
func (c *Client) SubmitNumericBatch(ctx context.Context, proto Protocol, definitionID string, sensors []NumericSensor) (BatchResult, error) {
	var out BatchResult
	err := c.do(ctx, "submit numeric batch", http.MethodPost,
		c.sensorPath(proto, ClassNumeric, definitionID)+"/batch", nil, sensors, &out)
	return out, err
}

// SubmitNonNumericBatch submits one batch of non-numeric sensors.
func (c *Client) SubmitNonNumericBatch(ctx context.Context, proto Protocol, definitionID string, sensors []NonNumericSensor) (BatchResult, error) {
	var out BatchResult
	err := c.do(ctx, "submit non-numeric batch", http.MethodPost,
		c.sensorPath(proto, ClassNonNumeric, definitionID)+"/batch", nil, sensors, &out)
	return out, err
}

func (c *Client) sensorPath(proto Protocol, class SensorClass, definitionID string) string {
	return proto.definitionPath() + "/" + proto.sensorSegment(class) + "/" + url.PathEscape(definitionID)
}
