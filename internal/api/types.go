package api

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol selects which definition family an operation targets.
type Protocol string

const (
	ProtocolBACnet Protocol = "bacnet"
	ProtocolModbus Protocol = "modbus"
)

// ParseProtocol validates a --protocol flag value.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(strings.ToLower(strings.TrimSpace(s))) {
	case ProtocolBACnet:
		return ProtocolBACnet, nil
	case ProtocolModbus:
		return ProtocolModbus, nil
	}
	return "", fmt.Errorf("unknown protocol %q (expected bacnet or modbus)", s)
}

// definitionPath returns the settings path for a protocol's definitions.
func (p Protocol) definitionPath() string {
	if p == ProtocolModbus {
		return "/api/setting/modbusTcpDefinitions"
	}
	return "/api/setting/bacnetIpDefinitions"
}

// sensorSegment returns the path segment for a sensor class under a
// protocol, e.g. "bacnetIpNumericSensors".
func (p Protocol) sensorSegment(class SensorClass) string {
	prefix := "bacnetIp"
	if p == ProtocolModbus {
		prefix = "modbusTcp"
	}
	if class == ClassNonNumeric {
		return prefix + "NonNumericSensors"
	}
	return prefix + "NumericSensors"
}

// SensorClass distinguishes numeric sensors from enumerated ones.
type SensorClass string

const (
	ClassNumeric    SensorClass = "numeric"
	ClassNonNumeric SensorClass = "non-numeric"
)

// ParseClass validates a --class flag value.
func ParseClass(s string) (SensorClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric":
		return ClassNumeric, nil
	case "non-numeric", "nonnumeric", "enum":
		return ClassNonNumeric, nil
	}
	return "", fmt.Errorf("unknown sensor class %q (expected numeric or non-numeric)", s)
}

// ValueType is the query value the platform expects for a sensor class.
func (c SensorClass) ValueType() string {
	if c == ClassNonNumeric {
		return "enum"
	}
	return "numeric"
}

// AssetTypes is the set of asset types the platform accepts for
// definitions.
var AssetTypes = []string{
	"BladeEnclosure", "BladeNetwork", "BladeServer", "BladeStorage",
	"Busway", "Camera", "Chiller", "Crac", "Crah", "Environmental",
	"FireControlPanel", "Generator", "InRowCooling", "KvmSwitch",
	"Location", "Monitor", "NetworkDevice", "NetworkStorage",
	"NodeServer", "PatchPanel", "PduAndRpp", "PowerMeter", "Rack",
	"RackPdu", "Server", "SmallUps", "TransferSwitch", "Ups",
	"VirtualServer",
}

// IsValidAssetType reports whether s is an accepted asset type.
func IsValidAssetType(s string) bool {
	for _, t := range AssetTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Definition is a named device template for one protocol.
type Definition struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AssetType        string `json:"assetType"`
	AssociatedAssets int    `json:"associatedAssets"`
}

func (d Definition) String() string {
	return fmt.Sprintf("id: %s\nname: %s\nasset type: %s\nassociated assets: %d",
		d.ID, d.Name, d.AssetType, d.AssociatedAssets)
}

func (d Definition) CSVHeader() []string {
	return []string{"id", "name", "assetType", "associatedAssets"}
}

func (d Definition) CSVRecord() []string {
	return []string{d.ID, d.Name, d.AssetType, strconv.Itoa(d.AssociatedAssets)}
}

// SensorType is a platform catalog entry describing a kind of
// measurement. Read-only from this tool's perspective.
type SensorType struct {
	ID                string `json:"sensorTypeId"`
	Description       string `json:"sensorDescription"`
	ParentType        string `json:"sensorParentType"`
	UnitID            string `json:"unitId"`
	Unit              string `json:"unitDescription"`
	AbbreviatedUnit   string `json:"abbreviatedUnit"`
	MinimumValidValue string `json:"minimumValidValue"`
	ManuallyCreatable bool   `json:"isManuallyCreatable"`
}

func (t SensorType) String() string {
	return fmt.Sprintf("id: %s\ndescription: %s\nunit id: %s\nunit: %s",
		t.ID, t.Description, t.UnitID, t.Unit)
}

func (t SensorType) CSVHeader() []string {
	return []string{"sensorTypeId", "sensorDescription", "sensorParentType", "unitId", "unitDescription"}
}

func (t SensorType) CSVRecord() []string {
	return []string{t.ID, t.Description, t.ParentType, t.UnitID, t.Unit}
}

// ValueMapping binds an enumerated state text to its raw value.
type ValueMapping struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

func (m ValueMapping) String() string {
	return fmt.Sprintf("%s:%d", m.Text, m.Value)
}

// EncodeValueMappings renders mappings in the compact CSV form used by
// sensor exports, e.g. "Low:0,High:1".
func EncodeValueMappings(ms []ValueMapping) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, ",")
}

// ParseValueMappings parses the compact CSV form back into mappings.
func ParseValueMappings(s string) ([]ValueMapping, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []ValueMapping
	for _, part := range strings.Split(s, ",") {
		i := strings.LastIndex(part, ":")
		if i <= 0 || i == len(part)-1 {
			return nil, fmt.Errorf("invalid value mapping %q (expected text:value)", part)
		}
		v, err := strconv.Atoi(strings.TrimSpace(part[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("invalid value mapping %q: %v", part, err)
		}
		out = append(out, ValueMapping{Text: strings.TrimSpace(part[:i]), Value: v})
	}
	return out, nil
}

// NumericSensor is the wire shape of a numeric sensor mapping. Addressing
// fields are protocol specific; unused ones stay empty.
type NumericSensor struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	SensorTypeID string  `json:"sensorTypeId"`
	SensorType   string  `json:"sensorType,omitempty"`
	Multiplier   float64 `json:"multiplier,omitempty"`
	Unit         string  `json:"unit,omitempty"`
	UnitID       string  `json:"unitId,omitempty"`

	// BACnet addressing
	ObjectType     string `json:"objectType,omitempty"`
	ObjectInstance uint32 `json:"objectInstance,omitempty"`

	// Modbus addressing
	RegisterType    string `json:"registerType,omitempty"`
	RegisterAddress uint32 `json:"registerAddress,omitempty"`
	FunctionCode    uint8  `json:"functionCode,omitempty"`
}

func (s NumericSensor) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "id: %s\nname: %s\nsensor type id: %s\nmultiplier: %g\nunit: %s", s.ID, s.Name, s.SensorTypeID, s.Multiplier, s.Unit)
	if s.ObjectType != "" {
		fmt.Fprintf(b, "\nobject type: %s\nobject instance: %d", s.ObjectType, s.ObjectInstance)
	}
	if s.RegisterType != "" {
		fmt.Fprintf(b, "\nregister type: %s\nregister address: %d\nfunction code: %d", s.RegisterType, s.RegisterAddress, s.FunctionCode)
	}
	return b.String()
}

func (s NumericSensor) CSVHeader() []string {
	return []string{"id", "name", "sensorTypeId", "multiplier", "unit", "unitId",
		"objectType", "objectInstance", "registerType", "registerAddress", "functionCode"}
}

func (s NumericSensor) CSVRecord() []string {
	return []string{s.ID, s.Name, s.SensorTypeID,
		strconv.FormatFloat(s.Multiplier, 'g', -1, 64), s.Unit, s.UnitID,
		s.ObjectType, strconv.FormatUint(uint64(s.ObjectInstance), 10),
		s.RegisterType, strconv.FormatUint(uint64(s.RegisterAddress), 10),
		strconv.FormatUint(uint64(s.FunctionCode), 10)}
}

// NonNumericSensor is the wire shape of an enumerated sensor mapping.
type NonNumericSensor struct {
	ID           string         `json:"id,omitempty"`
	Name         string         `json:"name"`
	SensorTypeID string         `json:"sensorTypeId"`
	SensorType   string         `json:"sensorType,omitempty"`
	ValueMapping []ValueMapping `json:"valueMapping"`

	ObjectType     string `json:"objectType,omitempty"`
	ObjectInstance uint32 `json:"objectInstance,omitempty"`

	RegisterType    string `json:"registerType,omitempty"`
	RegisterAddress uint32 `json:"registerAddress,omitempty"`
	FunctionCode    uint8  `json:"functionCode,omitempty"`
}

func (s NonNumericSensor) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "id: %s\nname: %s\nsensor type id: %s", s.ID, s.Name, s.SensorTypeID)
	if s.ObjectType != "" {
		fmt.Fprintf(b, "\nobject type: %s\nobject instance: %d", s.ObjectType, s.ObjectInstance)
	}
	if s.RegisterType != "" {
		fmt.Fprintf(b, "\nregister type: %s\nregister address: %d\nfunction code: %d", s.RegisterType, s.RegisterAddress, s.FunctionCode)
	}
	for _, m := range s.ValueMapping {
		fmt.Fprintf(b, "\n%s", m)
	}
	return b.String()
}

func (s NonNumericSensor) CSVHeader() []string {
	return []string{"id", "name", "sensorTypeId", "objectType", "objectInstance",
		"registerType", "registerAddress", "functionCode", "valueMapping"}
}

func (s NonNumericSensor) CSVRecord() []string {
	return []string{s.ID, s.Name, s.SensorTypeID,
		s.ObjectType, strconv.FormatUint(uint64(s.ObjectInstance), 10),
		s.RegisterType, strconv.FormatUint(uint64(s.RegisterAddress), 10),
		strconv.FormatUint(uint64(s.FunctionCode), 10),
		EncodeValueMappings(s.ValueMapping)}
}

// BatchRecordResult is the platform's per-record verdict inside a batch
// response.
type BatchRecordResult struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Committed reports whether the record was accepted by the platform.
func (r BatchRecordResult) Committed() bool {
	switch strings.ToLower(r.Status) {
	case "created", "updated", "committed", "ok":
		return true
	}
	return false
}

// BatchResult is the response to a batch submission. An empty Results
// slice means the platform committed the whole batch uniformly.
type BatchResult struct {
	Results []BatchRecordResult `json:"results"`
}
