package importer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/edgeops/sensorctl/internal/api"
)

// RejectionReason is the closed set of reasons a record can be refused
// locally. Remote refusals are reported separately by the executor.
type RejectionReason string

const (
	UnknownSensorType     RejectionReason = "unknown sensor type"
	IncompatibleAssetType RejectionReason = "incompatible asset type"
	DuplicateAddress      RejectionReason = "duplicate address"
	InvalidAddressRange   RejectionReason = "invalid address range"
	MissingRequiredField  RejectionReason = "missing required field"
)

// Rejection records why a candidate was excluded from every batch.
type Rejection struct {
	Record CandidateSensorRecord
	Reason RejectionReason
	Detail string
}

func (r Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// bacnetMaxInstance is the largest assignable BACnet object instance
// (22-bit field, top value reserved).
const bacnetMaxInstance = 4194302

var bacnetNumericObjects = map[string]bool{
	"analoginput": true, "analogoutput": true, "analogvalue": true,
}

var bacnetEnumObjects = map[string]bool{
	"binaryinput": true, "binaryoutput": true, "binaryvalue": true,
	"multistateinput": true, "multistateoutput": true, "multistatevalue": true,
}

// modbusFunctionCodes lists the codes accepted per register type; the
// first entry is the default read code.
var modbusFunctionCodes = map[string][]uint8{
	"holding":  {3, 6, 16},
	"input":    {4},
	"coil":     {1, 5, 15},
	"discrete": {2},
}

// Validator checks candidates against a resolved schema in a single
// stateful left-to-right pass. Duplicate detection spans the whole input
// set, so one Validator instance must see every record of a run, in
// order.
type Validator struct {
	schema *Schema
	seen   map[string]int // address key -> first row
}

// NewValidator builds a validator over one resolved schema.
func NewValidator(schema *Schema) *Validator {
	return &Validator{schema: schema, seen: make(map[string]int)}
}

// ValidateAll runs the full pass and partitions candidates into accepted
// records (input order preserved) and rejections. It never mutates remote
// state.
func ValidateAll(schema *Schema, candidates []CandidateSensorRecord) ([]ValidatedSensorRecord, []Rejection) {
	v := NewValidator(schema)
	var (
		accepted []ValidatedSensorRecord
		rejected []Rejection
	)
	for _, c := range candidates {
		rec, rej := v.Validate(c)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		accepted = append(accepted, rec)
	}
	return accepted, rejected
}

// Validate checks one candidate. A nil Rejection means the record is safe
// to batch. Records are checked in order: required fields, addressing
// structure, schema membership, then duplicates, so the reported reason
// is the first problem an operator should fix.
func (v *Validator) Validate(c CandidateSensorRecord) (ValidatedSensorRecord, *Rejection) {
	if rej := v.checkRequired(c); rej != nil {
		return ValidatedSensorRecord{}, rej
	}
	if rej := v.checkAddress(c); rej != nil {
		return ValidatedSensorRecord{}, rej
	}

	st, ok := v.schema.ForAsset[c.SensorTypeID]
	if !ok {
		if _, inCatalog := v.schema.Catalog[c.SensorTypeID]; inCatalog {
			return ValidatedSensorRecord{}, &Rejection{Record: c, Reason: IncompatibleAssetType,
				Detail: fmt.Sprintf("sensor type %s is not valid for asset type %s", c.SensorTypeID, v.schema.AssetType)}
		}
		return ValidatedSensorRecord{}, &Rejection{Record: c, Reason: UnknownSensorType,
			Detail: fmt.Sprintf("sensor type %s", c.SensorTypeID)}
	}

	key := c.AddressKey()
	if first, dup := v.seen[key]; dup {
		return ValidatedSensorRecord{}, &Rejection{Record: c, Reason: DuplicateAddress,
			Detail: fmt.Sprintf("same point as row %d (%s)", first, key)}
	}
	v.seen[key] = c.Row

	return ValidatedSensorRecord{CandidateSensorRecord: c, SensorType: st}, nil
}

func (v *Validator) checkRequired(c CandidateSensorRecord) *Rejection {
	if c.ID != "" {
		if _, err := uuid.Parse(c.ID); err != nil {
			return &Rejection{Record: c, Reason: MissingRequiredField,
				Detail: fmt.Sprintf("id %q is not a valid sensor id", c.ID)}
		}
	} else if c.Name == "" {
		return &Rejection{Record: c, Reason: MissingRequiredField, Detail: "name"}
	}
	if c.SensorTypeID == "" {
		return &Rejection{Record: c, Reason: MissingRequiredField, Detail: "sensorTypeId"}
	}
	if c.Class == api.ClassNonNumeric && len(c.ValueMappings) == 0 {
		return &Rejection{Record: c, Reason: MissingRequiredField, Detail: "valueMapping"}
	}

	switch c.Protocol {
	case api.ProtocolBACnet:
		if c.ObjectType == "" {
			return &Rejection{Record: c, Reason: MissingRequiredField, Detail: "objectType"}
		}
		if c.ObjectInstance == nil {
			return &Rejection{Record: c, Reason: MissingRequiredField, Detail: "objectInstance"}
		}
	case api.ProtocolModbus:
		if c.RegisterType == "" {
			return &Rejection{Record: c, Reason: MissingRequiredField, Detail: "registerType"}
		}
		if c.RegisterAddress == nil {
			return &Rejection{Record: c, Reason: MissingRequiredField, Detail: "registerAddress"}
		}
	}
	return nil
}

func (v *Validator) checkAddress(c CandidateSensorRecord) *Rejection {
	switch c.Protocol {
	case api.ProtocolBACnet:
		ot := strings.ToLower(c.ObjectType)
		allowed := bacnetNumericObjects
		if c.Class == api.ClassNonNumeric {
			allowed = bacnetEnumObjects
		}
		if !allowed[ot] {
			return &Rejection{Record: c, Reason: InvalidAddressRange,
				Detail: fmt.Sprintf("object type %q is not valid for %s sensors", c.ObjectType, c.Class)}
		}
		if *c.ObjectInstance > bacnetMaxInstance {
			return &Rejection{Record: c, Reason: InvalidAddressRange,
				Detail: fmt.Sprintf("object instance %d exceeds %d", *c.ObjectInstance, bacnetMaxInstance)}
		}
	case api.ProtocolModbus:
		codes, ok := modbusFunctionCodes[c.RegisterType]
		if !ok {
			return &Rejection{Record: c, Reason: InvalidAddressRange,
				Detail: fmt.Sprintf("unknown register type %q", c.RegisterType)}
		}
		if *c.RegisterAddress > 65535 {
			return &Rejection{Record: c, Reason: InvalidAddressRange,
				Detail: fmt.Sprintf("register address %d exceeds 65535", *c.RegisterAddress)}
		}
		if c.FunctionCode != 0 && !containsCode(codes, c.FunctionCode) {
			return &Rejection{Record: c, Reason: InvalidAddressRange,
				Detail: fmt.Sprintf("function code %d is not valid for %s registers", c.FunctionCode, c.RegisterType)}
		}
	}
	return nil
}

func containsCode(codes []uint8, c uint8) bool {
	for _, v := range codes {
		if v == c {
			return true
		}
	}
	return false
}
