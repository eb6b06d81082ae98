// Package importer implements the bulk sensor import pipeline: parse,
// validate, batch, execute, report.
package importer

import (
	"fmt"
	"strings"

	"github.com/edgeops/sensorctl/internal/api"
)

// CandidateSensorRecord is one operator-supplied row, parsed but not yet
// checked against the platform schema. It lives only for one run.
type CandidateSensorRecord struct {
	Row      int // 1-based data row number, header excluded
	Protocol api.Protocol
	Class    api.SensorClass

	ID           string
	Name         string
	SensorTypeID string

	// numeric metadata
	Multiplier float64
	Unit       string
	UnitID     string

	// BACnet addressing
	ObjectType     string
	ObjectInstance *uint32

	// Modbus addressing
	RegisterType    string
	RegisterAddress *uint32
	FunctionCode    uint8

	ValueMappings []api.ValueMapping
}

// AddressKey identifies the protocol point a record targets. Two records
// with the same key address the same point.
func (c CandidateSensorRecord) AddressKey() string {
	if c.Protocol == api.ProtocolModbus {
		addr := "-"
		if c.RegisterAddress != nil {
			addr = fmt.Sprint(*c.RegisterAddress)
		}
		return strings.ToLower(c.RegisterType) + ":" + addr
	}
	inst := "-"
	if c.ObjectInstance != nil {
		inst = fmt.Sprint(*c.ObjectInstance)
	}
	return strings.ToLower(c.ObjectType) + ":" + inst
}

// ValidatedSensorRecord is a candidate proven to reference a compatible
// sensor type and to satisfy the protocol's structural rules.
type ValidatedSensorRecord struct {
	CandidateSensorRecord
	SensorType api.SensorType
}

// NumericSensor converts the record to its wire shape.
func (r ValidatedSensorRecord) NumericSensor() api.NumericSensor {
	s := api.NumericSensor{
		ID:           r.ID,
		Name:         r.Name,
		SensorTypeID: r.SensorTypeID,
		SensorType:   r.SensorType.Description,
		Multiplier:   r.Multiplier,
		Unit:         r.Unit,
		UnitID:       r.UnitID,
	}
	if r.Protocol == api.ProtocolModbus {
		s.RegisterType = r.RegisterType
		if r.RegisterAddress != nil {
			s.RegisterAddress = *r.RegisterAddress
		}
		s.FunctionCode = r.FunctionCode
	} else {
		s.ObjectType = r.ObjectType
		if r.ObjectInstance != nil {
			s.ObjectInstance = *r.ObjectInstance
		}
	}
	return s
}

// NonNumericSensor converts the record to its wire shape.
func (r ValidatedSensorRecord) NonNumericSensor() api.NonNumericSensor {
	s := api.NonNumericSensor{
		ID:           r.ID,
		Name:         r.Name,
		SensorTypeID: r.SensorTypeID,
		SensorType:   r.SensorType.Description,
		ValueMapping: r.ValueMappings,
	}
	if r.Protocol == api.ProtocolModbus {
		s.RegisterType = r.RegisterType
		if r.RegisterAddress != nil {
			s.RegisterAddress = *r.RegisterAddress
		}
		s.FunctionCode = r.FunctionCode
	} else {
		s.ObjectType = r.ObjectType
		if r.ObjectInstance != nil {
			s.ObjectInstance = *r.ObjectInstance
		}
	}
	return s
}

// ParseError is a per-row parse failure. It never aborts the run.
type ParseError struct {
	Row   int
	Field string
	Err   error
}

func (e ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: field %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}
