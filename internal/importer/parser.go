package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/edgeops/sensorctl/internal/api"
)

// Parser reads operator CSV input for one protocol and sensor class.
// Parsing is maximally permissive: a malformed row produces a ParseError
// attached to its position and parsing continues, so the operator sees
// every bad line in one pass. Only an unreadable source is fatal.
type Parser struct {
	Protocol api.Protocol
	Class    api.SensorClass
}

// Canonical column names. CSV headers are normalized with strcase, so
// "Object Instance", "object_instance" and "objectInstance" all match.
const (
	colID              = "id"
	colName            = "name"
	colSensorTypeID    = "sensorTypeId"
	colMultiplier      = "multiplier"
	colUnit            = "unit"
	colUnitID          = "unitId"
	colObjectType      = "objectType"
	colObjectInstance  = "objectInstance"
	colRegisterType    = "registerType"
	colRegisterAddress = "registerAddress"
	colFunctionCode    = "functionCode"
	colValueMapping    = "valueMapping"
)

// Parse reads all rows from r. The returned records preserve input order;
// parse errors are keyed to 1-based data row numbers.
func (p Parser) Parse(r io.Reader) ([]CandidateSensorRecord, []ParseError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row length checked per row below
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("input file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strcase.ToLowerCamel(strings.TrimSpace(h))] = i
	}
	if _, ok := cols[colSensorTypeID]; !ok {
		return nil, nil, fmt.Errorf("input is missing the %s column", colSensorTypeID)
	}

	var (
		records []CandidateSensorRecord
		perrs   []ParseError
		row     int
	)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			// csv.Reader keeps going after per-record errors
			perrs = append(perrs, ParseError{Row: row, Err: err})
			continue
		}
		if len(fields) != len(header) {
			perrs = append(perrs, ParseError{Row: row,
				Err: fmt.Errorf("expected %d columns, got %d", len(header), len(fields))})
			continue
		}
		rec, perr := p.parseRow(row, cols, fields)
		if perr != nil {
			perrs = append(perrs, *perr)
			continue
		}
		records = append(records, rec)
	}
	return records, perrs, nil
}

func (p Parser) parseRow(row int, cols map[string]int, fields []string) (CandidateSensorRecord, *ParseError) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := CandidateSensorRecord{
		Row:          row,
		Protocol:     p.Protocol,
		Class:        p.Class,
		ID:           get(colID),
		Name:         get(colName),
		SensorTypeID: get(colSensorTypeID),
		Unit:         get(colUnit),
		UnitID:       get(colUnitID),
	}

	if p.Class == api.ClassNumeric {
		rec.Multiplier = 1
		if v := get(colMultiplier); v != "" {
			m, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return rec, &ParseError{Row: row, Field: colMultiplier, Err: err}
			}
			rec.Multiplier = m
		}
	} else {
		ms, err := api.ParseValueMappings(get(colValueMapping))
		if err != nil {
			return rec, &ParseError{Row: row, Field: colValueMapping, Err: err}
		}
		rec.ValueMappings = ms
	}

	switch p.Protocol {
	case api.ProtocolBACnet:
		rec.ObjectType = get(colObjectType)
		if v := get(colObjectInstance); v != "" {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return rec, &ParseError{Row: row, Field: colObjectInstance, Err: err}
			}
			inst := uint32(n)
			rec.ObjectInstance = &inst
		}
	case api.ProtocolModbus:
		rec.RegisterType = strings.ToLower(get(colRegisterType))
		if v := get(colRegisterAddress); v != "" {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return rec, &ParseError{Row: row, Field: colRegisterAddress, Err: err}
			}
			addr := uint32(n)
			rec.RegisterAddress = &addr
		}
		if v := get(colFunctionCode); v != "" {
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil {
				return rec, &ParseError{Row: row, Field: colFunctionCode, Err: err}
			}
			rec.FunctionCode = uint8(n)
		}
	}
	return rec, nil
}
