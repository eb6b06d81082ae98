package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeops/sensorctl/internal/api"
)

func u32(v uint32) *uint32 { return &v }

func testSchema() *Schema {
	temp := api.SensorType{ID: "temp-c", Description: "Temperature (C)"}
	humidity := api.SensorType{ID: "humidity", Description: "Relative Humidity"}
	doorState := api.SensorType{ID: "door-state", Description: "Door State"}
	voltage := api.SensorType{ID: "voltage", Description: "Voltage"}
	return &Schema{
		AssetType: "crah",
		ForAsset: map[string]api.SensorType{
			"temp-c":     temp,
			"humidity":   humidity,
			"door-state": doorState,
		},
		Catalog: map[string]api.SensorType{
			"temp-c":     temp,
			"humidity":   humidity,
			"door-state": doorState,
			"voltage":    voltage,
		},
	}
}

func bacnetCandidate(row int, name, typeID, objType string, inst uint32) CandidateSensorRecord {
	return CandidateSensorRecord{
		Row:            row,
		Protocol:       api.ProtocolBACnet,
		Class:          api.ClassNumeric,
		Name:           name,
		SensorTypeID:   typeID,
		Multiplier:     1,
		ObjectType:     objType,
		ObjectInstance: u32(inst),
	}
}

func modbusCandidate(row int, name, typeID, regType string, addr uint32, fc uint8) CandidateSensorRecord {
	return CandidateSensorRecord{
		Row:             row,
		Protocol:        api.ProtocolModbus,
		Class:           api.ClassNumeric,
		Name:            name,
		SensorTypeID:    typeID,
		Multiplier:      1,
		RegisterType:    regType,
		RegisterAddress: u32(addr),
		FunctionCode:    fc,
	}
}

func TestValidateAllAcceptsValidSet(t *testing.T) {
	candidates := []CandidateSensorRecord{
		bacnetCandidate(1, "supply temp", "temp-c", "analogInput", 1),
		bacnetCandidate(2, "return temp", "temp-c", "analogInput", 2),
		bacnetCandidate(3, "humidity", "humidity", "analogValue", 3),
	}
	accepted, rejected := ValidateAll(testSchema(), candidates)
	require.Empty(t, rejected)
	require.Len(t, accepted, len(candidates))
	// order preserved, sensor type attached
	for i, rec := range accepted {
		assert.Equal(t, candidates[i].Row, rec.Row)
		assert.Equal(t, candidates[i].SensorTypeID, rec.SensorType.ID)
	}
}

func TestValidateAllIsDeterministic(t *testing.T) {
	candidates := []CandidateSensorRecord{
		bacnetCandidate(1, "a", "temp-c", "analogInput", 1),
		bacnetCandidate(2, "b", "nope", "analogInput", 2),
		bacnetCandidate(3, "c", "temp-c", "analogInput", 1), // dup of row 1
	}
	schema := testSchema()
	a1, r1 := ValidateAll(schema, candidates)
	a2, r2 := ValidateAll(schema, candidates)
	assert.Equal(t, a1, a2)
	assert.Equal(t, r1, r2)
}

func TestValidateUnknownSensorType(t *testing.T) {
	_, rejected := ValidateAll(testSchema(), []CandidateSensorRecord{
		bacnetCandidate(1, "mystery", "does-not-exist", "analogInput", 1),
	})
	require.Len(t, rejected, 1)
	assert.Equal(t, UnknownSensorType, rejected[0].Reason)
}

func TestValidateIncompatibleAssetType(t *testing.T) {
	// voltage exists in the catalog but is not assignable to this asset
	// type, which must be distinguished from a type that does not exist.
	_, rejected := ValidateAll(testSchema(), []CandidateSensorRecord{
		bacnetCandidate(1, "bus voltage", "voltage", "analogInput", 1),
	})
	require.Len(t, rejected, 1)
	assert.Equal(t, IncompatibleAssetType, rejected[0].Reason)
	assert.Contains(t, rejected[0].Detail, "crah")
}

func TestValidateDuplicateAddressSecondOccurrenceOnly(t *testing.T) {
	candidates := []CandidateSensorRecord{
		bacnetCandidate(1, "first", "temp-c", "analogInput", 7),
		bacnetCandidate(2, "second", "temp-c", "analoginput", 7), // same point, case differs
		bacnetCandidate(3, "third", "temp-c", "analogInput", 8),
	}
	accepted, rejected := ValidateAll(testSchema(), candidates)
	require.Len(t, accepted, 2)
	assert.Equal(t, 1, accepted[0].Row)
	assert.Equal(t, 3, accepted[1].Row)
	require.Len(t, rejected, 1)
	assert.Equal(t, DuplicateAddress, rejected[0].Reason)
	assert.Equal(t, 2, rejected[0].Record.Row)
	assert.Contains(t, rejected[0].Detail, "row 1")
}

func TestValidateRejectedRecordDoesNotClaimAddress(t *testing.T) {
	// Row 1 is rejected for its sensor type, so row 2 may still use the
	// same address.
	candidates := []CandidateSensorRecord{
		bacnetCandidate(1, "bad type", "does-not-exist", "analogInput", 1),
		bacnetCandidate(2, "good", "temp-c", "analogInput", 1),
	}
	accepted, rejected := ValidateAll(testSchema(), candidates)
	require.Len(t, accepted, 1)
	assert.Equal(t, 2, accepted[0].Row)
	require.Len(t, rejected, 1)
	assert.Equal(t, UnknownSensorType, rejected[0].Reason)
}

func TestValidateBACnetAddressRange(t *testing.T) {
	v := NewValidator(testSchema())

	_, rej := v.Validate(bacnetCandidate(1, "too big", "temp-c", "analogInput", bacnetMaxInstance+1))
	require.NotNil(t, rej)
	assert.Equal(t, InvalidAddressRange, rej.Reason)

	_, rej = v.Validate(bacnetCandidate(2, "top of range", "temp-c", "analogInput", bacnetMaxInstance))
	assert.Nil(t, rej)

	_, rej = v.Validate(bacnetCandidate(3, "instance zero", "temp-c", "analogInput", 0))
	assert.Nil(t, rej)
}

func TestValidateBACnetObjectTypePerClass(t *testing.T) {
	v := NewValidator(testSchema())

	// binaryInput is an enum object, not valid for numeric sensors
	_, rej := v.Validate(bacnetCandidate(1, "wrong class", "temp-c", "binaryInput", 1))
	require.NotNil(t, rej)
	assert.Equal(t, InvalidAddressRange, rej.Reason)

	enum := bacnetCandidate(2, "door", "door-state", "binaryInput", 2)
	enum.Class = api.ClassNonNumeric
	enum.ValueMappings = []api.ValueMapping{{Text: "Closed", Value: 0}, {Text: "Open", Value: 1}}
	_, rej = v.Validate(enum)
	assert.Nil(t, rej)
}

func TestValidateModbusAddressing(t *testing.T) {
	v := NewValidator(testSchema())

	_, rej := v.Validate(modbusCandidate(1, "ok", "temp-c", "holding", 100, 3))
	assert.Nil(t, rej)

	_, rej = v.Validate(modbusCandidate(2, "bad register type", "temp-c", "wibble", 100, 3))
	require.NotNil(t, rej)
	assert.Equal(t, InvalidAddressRange, rej.Reason)

	_, rej = v.Validate(modbusCandidate(3, "address overflow", "temp-c", "holding", 70000, 3))
	require.NotNil(t, rej)
	assert.Equal(t, InvalidAddressRange, rej.Reason)

	// function code 4 reads input registers, not holding registers
	_, rej = v.Validate(modbusCandidate(4, "wrong fc", "temp-c", "holding", 101, 4))
	require.NotNil(t, rej)
	assert.Equal(t, InvalidAddressRange, rej.Reason)

	// zero means "use the default code for the register type"
	_, rej = v.Validate(modbusCandidate(5, "default fc", "temp-c", "input", 10, 0))
	assert.Nil(t, rej)
}

func TestValidateRequiredFields(t *testing.T) {
	v := NewValidator(testSchema())

	noName := bacnetCandidate(1, "", "temp-c", "analogInput", 1)
	_, rej := v.Validate(noName)
	require.NotNil(t, rej)
	assert.Equal(t, MissingRequiredField, rej.Reason)
	assert.Equal(t, "name", rej.Detail)

	// an existing-sensor id stands in for the name
	withID := bacnetCandidate(2, "", "temp-c", "analogInput", 2)
	withID.ID = "7b637573-97a5-4c96-9a8e-8efb98f40273"
	_, rej = v.Validate(withID)
	assert.Nil(t, rej)

	badID := bacnetCandidate(3, "has name", "temp-c", "analogInput", 3)
	badID.ID = "not-a-uuid"
	_, rej = v.Validate(badID)
	require.NotNil(t, rej)
	assert.Equal(t, MissingRequiredField, rej.Reason)
	assert.Contains(t, rej.Detail, "not-a-uuid")

	noType := bacnetCandidate(4, "no type", "", "analogInput", 4)
	_, rej = v.Validate(noType)
	require.NotNil(t, rej)
	assert.Equal(t, "sensorTypeId", rej.Detail)

	noInstance := bacnetCandidate(5, "no instance", "temp-c", "analogInput", 0)
	noInstance.ObjectInstance = nil
	_, rej = v.Validate(noInstance)
	require.NotNil(t, rej)
	assert.Equal(t, "objectInstance", rej.Detail)

	noMappings := bacnetCandidate(6, "door", "door-state", "binaryInput", 6)
	noMappings.Class = api.ClassNonNumeric
	_, rej = v.Validate(noMappings)
	require.NotNil(t, rej)
	assert.Equal(t, "valueMapping", rej.Detail)
}
