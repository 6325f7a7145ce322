// Package pod defines the flat particle interchange record used for both
// table-structured file persistence and cross-rank particle transfer. The
// record layout is fixed: field order, offsets and sizes must be identical
// on every rank that reads or writes it.
package pod

import "encoding/binary"

// NStateVars is the fixed capacity of the per-particle state variable array.
const NStateVars = 5

// Record is one particle in interchange form. All fields are fixed-size so
// the encoded stream is the same on any two ranks.
type Record struct {
	ID         uint64
	Type       uint32 // particle type discriminant (see mesh particle factory)
	Dim        uint32
	Mass       float64
	Volume     float64
	CoordX     float64
	CoordY     float64
	CoordZ     float64
	VelocityX  float64
	VelocityY  float64
	VelocityZ  float64
	Stress     [6]float64 // Voigt: xx yy zz xy yz xz
	Strain     [6]float64
	CellID     uint64
	MaterialID uint32
	NSVars     uint32
	SVars      [NStateVars]float64
}

// Field describes one record field in the encoded stream. The table plays
// the role HDF5 field name/offset/size metadata plays in table storage.
type Field struct {
	Name   string
	Offset int
	Size   int
}

// RecordSize is the encoded size of one Record in bytes.
var RecordSize = binary.Size(Record{})

// Fields returns the field metadata table in declaration (encoding) order.
func Fields() []Field {
	layout := []struct {
		name string
		size int
	}{
		{"id", 8}, {"type", 4}, {"dim", 4},
		{"mass", 8}, {"volume", 8},
		{"coord_x", 8}, {"coord_y", 8}, {"coord_z", 8},
		{"velocity_x", 8}, {"velocity_y", 8}, {"velocity_z", 8},
		{"stress_xx", 8}, {"stress_yy", 8}, {"stress_zz", 8},
		{"tau_xy", 8}, {"tau_yz", 8}, {"tau_xz", 8},
		{"strain_xx", 8}, {"strain_yy", 8}, {"strain_zz", 8},
		{"gamma_xy", 8}, {"gamma_yz", 8}, {"gamma_xz", 8},
		{"cell_id", 8}, {"material_id", 4}, {"nstate_vars", 4},
		{"svars_0", 8}, {"svars_1", 8}, {"svars_2", 8},
		{"svars_3", 8}, {"svars_4", 8},
	}
	fields := make([]Field, len(layout))
	offset := 0
	for i, l := range layout {
		fields[i] = Field{Name: l.name, Offset: offset, Size: l.size}
		offset += l.size
	}
	return fields
}
