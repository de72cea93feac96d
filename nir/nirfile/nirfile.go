// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package nirfile reads and writes Source IR shaders as YAML documents.
//
// A document names the stage, the stage metadata, the interface and
// resource variables, the registers, and a body of instructions and
// control flow:
//
//	name: passthrough
//	stage: vertex
//	variables:
//	  - {name: pos, mode: in, type: float4, location: "0"}
//	  - {name: gl_Position, mode: out, type: float4, location: pos}
//	body:
//	  - {dest: "%0", const: [0]}
//	  - {dest: "%1", intrinsic: load_input, srcs: ["%0"], comps: 4, location: "0"}
//	  - {intrinsic: store_output, srcs: ["%1", "%0"], wrmask: xyzw, location: pos}
//
// Values are referenced as %N, registers as rN or rN[offset + %M]. ALU
// sources additionally accept -, |...| and a swizzle suffix.
package nirfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/ntt/nir"
)

type document struct {
	Name      string     `yaml:"name,omitempty"`
	Stage     string     `yaml:"stage"`
	Info      info       `yaml:"info,omitempty"`
	Variables []variable `yaml:"variables,omitempty"`
	Registers []register `yaml:"registers,omitempty"`
	Body      []node     `yaml:"body"`
}

type info struct {
	NumSSBOs             int    `yaml:"num_ssbos,omitempty"`
	NumABOs              int    `yaml:"num_abos,omitempty"`
	FirstUBOIsDefaultUBO bool   `yaml:"first_ubo_is_default_ubo,omitempty"`
	WindowSpacePosition  bool   `yaml:"window_space_position,omitempty"`
	OriginUpperLeft      bool   `yaml:"origin_upper_left,omitempty"`
	PixelCenterInteger   bool   `yaml:"pixel_center_integer,omitempty"`
	EarlyFragmentTests   bool   `yaml:"early_fragment_tests,omitempty"`
	InputPrimitive       uint8  `yaml:"input_primitive,omitempty"`
	OutputPrimitive      uint8  `yaml:"output_primitive,omitempty"`
	VerticesOut          uint32 `yaml:"vertices_out,omitempty"`
	Invocations          uint32 `yaml:"invocations,omitempty"`
	TCSVerticesOut       uint32 `yaml:"tcs_vertices_out,omitempty"`
	TESPrimitive         uint8  `yaml:"tes_primitive,omitempty"`
	TESSpacing           uint8  `yaml:"tes_spacing,omitempty"`
	TESCCW               bool   `yaml:"tes_ccw,omitempty"`
	TESPointMode         bool   `yaml:"tes_point_mode,omitempty"`
	WorkgroupSize        []int  `yaml:"workgroup_size,omitempty,flow"`
	WorkgroupSizeVar     bool   `yaml:"workgroup_size_variable,omitempty"`
	SharedSize           uint32 `yaml:"shared_size,omitempty"`
}

type variable struct {
	Name           string   `yaml:"name"`
	Mode           string   `yaml:"mode"`
	Type           string   `yaml:"type"`
	Location       string   `yaml:"location,omitempty"`
	Frac           uint8    `yaml:"frac,omitempty"`
	DriverLocation int      `yaml:"driver_location,omitempty"`
	Binding        uint32   `yaml:"binding,omitempty"`
	Offset         uint32   `yaml:"offset,omitempty"`
	Interp         string   `yaml:"interp,omitempty"`
	Centroid       bool     `yaml:"centroid,omitempty"`
	Sample         bool     `yaml:"sample,omitempty"`
	Access         []string `yaml:"access,omitempty,flow"`
	Format         string   `yaml:"format,omitempty"`
}

type register struct {
	Comps uint8  `yaml:"comps"`
	Bits  uint8  `yaml:"bits"`
	Array uint32 `yaml:"array,omitempty"`
}

// node is one body entry. Exactly one of Op, Intrinsic, Tex, Const,
// Undef, Jump, If or Loop selects its kind.
type node struct {
	Dest  string `yaml:"dest,omitempty"`
	Comps uint8  `yaml:"comps,omitempty"`
	Bits  uint8  `yaml:"bits,omitempty"`

	Op        string   `yaml:"op,omitempty"`
	Intrinsic string   `yaml:"intrinsic,omitempty"`
	Tex       string   `yaml:"tex,omitempty"`
	Const     []any    `yaml:"const,omitempty,flow"`
	Undef     bool     `yaml:"undef,omitempty"`
	Jump      string   `yaml:"jump,omitempty"`
	Srcs      []string `yaml:"srcs,omitempty,flow"`
	WriteMask string   `yaml:"wrmask,omitempty"`
	Sat       bool     `yaml:"sat,omitempty"`

	Base       *int     `yaml:"base,omitempty"`
	Component  uint8    `yaml:"component,omitempty"`
	Location   string   `yaml:"location,omitempty"`
	NumSlots   uint8    `yaml:"num_slots,omitempty"`
	DualSource uint8    `yaml:"dual_source,omitempty"`
	GSStreams  uint8    `yaml:"gs_streams,omitempty"`
	Access     []string `yaml:"access,omitempty,flow"`
	ImageDim   string   `yaml:"image_dim,omitempty"`
	ImageArray bool     `yaml:"image_array,omitempty"`
	Format     string   `yaml:"format,omitempty"`
	Stream     uint8    `yaml:"stream,omitempty"`

	Dim        string `yaml:"dim,omitempty"`
	Array      bool   `yaml:"array,omitempty"`
	Shadow     bool   `yaml:"shadow,omitempty"`
	CoordComps uint8  `yaml:"coord_comps,omitempty"`
	Sampler    uint32 `yaml:"sampler,omitempty"`
	DestType   string `yaml:"dest_type,omitempty"`

	If   string  `yaml:"if,omitempty"`
	Then []node  `yaml:"then,omitempty"`
	Else []node  `yaml:"else,omitempty"`
	Loop *[]node `yaml:"loop,omitempty"`
}

// Load reads a shader from a YAML file.
func Load(path string) (*nir.Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads a shader document from r.
func Decode(r io.Reader) (*nir.Shader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Unmarshal parses a shader document. The entry function is indexed
// before returning.
func Unmarshal(data []byte) (*nir.Shader, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse shader: %w", err)
	}
	return doc.build()
}

// Save writes a shader to a YAML file.
func Save(path string, s *nir.Shader) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal renders a shader as a YAML document.
func Marshal(s *nir.Shader) ([]byte, error) {
	doc, err := fromShader(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
