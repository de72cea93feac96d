// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "fmt"

// Opcode is a Target ISA instruction opcode.
type Opcode uint8

const (
	OpNOP Opcode = iota
	OpMOV
	OpADD
	OpMUL
	OpMAD
	OpDIV
	OpDP2
	OpDP3
	OpDP4
	OpMIN
	OpMAX
	OpSLT
	OpSGE
	OpSEQ
	OpSNE
	OpFRC
	OpFLR
	OpCEIL
	OpROUND
	OpTRUNC
	OpRCP
	OpRSQ
	OpSQRT
	OpEX2
	OpLG2
	OpPOW
	OpSIN
	OpCOS
	OpLRP
	OpCMP
	OpUCMP
	OpSSG
	OpDDX
	OpDDY
	OpDDXFine
	OpDDYFine
	OpPK2H
	OpUP2H

	OpARL
	OpUARL

	OpF2I
	OpF2U
	OpI2F
	OpU2F
	OpUADD
	OpUMUL
	OpIDIV
	OpUDIV
	OpMOD
	OpUMOD
	OpINEG
	OpIABS
	OpISSG
	OpIMULHI
	OpUMULHI
	OpSHL
	OpISHR
	OpUSHR
	OpNOT
	OpAND
	OpOR
	OpXOR
	OpIMIN
	OpIMAX
	OpUMIN
	OpUMAX
	OpFSEQ
	OpFSGE
	OpFSLT
	OpFSNE
	OpISGE
	OpISLT
	OpUSEQ
	OpUSGE
	OpUSLT
	OpUSNE
	OpIBFE
	OpUBFE
	OpBFI
	OpBREV
	OpPOPC
	OpLSB
	OpIMSB
	OpUMSB
	OpLDEXP

	OpDABS
	OpDNEG
	OpDADD
	OpDMUL
	OpDMAD
	OpDDIV
	OpDMIN
	OpDMAX
	OpDSLT
	OpDSGE
	OpDSEQ
	OpDSNE
	OpDRCP
	OpDRSQ
	OpDSQRT
	OpDFRAC
	OpDFLR
	OpDCEIL
	OpDROUND
	OpDTRUNC
	OpDLDEXP
	OpDFRACEXP
	OpD2F
	OpF2D
	OpD2I
	OpI2D
	OpD2U
	OpU2D

	OpI64ABS
	OpI64NEG
	OpI64SLT
	OpI64SGE
	OpI64MIN
	OpI64MAX
	OpI64SHR
	OpI64DIV
	OpI64MOD
	OpI2I64
	OpF2I64
	OpD2I64
	OpI642F
	OpI642D
	OpU64SEQ
	OpU64SNE
	OpU64SLT
	OpU64SGE
	OpU64MIN
	OpU64MAX
	OpU64ADD
	OpU64MUL
	OpU64SHL
	OpU64SHR
	OpU64DIV
	OpU64MOD
	OpF2U64
	OpD2U64
	OpU642F
	OpU642D

	OpTEX
	OpTEX2
	OpTXP
	OpTXB
	OpTXB2
	OpTXL
	OpTXL2
	OpTXD
	OpTXF
	OpTXFLZ
	OpTXQ
	OpTXQS
	OpTG4
	OpLODQ

	OpLOAD
	OpSTORE
	OpRESQ
	OpATOMUADD
	OpATOMFADD
	OpATOMXCHG
	OpATOMCAS
	OpATOMAND
	OpATOMOR
	OpATOMXOR
	OpATOMUMIN
	OpATOMUMAX
	OpATOMIMIN
	OpATOMIMAX
	OpMEMBAR
	OpBARRIER

	OpINTERPCentroid
	OpINTERPSample
	OpINTERPOffset

	OpUIF
	OpIF
	OpELSE
	OpENDIF
	OpBGNLOOP
	OpENDLOOP
	OpBRK
	OpCONT
	OpKILL
	OpKILLIF
	OpEMIT
	OpENDPRIM
	OpEND

	numOpcodes
)

// OpcodeKind groups opcodes by the extra instruction data they carry.
type OpcodeKind uint8

const (
	KindALU OpcodeKind = iota
	KindTexture
	KindMemory
	KindBranch
	KindFlow
)

// OpcodeInfo describes an opcode. NumDst and NumSrc of -1 mean the
// operand count varies.
type OpcodeInfo struct {
	Name   string
	NumDst int
	NumSrc int
	Kind   OpcodeKind
}

func alu(name string, nsrc int) OpcodeInfo { return OpcodeInfo{Name: name, NumDst: 1, NumSrc: nsrc} }
func tex(name string) OpcodeInfo          { return OpcodeInfo{Name: name, NumDst: 1, NumSrc: -1, Kind: KindTexture} }
func mem(name string, nsrc int) OpcodeInfo {
	return OpcodeInfo{Name: name, NumDst: 1, NumSrc: nsrc, Kind: KindMemory}
}
func flow(name string, nsrc int) OpcodeInfo { return OpcodeInfo{Name: name, NumSrc: nsrc, Kind: KindFlow} }

var opcodeInfos = [numOpcodes]OpcodeInfo{
	OpNOP:     flow("NOP", 0),
	OpMOV:     alu("MOV", 1),
	OpADD:     alu("ADD", 2),
	OpMUL:     alu("MUL", 2),
	OpMAD:     alu("MAD", 3),
	OpDIV:     alu("DIV", 2),
	OpDP2:     alu("DP2", 2),
	OpDP3:     alu("DP3", 2),
	OpDP4:     alu("DP4", 2),
	OpMIN:     alu("MIN", 2),
	OpMAX:     alu("MAX", 2),
	OpSLT:     alu("SLT", 2),
	OpSGE:     alu("SGE", 2),
	OpSEQ:     alu("SEQ", 2),
	OpSNE:     alu("SNE", 2),
	OpFRC:     alu("FRC", 1),
	OpFLR:     alu("FLR", 1),
	OpCEIL:    alu("CEIL", 1),
	OpROUND:   alu("ROUND", 1),
	OpTRUNC:   alu("TRUNC", 1),
	OpRCP:     alu("RCP", 1),
	OpRSQ:     alu("RSQ", 1),
	OpSQRT:    alu("SQRT", 1),
	OpEX2:     alu("EX2", 1),
	OpLG2:     alu("LG2", 1),
	OpPOW:     alu("POW", 2),
	OpSIN:     alu("SIN", 1),
	OpCOS:     alu("COS", 1),
	OpLRP:     alu("LRP", 3),
	OpCMP:     alu("CMP", 3),
	OpUCMP:    alu("UCMP", 3),
	OpSSG:     alu("SSG", 1),
	OpDDX:     alu("DDX", 1),
	OpDDY:     alu("DDY", 1),
	OpDDXFine: alu("DDX_FINE", 1),
	OpDDYFine: alu("DDY_FINE", 1),
	OpPK2H:    alu("PK2H", 1),
	OpUP2H:    alu("UP2H", 1),

	OpARL:  alu("ARL", 1),
	OpUARL: alu("UARL", 1),

	OpF2I:    alu("F2I", 1),
	OpF2U:    alu("F2U", 1),
	OpI2F:    alu("I2F", 1),
	OpU2F:    alu("U2F", 1),
	OpUADD:   alu("UADD", 2),
	OpUMUL:   alu("UMUL", 2),
	OpIDIV:   alu("IDIV", 2),
	OpUDIV:   alu("UDIV", 2),
	OpMOD:    alu("MOD", 2),
	OpUMOD:   alu("UMOD", 2),
	OpINEG:   alu("INEG", 1),
	OpIABS:   alu("IABS", 1),
	OpISSG:   alu("ISSG", 1),
	OpIMULHI: alu("IMUL_HI", 2),
	OpUMULHI: alu("UMUL_HI", 2),
	OpSHL:    alu("SHL", 2),
	OpISHR:   alu("ISHR", 2),
	OpUSHR:   alu("USHR", 2),
	OpNOT:    alu("NOT", 1),
	OpAND:    alu("AND", 2),
	OpOR:     alu("OR", 2),
	OpXOR:    alu("XOR", 2),
	OpIMIN:   alu("IMIN", 2),
	OpIMAX:   alu("IMAX", 2),
	OpUMIN:   alu("UMIN", 2),
	OpUMAX:   alu("UMAX", 2),
	OpFSEQ:   alu("FSEQ", 2),
	OpFSGE:   alu("FSGE", 2),
	OpFSLT:   alu("FSLT", 2),
	OpFSNE:   alu("FSNE", 2),
	OpISGE:   alu("ISGE", 2),
	OpISLT:   alu("ISLT", 2),
	OpUSEQ:   alu("USEQ", 2),
	OpUSGE:   alu("USGE", 2),
	OpUSLT:   alu("USLT", 2),
	OpUSNE:   alu("USNE", 2),
	OpIBFE:   alu("IBFE", 3),
	OpUBFE:   alu("UBFE", 3),
	OpBFI:    alu("BFI", 4),
	OpBREV:   alu("BREV", 1),
	OpPOPC:   alu("POPC", 1),
	OpLSB:    alu("LSB", 1),
	OpIMSB:   alu("IMSB", 1),
	OpUMSB:   alu("UMSB", 1),
	OpLDEXP:  alu("LDEXP", 2),

	OpDABS:     alu("DABS", 1),
	OpDNEG:     alu("DNEG", 1),
	OpDADD:     alu("DADD", 2),
	OpDMUL:     alu("DMUL", 2),
	OpDMAD:     alu("DMAD", 3),
	OpDDIV:     alu("DDIV", 2),
	OpDMIN:     alu("DMIN", 2),
	OpDMAX:     alu("DMAX", 2),
	OpDSLT:     alu("DSLT", 2),
	OpDSGE:     alu("DSGE", 2),
	OpDSEQ:     alu("DSEQ", 2),
	OpDSNE:     alu("DSNE", 2),
	OpDRCP:     alu("DRCP", 1),
	OpDRSQ:     alu("DRSQ", 1),
	OpDSQRT:    alu("DSQRT", 1),
	OpDFRAC:    alu("DFRAC", 1),
	OpDFLR:     alu("DFLR", 1),
	OpDCEIL:    alu("DCEIL", 1),
	OpDROUND:   alu("DROUND", 1),
	OpDTRUNC:   alu("DTRUNC", 1),
	OpDLDEXP:   alu("DLDEXP", 2),
	OpDFRACEXP: {Name: "DFRACEXP", NumDst: 2, NumSrc: 1},
	OpD2F:      alu("D2F", 1),
	OpF2D:      alu("F2D", 1),
	OpD2I:      alu("D2I", 1),
	OpI2D:      alu("I2D", 1),
	OpD2U:      alu("D2U", 1),
	OpU2D:      alu("U2D", 1),

	OpI64ABS: alu("I64ABS", 1),
	OpI64NEG: alu("I64NEG", 1),
	OpI64SLT: alu("I64SLT", 2),
	OpI64SGE: alu("I64SGE", 2),
	OpI64MIN: alu("I64MIN", 2),
	OpI64MAX: alu("I64MAX", 2),
	OpI64SHR: alu("I64SHR", 2),
	OpI64DIV: alu("I64DIV", 2),
	OpI64MOD: alu("I64MOD", 2),
	OpI2I64:  alu("I2I64", 1),
	OpF2I64:  alu("F2I64", 1),
	OpD2I64:  alu("D2I64", 1),
	OpI642F:  alu("I642F", 1),
	OpI642D:  alu("I642D", 1),
	OpU64SEQ: alu("U64SEQ", 2),
	OpU64SNE: alu("U64SNE", 2),
	OpU64SLT: alu("U64SLT", 2),
	OpU64SGE: alu("U64SGE", 2),
	OpU64MIN: alu("U64MIN", 2),
	OpU64MAX: alu("U64MAX", 2),
	OpU64ADD: alu("U64ADD", 2),
	OpU64MUL: alu("U64MUL", 2),
	OpU64SHL: alu("U64SHL", 2),
	OpU64SHR: alu("U64SHR", 2),
	OpU64DIV: alu("U64DIV", 2),
	OpU64MOD: alu("U64MOD", 2),
	OpF2U64:  alu("F2U64", 1),
	OpD2U64:  alu("D2U64", 1),
	OpU642F:  alu("U642F", 1),
	OpU642D:  alu("U642D", 1),

	OpTEX:   tex("TEX"),
	OpTEX2:  tex("TEX2"),
	OpTXP:   tex("TXP"),
	OpTXB:   tex("TXB"),
	OpTXB2:  tex("TXB2"),
	OpTXL:   tex("TXL"),
	OpTXL2:  tex("TXL2"),
	OpTXD:   tex("TXD"),
	OpTXF:   tex("TXF"),
	OpTXFLZ: tex("TXF_LZ"),
	OpTXQ:   tex("TXQ"),
	OpTXQS:  tex("TXQS"),
	OpTG4:   tex("TG4"),
	OpLODQ:  tex("LODQ"),

	OpLOAD:     mem("LOAD", 2),
	OpSTORE:    mem("STORE", 2),
	OpRESQ:     mem("RESQ", 1),
	OpATOMUADD: mem("ATOMUADD", 3),
	OpATOMFADD: mem("ATOMFADD", 3),
	OpATOMXCHG: mem("ATOMXCHG", 3),
	OpATOMCAS:  mem("ATOMCAS", 4),
	OpATOMAND:  mem("ATOMAND", 3),
	OpATOMOR:   mem("ATOMOR", 3),
	OpATOMXOR:  mem("ATOMXOR", 3),
	OpATOMUMIN: mem("ATOMUMIN", 3),
	OpATOMUMAX: mem("ATOMUMAX", 3),
	OpATOMIMIN: mem("ATOMIMIN", 3),
	OpATOMIMAX: mem("ATOMIMAX", 3),
	OpMEMBAR:   flow("MEMBAR", 1),
	OpBARRIER:  flow("BARRIER", 0),

	OpINTERPCentroid: alu("INTERP_CENTROID", 1),
	OpINTERPSample:   alu("INTERP_SAMPLE", 2),
	OpINTERPOffset:   alu("INTERP_OFFSET", 2),

	OpUIF:     {Name: "UIF", NumSrc: 1, Kind: KindBranch},
	OpIF:      {Name: "IF", NumSrc: 1, Kind: KindBranch},
	OpELSE:    {Name: "ELSE", Kind: KindBranch},
	OpENDIF:   flow("ENDIF", 0),
	OpBGNLOOP: flow("BGNLOOP", 0),
	OpENDLOOP: flow("ENDLOOP", 0),
	OpBRK:     flow("BRK", 0),
	OpCONT:    flow("CONT", 0),
	OpKILL:    flow("KILL", 0),
	OpKILLIF:  flow("KILL_IF", 1),
	OpEMIT:    flow("EMIT", 1),
	OpENDPRIM: flow("ENDPRIM", 1),
	OpEND:     flow("END", 0),
}

// Info returns the description of the opcode.
func (op Opcode) Info() OpcodeInfo {
	if op < numOpcodes {
		return opcodeInfos[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("OPCODE(%d)", op), NumDst: -1, NumSrc: -1}
}

func (op Opcode) String() string { return op.Info().Name }

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool { return op < numOpcodes }
