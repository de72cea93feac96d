// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "github.com/gogpu/ntt/nir"

// aluOpTable maps ALU ops with a direct equivalent to their opcode for
// 32-bit and 64-bit sources. OpNOP marks a combination handled in
// emitAluSpecial.
var aluOpTable = map[nir.Op][2]Opcode{
	nir.OpMov: {OpMOV, OpMOV},

	// 32-bit fabs and fneg are source modifiers.
	nir.OpFabs: {OpNOP, OpDABS},
	nir.OpFneg: {OpNOP, OpDNEG},

	nir.OpFdot2:      {OpDP2, OpNOP},
	nir.OpFdot3:      {OpDP3, OpNOP},
	nir.OpFdot4:      {OpDP4, OpNOP},
	nir.OpFfloor:     {OpFLR, OpDFLR},
	nir.OpFfract:     {OpFRC, OpDFRAC},
	nir.OpFceil:      {OpCEIL, OpDCEIL},
	nir.OpFroundEven: {OpROUND, OpDROUND},
	nir.OpFdiv:       {OpDIV, OpDDIV},
	nir.OpIdiv:       {OpIDIV, OpI64DIV},
	nir.OpUdiv:       {OpUDIV, OpU64DIV},

	nir.OpFrcp:  {OpNOP, OpDRCP},
	nir.OpFrsq:  {OpNOP, OpDRSQ},
	nir.OpFsqrt: {OpNOP, OpDSQRT},

	nir.OpF2F32: {OpNOP, OpD2F},
	nir.OpF2F64: {OpF2D, OpNOP},
	nir.OpI2I64: {OpI2I64, OpNOP},

	nir.OpF2I32: {OpF2I, OpD2I},
	nir.OpF2I64: {OpF2I64, OpD2I64},
	nir.OpF2U32: {OpF2U, OpD2U},
	nir.OpF2U64: {OpF2U64, OpD2U64},
	nir.OpI2F32: {OpI2F, OpI642F},
	nir.OpI2F64: {OpI2D, OpI642D},
	nir.OpU2F32: {OpU2F, OpU642F},
	nir.OpU2F64: {OpU2D, OpU642D},

	nir.OpSlt: {OpSLT, OpNOP},
	nir.OpSge: {OpSGE, OpNOP},
	nir.OpSeq: {OpSEQ, OpNOP},
	nir.OpSne: {OpSNE, OpNOP},

	nir.OpFlt32:  {OpFSLT, OpDSLT},
	nir.OpFge32:  {OpFSGE, OpDSGE},
	nir.OpFeq32:  {OpFSEQ, OpDSEQ},
	nir.OpFneu32: {OpFSNE, OpDSNE},

	nir.OpIlt32: {OpISLT, OpI64SLT},
	nir.OpIge32: {OpISGE, OpI64SGE},
	nir.OpIeq32: {OpUSEQ, OpU64SEQ},
	nir.OpIne32: {OpUSNE, OpU64SNE},

	nir.OpUlt32: {OpUSLT, OpU64SLT},
	nir.OpUge32: {OpUSGE, OpU64SGE},

	nir.OpIabs:              {OpIABS, OpI64ABS},
	nir.OpIneg:              {OpINEG, OpI64NEG},
	nir.OpFsign:             {OpSSG, OpNOP},
	nir.OpIsign:             {OpISSG, OpNOP},
	nir.OpFtrunc:            {OpTRUNC, OpDTRUNC},
	nir.OpFddx:              {OpDDX, OpNOP},
	nir.OpFddy:              {OpDDY, OpNOP},
	nir.OpFddxCoarse:        {OpDDX, OpNOP},
	nir.OpFddyCoarse:        {OpDDY, OpNOP},
	nir.OpFddxFine:          {OpDDXFine, OpNOP},
	nir.OpFddyFine:          {OpDDYFine, OpNOP},
	nir.OpPackHalf2x16:      {OpPK2H, OpNOP},
	nir.OpUnpackHalf2x16:    {OpUP2H, OpNOP},
	nir.OpIbitfieldExtract:  {OpIBFE, OpNOP},
	nir.OpUbitfieldExtract:  {OpUBFE, OpNOP},
	nir.OpBitfieldInsert:    {OpBFI, OpNOP},
	nir.OpBitfieldReverse:   {OpBREV, OpNOP},
	nir.OpBitCount:          {OpPOPC, OpNOP},
	nir.OpIfindMsb:          {OpIMSB, OpNOP},
	nir.OpUfindMsb:          {OpUMSB, OpNOP},
	nir.OpFindLsb:           {OpLSB, OpNOP},
	nir.OpFadd:              {OpADD, OpDADD},
	nir.OpIadd:              {OpUADD, OpU64ADD},
	nir.OpFmul:              {OpMUL, OpDMUL},
	nir.OpImul:              {OpUMUL, OpU64MUL},
	nir.OpImod:              {OpMOD, OpI64MOD},
	nir.OpUmod:              {OpUMOD, OpU64MOD},
	nir.OpImulHigh:          {OpIMULHI, OpNOP},
	nir.OpUmulHigh:          {OpUMULHI, OpNOP},
	nir.OpIshl:              {OpSHL, OpU64SHL},
	nir.OpIshr:              {OpISHR, OpI64SHR},
	nir.OpUshr:              {OpUSHR, OpU64SHR},

	// Bitwise ops do not care about the bit size.
	nir.OpInot: {OpNOT, OpNOT},
	nir.OpIand: {OpAND, OpAND},
	nir.OpIor:  {OpOR, OpOR},
	nir.OpIxor: {OpXOR, OpXOR},

	nir.OpFmin:  {OpMIN, OpDMIN},
	nir.OpImin:  {OpIMIN, OpI64MIN},
	nir.OpUmin:  {OpUMIN, OpU64MIN},
	nir.OpFmax:  {OpMAX, OpDMAX},
	nir.OpImax:  {OpIMAX, OpI64MAX},
	nir.OpUmax:  {OpUMAX, OpU64MAX},
	nir.OpFfma:  {OpMAD, OpDMAD},
	nir.OpLdexp: {OpLDEXP, OpNOP},
}

// tableOpcode returns the direct opcode for op, if it has one.
func tableOpcode(op nir.Op, src64 bool) (Opcode, bool) {
	ops, ok := aluOpTable[op]
	if !ok {
		return OpNOP, false
	}
	i := 0
	if src64 {
		i = 1
	}
	return ops[i], ops[i] != OpNOP
}
