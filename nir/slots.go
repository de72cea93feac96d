// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import (
	"fmt"
	"strconv"
	"strings"
)

// Varying slots used as Location for non-fragment-output interface
// variables and for IOSemantics.Location.
const (
	SlotPos = iota
	SlotCol0
	SlotCol1
	SlotFogc
	SlotTex0
	SlotTex1
	SlotTex2
	SlotTex3
	SlotTex4
	SlotTex5
	SlotTex6
	SlotTex7
	SlotPsiz
	SlotBfc0
	SlotBfc1
	SlotEdge
	SlotClipVertex
	SlotClipDist0
	SlotClipDist1
	SlotCullDist0
	SlotCullDist1
	SlotPrimitiveID
	SlotLayer
	SlotViewport
	SlotFace
	SlotPntc
	SlotTessLevelOuter
	SlotTessLevelInner
	SlotViewIndex

	SlotVar0   = 32
	SlotPatch0 = SlotVar0 + 32
	SlotMax    = SlotPatch0 + 32
)

var slotNames = map[int]string{
	SlotPos:            "pos",
	SlotCol0:           "col0",
	SlotCol1:           "col1",
	SlotFogc:           "fogc",
	SlotPsiz:           "psiz",
	SlotBfc0:           "bfc0",
	SlotBfc1:           "bfc1",
	SlotEdge:           "edge",
	SlotClipVertex:     "clip_vertex",
	SlotClipDist0:      "clip_dist0",
	SlotClipDist1:      "clip_dist1",
	SlotCullDist0:      "cull_dist0",
	SlotCullDist1:      "cull_dist1",
	SlotPrimitiveID:    "primitive_id",
	SlotLayer:          "layer",
	SlotViewport:       "viewport",
	SlotFace:           "face",
	SlotPntc:           "pntc",
	SlotTessLevelOuter: "tess_level_outer",
	SlotTessLevelInner: "tess_level_inner",
	SlotViewIndex:      "view_index",
}

// VaryingSlotName returns the printable name of a varying slot.
func VaryingSlotName(slot int) string {
	switch {
	case slot >= SlotTex0 && slot <= SlotTex7:
		return fmt.Sprintf("tex%d", slot-SlotTex0)
	case slot >= SlotVar0 && slot < SlotPatch0:
		return fmt.Sprintf("var%d", slot-SlotVar0)
	case slot >= SlotPatch0 && slot < SlotMax:
		return fmt.Sprintf("patch%d", slot-SlotPatch0)
	}
	if n, ok := slotNames[slot]; ok {
		return n
	}
	return strconv.Itoa(slot)
}

// ParseVaryingSlot parses a varying slot name or a plain number.
func ParseVaryingSlot(name string) (int, error) {
	for slot, n := range slotNames {
		if n == name {
			return slot, nil
		}
	}
	for _, p := range []struct {
		prefix string
		base   int
		count  int
	}{{"tex", SlotTex0, 8}, {"var", SlotVar0, 32}, {"patch", SlotPatch0, 32}} {
		if rest, ok := strings.CutPrefix(name, p.prefix); ok {
			n, err := strconv.Atoi(rest)
			if err != nil || n < 0 || n >= p.count {
				return 0, fmt.Errorf("bad varying slot %q", name)
			}
			return p.base + n, nil
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, fmt.Errorf("unknown varying slot %q", name)
	}
	return n, nil
}

// Fragment shader output locations.
const (
	FragResultDepth = iota
	FragResultStencil
	FragResultColor
	FragResultSampleMask
	FragResultData0
	FragResultMax = FragResultData0 + 8
)

// FragResultName returns the printable name of a fragment result.
func FragResultName(loc int) string {
	switch loc {
	case FragResultDepth:
		return "depth"
	case FragResultStencil:
		return "stencil"
	case FragResultColor:
		return "color"
	case FragResultSampleMask:
		return "sample_mask"
	}
	if loc >= FragResultData0 && loc < FragResultMax {
		return fmt.Sprintf("data%d", loc-FragResultData0)
	}
	return strconv.Itoa(loc)
}

// ParseFragResult parses a fragment result name or a plain number.
func ParseFragResult(name string) (int, error) {
	switch name {
	case "depth":
		return FragResultDepth, nil
	case "stencil":
		return FragResultStencil, nil
	case "color":
		return FragResultColor, nil
	case "sample_mask":
		return FragResultSampleMask, nil
	}
	if rest, ok := strings.CutPrefix(name, "data"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 || n >= FragResultMax-FragResultData0 {
			return 0, fmt.Errorf("bad fragment result %q", name)
		}
		return FragResultData0 + n, nil
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, fmt.Errorf("unknown fragment result %q", name)
	}
	return n, nil
}
