// script.go - optional per-file Lua hook (spec expansion; SPEC_FULL.md
// SUPPLEMENTED FEATURES). Mirrors debug_commands.go's MachineMonitor
// shape: a small table of named setters a script can call to mutate
// state the host already decoded, run once per file right before the
// record is queued for framing.

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// runFileScript executes path against rec, exposing rec's mutable
// fields as a single "file" table the script can read and rewrite.
// Segment bytes are intentionally not exposed; scripts steer metadata
// (name, load/exec addresses, flags), not payload contents.
func runFileScript(path string, rec *FileRecord) error {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(rec.Name))
	L.SetField(tbl, "load", lua.LNumber(rec.Load))
	L.SetField(tbl, "exec", lua.LNumber(rec.Exec))
	L.SetField(tbl, "zload", lua.LNumber(rec.ZLoad))
	L.SetField(tbl, "fast", lua.LBool(rec.Fast))
	L.SetField(tbl, "flasher", lua.LBool(rec.Flasher))
	L.SetField(tbl, "eof", lua.LBool(rec.EOF))
	L.SetField(tbl, "eof_data", lua.LBool(rec.EOFData))
	L.SetField(tbl, "fnblock", lua.LBool(rec.FNBlock))
	L.SetField(tbl, "leader_count", lua.LNumber(rec.LeaderCount))
	L.SetGlobal("file", tbl)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("lua: %w", err)
	}

	get := func(field string) lua.LValue { return L.GetField(tbl, field) }

	if s, ok := get("name").(lua.LString); ok {
		rec.Name = string(s)
	}
	if n, ok := get("load").(lua.LNumber); ok {
		rec.Load = uint16(n)
		rec.HasLoad = true
		if len(rec.Segments) == 1 {
			rec.Segments[0].Start = uint16(n)
		}
	}
	if n, ok := get("exec").(lua.LNumber); ok {
		rec.Exec = uint16(n)
		rec.HasExec = true
	}
	if n, ok := get("zload").(lua.LNumber); ok {
		rec.ZLoad = uint16(n)
		rec.HasZLoad = true
	}
	if b, ok := get("fast").(lua.LBool); ok {
		rec.Fast = bool(b)
	}
	if b, ok := get("flasher").(lua.LBool); ok {
		rec.Flasher = bool(b)
	}
	if b, ok := get("eof").(lua.LBool); ok {
		rec.EOF = bool(b)
	}
	if b, ok := get("eof_data").(lua.LBool); ok {
		rec.EOFData = bool(b)
	}
	if b, ok := get("fnblock").(lua.LBool); ok {
		rec.FNBlock = bool(b)
	}
	if n, ok := get("leader_count").(lua.LNumber); ok {
		rec.LeaderCount = int(n)
	}

	return nil
}
