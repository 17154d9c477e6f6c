package naming

import "strings"

// SystemVerilog (IEEE 1800-2017) keywords that commonly clash with signal
// vocabularies. A rendered signal may not equal any of them.
var reserved = map[string]bool{
	"always": true, "and": true, "assign": true, "begin": true, "bit": true,
	"buf": true, "byte": true, "case": true, "class": true, "clocking": true,
	"config": true, "const": true, "default": true, "disable": true, "do": true,
	"edge": true, "else": true, "end": true, "endcase": true, "endclass": true,
	"endfunction": true, "endinterface": true, "endmodule": true, "endtask": true,
	"enum": true, "event": true, "final": true, "for": true, "force": true,
	"forever": true, "fork": true, "function": true, "if": true, "initial": true,
	"inout": true, "input": true, "int": true, "integer": true, "interface": true,
	"join": true, "logic": true, "module": true, "modport": true, "negedge": true,
	"new": true, "not": true, "null": true, "or": true, "output": true,
	"package": true, "parameter": true, "posedge": true, "program": true,
	"property": true, "rand": true, "real": true, "reg": true, "release": true,
	"repeat": true, "return": true, "sequence": true, "string": true,
	"struct": true, "super": true, "task": true, "this": true, "time": true,
	"type": true, "typedef": true, "union": true, "virtual": true, "void": true,
	"wait": true, "while": true, "wire": true, "with": true, "xor": true,
}

// IsReserved reports whether name is a SystemVerilog keyword. SystemVerilog
// keywords are lower case and case-sensitive, so "DATA" is never reserved.
func IsReserved(name string) bool {
	return reserved[name] && name == strings.ToLower(name)
}
