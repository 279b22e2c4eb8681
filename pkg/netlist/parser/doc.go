// Package parser builds a resolved [netlist.Graph] from structural netlist
// source text.
//
// # Grammar
//
// The accepted language is a structural subset of Verilog. Anything outside
// it is reported as PARSE_ERROR:
//
//	source      := { module_decl } EOF
//	module_decl := "module" IDENT [ "(" [ header ] ")" ] ";" { item } "endmodule"
//	header      := ansi_port { "," ansi_port } | IDENT { "," IDENT }
//	ansi_port   := [ dir [ nettype ] [ range ] ] IDENT
//	dir         := "input" | "output" | "inout"
//	nettype     := "wire" | "tri" | "supply0" | "supply1"
//	range       := "[" NUMBER ":" NUMBER "]"
//	item        := dir [ nettype ] [ range ] IDENT { "," IDENT } ";"
//	             | nettype [ range ] IDENT { "," IDENT } ";"
//	             | IDENT inst { "," inst } ";"
//	inst        := IDENT "(" [ conns ] ")"
//	conns       := named { "," named } | expr { "," expr }
//	named       := "." IDENT "(" [ expr ] ")"
//	expr        := primary | "{" expr { "," expr } "}"
//	primary     := IDENT [ "[" NUMBER [ ":" NUMBER ] "]" ] | NUMBER
//
// In an ANSI header the direction, net type and range of a port carry over
// to the following names until the next direction. Body direction
// declarations are only allowed for modules with a plain name list as
// header, and every such header name must receive a direction before
// endmodule. Comments are accepted anywhere and discarded.
//
// # Passes
//
// [Parse] lexes the whole source first; a lex error aborts with no graph.
// The token stream is then split into module ... endmodule spans which are
// parsed independently, concurrently when [Options.Workers] is above one.
// Modules are merged into the graph in source order, so the result does not
// depend on the worker count. Finally [netlist.Graph.Resolve] runs serially
// over the complete module table.
//
// Every problem found by the passes is collected; Parse returns them
// together as an [errors.List] sorted by position, and no graph.
package parser
