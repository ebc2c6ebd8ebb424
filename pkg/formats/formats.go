// Package formats reads and writes Wavefront OBJ mesh documents.
//
// ParseOBJ flattens every object or group into an OBJShape with one shared
// vertex numbering per shape, ready to hand to an atlas engine. OBJWriter
// writes the statements back out.
package formats
