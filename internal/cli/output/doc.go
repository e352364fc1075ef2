// Package output renders CLI results as table, JSON or YAML.
//
// Tables are built either explicitly through Table or reflectively from
// structs, slices and maps. JSON and YAML share the field names of the
// server's JSON envelope so scripts see the same keys in both.
package output
