// Package output renders command results for rollcall-cli.
//
// Four formats are supported: table (aligned columns), json, yaml and csv.
// Column names come from the json tag of each struct field; a table tag of
// "-" hides a field from tables and "wide" shows it only with --wide.
package output
