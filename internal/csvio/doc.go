// Package csvio parses delimited-text payloads into catalog rows and count
// updates, and writes the log and template exports.
//
// Payloads are read line by line. Each line uses ';' as separator when one
// occurs outside quoted text and ',' otherwise, so files exported by spreadsheet programs
// with either convention import unchanged. Quoted fields follow RFC 4180.
package csvio
