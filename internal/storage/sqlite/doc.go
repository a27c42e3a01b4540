// Package sqlite persists analysis runs so that reports produced with
// different thresholds can be listed and compared later.
//
// The schema is embedded and applied with golang-migrate on Open.
package sqlite
