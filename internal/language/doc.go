// Package language maps detector language hints to display names.
//
// The charset detector tags each guess with an ISO 639-1 code ("ja" from
// the Shift-JIS recognizer, "ru" from KOI8-R, and so on). Command output
// spells the name out instead of echoing the code.
package language
