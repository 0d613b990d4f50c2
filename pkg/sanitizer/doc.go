// Package sanitizer normalizes user input before validation and storage.
//
// Every function is idempotent: applying it twice yields the same result as
// applying it once. Invalid input is never an error here; it is normalized as
// far as possible and left for the validators to reject.
//
// Normalization includes:
//   - Free text (names, vessel names, status): trim, collapse inner whitespace
//   - Emails: trim, lowercase
//   - Categories and other enum values: trim, lowercase
package sanitizer
