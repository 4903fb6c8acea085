// Package validation validates user-supplied profile fields.
//
// The rules mirror the registration contract: login shape, email shape,
// password strength, country-code pattern and phone format. Request structs
// in the API layer declare the rules with struct tags; handlers call
// ValidateStruct and turn the first failure into a 400 response.
package validation
