// Package validator checks request structs against their `validate` tags.
//
// Usecases depend on Validator. V10Validator backs it with
// go-playground/validator v10, answers in Spanish and adds the portal rules
// phone and zipcode.
package validator
