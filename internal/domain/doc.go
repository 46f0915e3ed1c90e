// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (wire/state), contracts (interfaces) and the error
// taxonomy shared by both transfer flows.
package domain
