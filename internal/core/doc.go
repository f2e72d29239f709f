// Package core implements the cleaning engine.
//
// The engine takes an immutable [table.Table] and a [Config] and returns a
// cleaned table plus an ordered log of every action taken. It is independent
// of any transport: the CLI and the HTTP service both call [Cleaner.Clean].
//
// # Stages
//
// A run executes these stages in a fixed order, each one a pure transform
// from one table to the next:
//
//  1. Preprocess: normalise column names, reject empty or colliding schemas
//  2. Missing data: drop sparse columns, then drop or fill remaining nulls
//  3. Duplicates: remove or mark repeated rows
//  4. Type coercion: convert text columns that hold numbers, dates or booleans
//  5. Text: trim, collapse whitespace, apply a case mode
//  6. Formats: normalise and validate email and phone columns
//  7. Outliers: flag, remove or cap values by IQR or z-score
//  8. Consistency: report values that break column rules
//
// Every stage after Preprocess can be switched off through its Enabled flag.
// Column statistics within a stage are computed concurrently, bounded by
// [Config.Workers]; row drops are applied once per stage.
//
// # Errors
//
// Configuration, schema and computation failures abort the run with a
// [*PipelineError] that names the stage and carries the log gathered so far.
// Use errors.Is with [ErrConfiguration], [ErrSchema] or [ErrComputation] to
// classify them, and [MapError] to turn them into a user-facing message with
// a support code.
//
// Consistency violations and degenerate statistics (zero spread, a column
// with no values to fill from) are not errors. They surface as issues and
// warning actions in the [Result].
package core
