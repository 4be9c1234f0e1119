// Package parse turns the raw argument payload of a model's function call
// into a typed Go value.
//
// Parsing happens in layers, each with its own failure kind:
//
//   - the payload is decoded as JSON; a malformed payload yields a
//     [*ParseError] (optionally after a repair pass, see [WithRepair]);
//   - declared defaults fill in absent properties and, unless strict mode is
//     on, string scalars are coerced to the numeric or boolean type the
//     schema asks for;
//   - the document is validated against the JSON Schema of the target;
//     every violation is reported as a [FieldError] inside a
//     [*ValidationError];
//   - the document is decoded into the target and the optional [Validator]
//     and [ContextValidator] hooks run.
//
// A [Parser] compiles the schema once and can be reused across attempts.
package parse
