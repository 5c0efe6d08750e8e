// Package errors provides structured, actionable error messages for the
// observable command.
//
// Every error carries a registered code that maps to a short message, a
// longer explanation and a documentation URL. Errors can point at a position
// in observable.json and render the surrounding lines.
//
// # Error Categories
//
//   - config: observable.json problems (E100-E119)
//   - runtime: cell and store failures (E200-E219)
//   - snapshot: snapshot backend failures (E300-E319)
//   - devtools: inspector server failures (E400-E419)
//   - cli: command usage errors (E500-E519)
//
// # Usage
//
//	err := errors.New("E102").
//	    WithLocation("observable.json", 4, 13).
//	    WithSuggestion("Use a port between 1 and 65535")
//
//	fmt.Println(err.Format())
//	// Output:
//	// error[E102] config: Invalid devtools port
//	//   --> observable.json:4:13
//	//    |
//	//  2 |   "devtools": {
//	//  3 |     "host": "localhost",
//	//  4 |     "port": 0,
//	//    |             ^
//	//  5 |     "readOnly": false
//	//  6 |   },
//	//    |
//	//   devtools.port must be between 1 and 65535.
//	//
//	//   = hint: Use a port between 1 and 65535
//	//   = docs: https://observable.vango.dev/docs/errors/E102
//
// Classify maps errors returned by the observable, store and snapshot
// packages to their registered codes.
package errors
