// Package domain holds the restricted primitive types shared by the schema
// validator, the compiler and the runtime: symbol names (predicate and class
// form) and the bounded 32-bit integer domain of the logic engine.
package domain
