// Package navmodel runs the navigation model over map frames and turns its raw
// output into navModel bus events.
//
// The model writes a flat buffer of OutputSize float32 values. Result is laid
// out to match that buffer exactly, so the executor hands the model a slice
// aliasing a Result and callers read named fields with no copying:
//
//	[0, 66)     plan mean, T points of (x, y)
//	[66, 132)   plan std (log scale), T points of (x, y)
//	[132, 164)  desire prediction
//	[164, 420)  features
//
// Backends are plugged in through RegisterRunner; see the runners
// subpackages.
package navmodel
