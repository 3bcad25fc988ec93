// Package onnx runs the portable navigation model through onnxruntime. The
// runner is only compiled with the onnx build tag, since it needs cgo and the
// onnxruntime shared library:
//
//	go build -tags onnx ./cmd/navmodeld
//
// Without the tag importing this package registers nothing.
package onnx
