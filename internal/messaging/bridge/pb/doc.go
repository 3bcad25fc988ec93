// Package pb holds the generated gRPC stubs for the navbus service.
package pb

//go:generate protoc --go_out=. --go_opt=paths=source_relative --go-grpc_out=. --go-grpc_opt=paths=source_relative navbus.proto
