// Package unpack implements the gRPC transport for unpack workers.
//
// The service has a single unary method taking the unpack request as a
// google.protobuf.Struct and returning google.protobuf.Empty, so no generated
// code is needed on either side. Server exposes any local unpacker, Client
// implements the unpacker contract against a remote worker.
package unpack
