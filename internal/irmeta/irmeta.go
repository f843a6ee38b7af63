// Package irmeta decodes the serialized IR metadata stored in cache "ir"
// directories: inline function bodies, class field layouts and the list of
// files with eagerly initialized top-level properties.
//
// Blobs are msgpack-encoded and prefixed with a schema version so that a
// reader never misinterprets data written by an incompatible producer.
package irmeta

import (
	"bytes"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is the current blob schema. Increment when a record changes.
const SchemaVersion uint16 = 1

// File names inside an "ir" directory.
const (
	InlineFunctionBodiesFileName = "inline_bodies"
	ClassFieldsFileName          = "class_fields"
	EagerInitializedFileName     = "eager_init"
)

// FileReference identifies the source file a record belongs to.
type FileReference struct {
	FqName string `msgpack:"fq"`
	Path   string `msgpack:"path"`
}

// InlineFunctionReference locates the serialized body of an inline function.
type InlineFunctionReference struct {
	File                 FileReference `msgpack:"file"`
	FunctionSignature    int32         `msgpack:"sig"`
	Body                 int32         `msgpack:"body"`
	StartOffset          int32         `msgpack:"start"`
	EndOffset            int32         `msgpack:"end"`
	ExtensionReceiverSig int32         `msgpack:"ext"`
	DispatchReceiverSig  int32         `msgpack:"disp"`
	OuterReceiverSigs    []int32       `msgpack:"outer,omitempty"`
	ValueParameterSigs   []int32       `msgpack:"params,omitempty"`
	TypeParameterSigs    []int32       `msgpack:"tparams,omitempty"`
	DefaultValues        []int32       `msgpack:"defaults,omitempty"`
}

// ClassField is one field of a class layout.
type ClassField struct {
	Name      string `msgpack:"name"`
	Binary    string `msgpack:"type"`
	Flags     uint32 `msgpack:"flags"`
	Alignment uint32 `msgpack:"align"`
}

// ClassFields is the field layout of one class.
type ClassFields struct {
	File              FileReference `msgpack:"file"`
	ClassSignature    int32         `msgpack:"sig"`
	TypeParameterSigs []int32       `msgpack:"tparams,omitempty"`
	OuterThisIndex    int32         `msgpack:"outer"`
	Fields            []ClassField  `msgpack:"fields"`
}

// EagerInitializedFile names a file with eagerly initialized properties.
type EagerInitializedFile struct {
	File FileReference `msgpack:"file"`
}

// Record is the set of record kinds stored in IR blobs.
type Record interface {
	InlineFunctionReference | ClassFields | EagerInitializedFile
}

type blob[T Record] struct {
	Schema  uint16 `msgpack:"schema"`
	Records []T    `msgpack:"records"`
}

// DecodeTo decodes data and appends its records to out.
// An empty blob holds no records.
func DecodeTo[T Record](data []byte, out *[]T) error {
	if len(data) == 0 {
		return nil
	}
	var b blob[T]
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&b); err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to decode IR metadata")
	}
	if b.Schema != SchemaVersion {
		return platformerrors.Newf(platformerrors.CodeSchemaVersionIncompatible,
			"unsupported IR metadata schema %d (expected %d)", b.Schema, SchemaVersion)
	}
	*out = append(*out, b.Records...)
	return nil
}

// Encode serializes records in the format read by DecodeTo.
func Encode[T Record](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(blob[T]{Schema: SchemaVersion, Records: records}); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to encode IR metadata")
	}
	return buf.Bytes(), nil
}
