// Package image stores assembled programs on disk so they can be run
// without assembling the source again.
package image

import (
	"errors"
	"fmt"
	"os"

	"stackvm/pkg/asm"

	"github.com/fxamacker/cbor/v2"
)

// Extension is the file extension of image files
const Extension = ".svmc"

// Version is bumped whenever the opcode numbering or layout changes
const Version = 1

var ErrVersion = errors.New("unsupported image version")

// Image is an assembled program with its symbol tables and, when it was
// packed, the byte code.
type Image struct {
	Version      uint                `cbor:"1,keyasint"`
	Source       string              `cbor:"2,keyasint,omitempty"`
	Instructions []asm.Instruction   `cbor:"3,keyasint"`
	SourceLines  []int               `cbor:"4,keyasint,omitempty"`
	Labels       map[string]int      `cbor:"5,keyasint,omitempty"`
	Procedures   map[string]asm.Span `cbor:"6,keyasint,omitempty"`
	Packed       *asm.Packed         `cbor:"7,keyasint,omitempty"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// New builds an image from an assembled program. packed may be nil.
func New(source string, prog *asm.Program, packed *asm.Packed) *Image {
	return &Image{
		Version:      Version,
		Source:       source,
		Instructions: prog.Instructions,
		SourceLines:  prog.SourceLines,
		Labels:       prog.Labels,
		Procedures:   prog.Procedures,
		Packed:       packed,
	}
}

// Program rebuilds the assembled program held by the image
func (img *Image) Program() *asm.Program {
	labels := asm.Labels(img.Labels)
	if labels == nil {
		labels = make(asm.Labels)
	}
	procs := asm.Procedures(img.Procedures)
	if procs == nil {
		procs = make(asm.Procedures)
	}

	return &asm.Program{
		Instructions: img.Instructions,
		Labels:       labels,
		Procedures:   procs,
		SourceLines:  img.SourceLines,
	}
}

// Marshal serializes an image to canonical CBOR
func Marshal(img *Image) ([]byte, error) {
	return encMode.Marshal(img)
}

// Unmarshal deserializes an image and checks its version
func Unmarshal(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if img.Version != Version {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrVersion, img.Version, Version)
	}
	return &img, nil
}

// Write stores an image at path
func Write(path string, img *Image) error {
	data, err := Marshal(img)
	if err != nil {
		return fmt.Errorf("image: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// Read loads an image from path
func Read(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Unmarshal(data)
}
