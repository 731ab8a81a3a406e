package vectorrepo

import (
	"encoding/binary"
	"math"

	"github.com/kailas-cloud/supportkb/internal/domain"
)

// buildHashFields converts an indexed document into a flat map for HSET.
func buildHashFields(doc *domain.IndexedDocument) map[string]string {
	return map[string]string{
		fieldContent:  doc.Content,
		fieldVector:   vectorToBytes(doc.Embedding),
		fieldCategory: doc.Metadata.Category,
		fieldTitle:    doc.Metadata.Title,
		fieldTags:     doc.Metadata.Tags,
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
