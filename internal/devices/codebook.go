package devices

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CodeEntry is one codebook row: what a control code and its values mean
// for a given product type.
type CodeEntry struct {
	Code             string
	CodeDescription  string
	Value            string
	ValueDescription string
	ProductType      string
}

// Codebook maps product types to human-readable descriptions of their
// control codes. The resolution prompts embed these so the oracle knows
// what each code and value means.
type Codebook struct {
	byProductType map[string][]CodeEntry
}

// codebookHeader is the expected CSV column order.
var codebookHeader = []string{"code", "code_description", "value", "value_description", "product_type"}

// LoadCodebook reads a codebook CSV from disk.
func LoadCodebook(path string) (*Codebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("devices: open codebook: %w", err)
	}
	defer f.Close()
	cb, err := ReadCodebook(f)
	if err != nil {
		return nil, fmt.Errorf("devices: codebook %s: %w", path, err)
	}
	return cb, nil
}

// ReadCodebook parses codebook CSV data from r. The first row must be the
// header code,code_description,value,value_description,product_type.
func ReadCodebook(r io.Reader) (*Codebook, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(codebookHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, want := range codebookHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}

	cb := &Codebook{byProductType: make(map[string][]CodeEntry)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		entry := CodeEntry{
			Code:             strings.TrimSpace(row[0]),
			CodeDescription:  strings.TrimSpace(row[1]),
			Value:            strings.TrimSpace(row[2]),
			ValueDescription: strings.TrimSpace(row[3]),
			ProductType:      strings.TrimSpace(row[4]),
		}
		cb.byProductType[entry.ProductType] = append(cb.byProductType[entry.ProductType], entry)
	}
	return cb, nil
}

// Descriptions renders the codebook entries for a product type in the
// format embedded into resolution prompts. Unknown product types yield nil.
func (cb *Codebook) Descriptions(productType string) []string {
	entries := cb.byProductType[productType]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf(
			"%q: Code %q (%s), Value %q (%s)",
			e.ProductType, e.Code, e.CodeDescription, e.Value, e.ValueDescription))
	}
	return out
}

// CodeDescriptions returns a code to description map across all product
// types, used to annotate schedule prompts with shared code semantics.
func (cb *Codebook) CodeDescriptions() map[string]string {
	out := make(map[string]string)
	for _, entries := range cb.byProductType {
		for _, e := range entries {
			if _, ok := out[e.Code]; !ok {
				out[e.Code] = e.CodeDescription
			}
		}
	}
	return out
}
