// psdump - .ps container inspector
// Lists records, decodes SPIR-V stage records and previews Metal source.
package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogpu/psc/container"
	"github.com/gogpu/psc/glslc"
)

const (
	opEntryPoint    = 15
	opCapability    = 17
	opExtInstImport = 11
)

var executionModels = map[uint32]string{
	0: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
	3: "Geometry", 4: "Fragment", 5: "GLCompute", 6: "Kernel",
}

var capabilities = map[uint32]string{
	0: "Matrix", 1: "Shader", 2: "Geometry", 3: "Tessellation",
	4: "Addresses", 5: "Linkage", 6: "Kernel", 9: "Float16", 10: "Float64",
	11: "Int64", 13: "ImageBasic", 14: "ImageReadWrite", 15: "ImageMipmap",
	22: "Int16", 25: "ImageGatherExtended", 31: "ClipDistance", 32: "CullDistance",
	33: "ImageCubeArray", 34: "SampleRateShading", 37: "GenericPointer", 38: "Int8",
	41: "MinLod", 48: "StorageImageExtendedFormats", 49: "ImageQuery",
	50: "DerivativeControl", 54: "StorageImageReadWithoutFormat",
	55: "StorageImageWriteWithoutFormat", 56: "MultiViewport",
	4427: "DrawParameters", 4442: "MultiView",
}

func readString(data []byte, offset int, maxWords int) (string, int) {
	var sb strings.Builder
	words := 0
	for i := 0; i < maxWords*4; i++ {
		if offset+i >= len(data) {
			break
		}
		b := data[offset+i]
		if b == 0 {
			words = (i / 4) + 1
			break
		}
		sb.WriteByte(b)
	}
	return sb.String(), words
}

func lookup(m map[uint32]string, v uint32) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("%d", v)
}

func main() {
	lines := flag.Int("lines", 8, "lines of Metal source to print per record (-1 for all)")
	raw := flag.String("extract", "", "write the payload of the record with this tag to stdout")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: psdump [-lines n] [-extract tag] <file.ps>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	records, err := container.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *raw != "" {
		if len(*raw) != 1 {
			fmt.Fprintf(os.Stderr, "Error: tag must be one character, got %q\n", *raw)
			os.Exit(2)
		}
		r, ok := container.Find(records, container.Tag((*raw)[0]))
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: no %q record\n", *raw)
			os.Exit(1)
		}
		if _, err := os.Stdout.Write(r.Payload); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	fmt.Fprintf(w, "; %s: %d records, %d bytes\n", flag.Arg(0), len(records), container.Size(records))
	for i, r := range records {
		fmt.Fprintf(w, "\n[%d] %s %d bytes\n", i, r.Tag, len(r.Payload))
		if r.Tag.Bytecode() {
			dumpSPIRV(w, r.Payload)
		} else {
			dumpSource(w, r.Payload, *lines)
		}
	}
}

// dumpSPIRV prints the header, entry points and capabilities of a module.
func dumpSPIRV(w io.Writer, data []byte) {
	h, err := glslc.ParseHeader(data)
	if err != nil {
		fmt.Fprintf(w, "; ERROR: %v\n", err)
		return
	}
	fmt.Fprintf(w, "; %s\n", h)

	var caps, entries, imports []string
	count := 0
	offset := glslc.HeaderSize
	for offset+4 <= len(data) {
		word := binary.LittleEndian.Uint32(data[offset:])
		opcode := uint16(word & 0xFFFF)
		wordCount := int(word >> 16)

		if wordCount == 0 || offset+wordCount*4 > len(data) {
			fmt.Fprintf(w, "; ERROR: invalid word count %d at offset 0x%X\n", wordCount, offset)
			break
		}

		ops := make([]uint32, wordCount-1)
		for i := range ops {
			ops[i] = binary.LittleEndian.Uint32(data[offset+4+i*4:])
		}

		switch opcode {
		case opCapability:
			if len(ops) > 0 {
				caps = append(caps, lookup(capabilities, ops[0]))
			}
		case opExtInstImport:
			name, _ := readString(data, offset+8, len(ops)-1)
			imports = append(imports, fmt.Sprintf("%q", name))
		case opEntryPoint:
			if len(ops) >= 3 {
				name, _ := readString(data, offset+12, len(ops)-2)
				entries = append(entries, fmt.Sprintf("%s %q", lookup(executionModels, ops[0]), name))
			}
		}
		count++
		offset += wordCount * 4
	}

	fmt.Fprintf(w, "; %d instructions\n", count)
	if len(entries) > 0 {
		fmt.Fprintf(w, "; entry points: %s\n", strings.Join(entries, ", "))
	}
	if len(caps) > 0 {
		fmt.Fprintf(w, "; capabilities: %s\n", strings.Join(caps, " "))
	}
	if len(imports) > 0 {
		fmt.Fprintf(w, "; imports: %s\n", strings.Join(imports, " "))
	}
}

// dumpSource prints the first n lines of a source payload.
func dumpSource(w io.Writer, data []byte, n int) {
	total := bytes.Count(data, []byte("\n"))
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	shown := 0
	for sc.Scan() && (n < 0 || shown < n) {
		fmt.Fprintf(w, "  %s\n", sc.Text())
		shown++
	}
	if shown < total {
		fmt.Fprintf(w, "  ... %d more lines\n", total-shown)
	}
}
