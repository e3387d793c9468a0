package transpiler

import "strings"

// SourceMap is a Source Map v3 document (the same JSON shape browsers and
// Node consume) relating lines of emitted Go source back to the rbscript
// source that produced them.
type SourceMap struct {
	Version    int      `json:"version"`
	File       string   `json:"file"`
	SourceRoot string   `json:"sourceRoot,omitempty"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`
}

type segment struct {
	genCol int
	srcIdx int
	srcLine int
	srcCol  int
}

// mapBuilder accumulates (generated line, column) -> (source line, column)
// correspondences as the emitter writes Go source, then encodes them into
// the VLQ "mappings" field Source Map v3 expects.
type mapBuilder struct {
	sources []string
	srcIdx  map[string]int
	lines   [][]segment
}

func newMapBuilder() *mapBuilder {
	return &mapBuilder{srcIdx: make(map[string]int)}
}

// sourceIndex interns a source filename, returning its index into Sources.
func (b *mapBuilder) sourceIndex(file string) int {
	if idx, ok := b.srcIdx[file]; ok {
		return idx
	}
	idx := len(b.sources)
	b.sources = append(b.sources, file)
	b.srcIdx[file] = idx
	return idx
}

// add records that genLine (0-indexed) at genCol corresponds to srcLine,
// srcCol (1-indexed, as token.Position stores them) in file.
func (b *mapBuilder) add(genLine, genCol int, file string, srcLine, srcCol int) {
	for len(b.lines) <= genLine {
		b.lines = append(b.lines, nil)
	}
	b.lines[genLine] = append(b.lines[genLine], segment{
		genCol:  genCol,
		srcIdx:  b.sourceIndex(file),
		srcLine: srcLine - 1, // source maps are 0-indexed
		srcCol:  srcCol - 1,
	})
}

// build produces the finished SourceMap for outputFile.
func (b *mapBuilder) build(outputFile string) SourceMap {
	var out strings.Builder

	prevSrcIdx, prevSrcLine, prevSrcCol := 0, 0, 0
	for lineIdx, segs := range b.lines {
		if lineIdx > 0 {
			out.WriteByte(';')
		}
		prevGenCol := 0
		for i, s := range segs {
			if i > 0 {
				out.WriteByte(',')
			}
			writeVLQ(&out, s.genCol-prevGenCol)
			writeVLQ(&out, s.srcIdx-prevSrcIdx)
			writeVLQ(&out, s.srcLine-prevSrcLine)
			writeVLQ(&out, s.srcCol-prevSrcCol)
			prevGenCol = s.genCol
			prevSrcIdx = s.srcIdx
			prevSrcLine = s.srcLine
			prevSrcCol = s.srcCol
		}
	}

	return SourceMap{
		Version:  3,
		File:     outputFile,
		Sources:  append([]string(nil), b.sources...),
		Names:    []string{},
		Mappings: out.String(),
	}
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// writeVLQ appends n encoded as a Base64-VLQ segment field (sign in the
// low bit, 5 data bits per digit, continuation bit in the 6th), the
// encoding Source Map v3's "mappings" grammar requires.
func writeVLQ(w *strings.Builder, n int) {
	v := n << 1
	if n < 0 {
		v = (-n << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		w.WriteByte(base64Chars[digit])
		if v == 0 {
			break
		}
	}
}
