package knowledge

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	defaultChunkSizeRunes    = 1000
	defaultChunkOverlapRunes = 200
)

// Chunker 按 rune 宽度对文本做定长重叠切片。
type Chunker struct {
	sizeRunes    int
	overlapRunes int
}

// NewChunker 创建切片器。overlap 必须小于 size，否则步长为 0 会原地打转。
func NewChunker(sizeRunes, overlapRunes int) (*Chunker, error) {
	if sizeRunes <= 0 {
		sizeRunes = defaultChunkSizeRunes
	}
	if overlapRunes < 0 {
		overlapRunes = 0
	}
	if overlapRunes >= sizeRunes {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlapRunes, sizeRunes)
	}
	return &Chunker{sizeRunes: sizeRunes, overlapRunes: overlapRunes}, nil
}

// Split 将文本切成带重叠的片段。空白文本返回 nil。
func (c *Chunker) Split(s string) []string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil
	}
	runes := []rune(raw)
	if len(runes) <= c.sizeRunes {
		return []string{raw}
	}
	step := c.sizeRunes - c.overlapRunes

	out := make([]string, 0, (len(runes)/step)+1)
	for start := 0; start < len(runes); start += step {
		end := start + c.sizeRunes
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end >= len(runes) {
			break
		}
	}
	return out
}

// recursiveSeparators 语义边界的优先级：段落 > 换行 > 句子 > 词。
var recursiveSeparators = []string{"\n\n", "\n", ". ", " "}

// SplitRecursive 按语义边界递归切片：优先在段落处断开，其次换行、
// 句号、空格；整段找不到可用边界时退回定长硬切。
// 片段合并成不超过 sizeRunes 的块，块间保留 overlapRunes 重叠。
func (c *Chunker) SplitRecursive(s string) []string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil
	}
	if len([]rune(raw)) <= c.sizeRunes {
		return []string{raw}
	}
	return c.merge(c.segment(raw, recursiveSeparators))
}

// segment 把文本拆成单片不超过 sizeRunes 的片段，分隔符保留在片段尾部。
// 当前分隔符切不开或切出的片段仍超限时，降级到下一个分隔符。
func (c *Chunker) segment(s string, seps []string) []string {
	if len([]rune(s)) <= c.sizeRunes {
		return []string{s}
	}
	for i, sep := range seps {
		parts := strings.SplitAfter(s, sep)
		if len(parts) == 1 {
			continue
		}
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part == "" {
				continue
			}
			if len([]rune(part)) <= c.sizeRunes {
				out = append(out, part)
				continue
			}
			out = append(out, c.segment(part, seps[i+1:])...)
		}
		return out
	}
	return c.hardCut(s)
}

// hardCut 无任何可用边界时按定长窗口硬切。
func (c *Chunker) hardCut(s string) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/c.sizeRunes+1)
	for start := 0; start < len(runes); start += c.sizeRunes {
		end := start + c.sizeRunes
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// merge 将片段顺序合并成块。块写满后把末尾 overlapRunes 个 rune
// 带进下一块开头；重叠绝不挤占下一片段的空间。
func (c *Chunker) merge(segments []string) []string {
	out := make([]string, 0, len(segments))
	var cur []rune
	for _, seg := range segments {
		r := []rune(seg)
		if len(cur) > 0 && len(cur)+len(r) > c.sizeRunes {
			if chunk := strings.TrimSpace(string(cur)); chunk != "" {
				out = append(out, chunk)
			}
			keep := c.overlapRunes
			if room := c.sizeRunes - len(r); room < keep {
				keep = room
			}
			if keep < 0 {
				keep = 0
			}
			if keep < len(cur) {
				cur = append([]rune(nil), cur[len(cur)-keep:]...)
			}
		}
		cur = append(cur, r...)
	}
	if chunk := strings.TrimSpace(string(cur)); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

// ChunkPage 清洗并切片一页文本。序号由调用方在文档维度统一编排。
func (c *Chunker) ChunkPage(page PageText) []Chunk {
	cleaned := CleanText(page.Text)
	pieces := c.SplitRecursive(cleaned)
	if len(pieces) == 0 {
		return nil
	}
	chunks := make([]Chunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, Chunk{
			Text: p,
			Page: page.Page,
		})
	}
	return chunks
}

// CleanText 清洗 PDF/OCR 提取出的文本：
// NFKC 归一化统一全角/连字等变体，去除除换行外的控制字符，压缩连续空白。
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	normalized := norm.NFKC.String(s)

	var sb strings.Builder
	sb.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case r == '\n':
			sb.WriteRune(r)
		case r == '\t':
			sb.WriteRune(' ')
		case unicode.IsControl(r) || r == '�':
			// 丢弃 OCR 噪声字符
		default:
			sb.WriteRune(r)
		}
	}

	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
